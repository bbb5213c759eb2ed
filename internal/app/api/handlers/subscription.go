package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authartic/certify/internal/app/api/middleware"
	"github.com/authartic/certify/internal/app/service/subscription"
	"github.com/authartic/certify/pkg/response"
)

type activatePlanReq struct {
	PlanID uint `json:"plan_id" binding:"required"`
}

// @Summary      Activate a subscription plan
// @Description  Grants a fresh issuance quota to a verified vendor; overwrites any prior remainder.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Param        request body activatePlanReq true "Plan to activate"
// @Success      200  {object}  response.APIResponse[models.SubscriptionStatus]
// @Router       /api/v1/subscription/activate [post]
func ApiActivatePlan(svc *subscription.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.PrincipalFromGin(c)
		var req activatePlanReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		status, err := svc.ActivatePlan(c.Request.Context(), principal, req.PlanID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(status))
	}
}

// @Summary      List subscription plans
// @Tags         Subscription
// @Produce      json
// @Success      200  {object}  response.APIResponse[[]models.SubscriptionPlan]
// @Router       /api/v1/subscription/plans [get]
func ApiListPlans(svc *subscription.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		plans, err := svc.ListPlans(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(plans))
	}
}

// @Summary      Get a subscription plan
// @Tags         Subscription
// @Produce      json
// @Param        id path int true "Plan id"
// @Success      200  {object}  response.APIResponse[models.SubscriptionPlan]
// @Router       /api/v1/subscription/plans/{id} [get]
func ApiGetPlan(svc *subscription.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		plan, err := svc.GetPlan(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(plan))
	}
}

// @Summary      Create a subscription plan
// @Description  Admin-only: defines a plan and its features.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Param        request body subscription.CreatePlanInput true "Plan definition"
// @Success      200  {object}  response.APIResponse[models.SubscriptionPlan]
// @Router       /api/v1/subscription/plans [post]
func ApiCreatePlan(svc *subscription.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.PrincipalFromGin(c)
		if !principal.IsAdmin() {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeForbidden, "only admins can create plans"))
			return
		}
		var input subscription.CreatePlanInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		plan, err := svc.CreatePlan(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(plan))
	}
}

func RegisterSubscriptionRoutes(r gin.IRouter, svc *subscription.Service) {
	r.POST("/subscription/activate", ApiActivatePlan(svc))
	r.POST("/subscription/plans", ApiCreatePlan(svc))
}

// RegisterPublicSubscriptionRoutes registers the plan catalogue, readable
// without authentication.
func RegisterPublicSubscriptionRoutes(r gin.IRouter, svc *subscription.Service) {
	r.GET("/subscription/plans", ApiListPlans(svc))
	r.GET("/subscription/plans/:id", ApiGetPlan(svc))
}
