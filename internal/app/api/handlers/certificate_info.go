package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/authartic/certify/internal/app/api/middleware"
	"github.com/authartic/certify/internal/app/service/certificate"
	"github.com/authartic/certify/pkg/response"
)

// @Summary      List certificate batches
// @Description  Returns the caller's certificate batches, paginated and optionally filtered by name.
// @Tags         Certificate
// @Produce      json
// @Param        name        query string false "Filter by name"
// @Param        saved_draft query bool   false "Drafts only"
// @Param        page        query int    false "Page (default 1)"
// @Param        limit       query int    false "Page size (default 8)"
// @Success      200  {object}  response.APIResponse[certificate.InfoPage]
// @Router       /api/v1/certificate-info [get]
func ApiListCertificateInfos(svc *certificate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.PrincipalFromGin(c)

		page := queryInt(c, "page", 1)
		limit := queryInt(c, "limit", 8)
		savedDraft := c.Query("saved_draft") == "true"

		result, err := svc.ListInfos(c.Request.Context(), principal, c.Query("name"), savedDraft, page, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(result))
	}
}

// @Summary      Get a certificate batch
// @Description  Returns one of the caller's certificate batches by id.
// @Tags         Certificate
// @Produce      json
// @Param        id          path  int  true  "Batch id"
// @Param        saved_draft query bool false "Draft lookup"
// @Success      200  {object}  response.APIResponse[models.CertificateInfo]
// @Router       /api/v1/certificate-info/{id} [get]
func ApiGetCertificateInfo(svc *certificate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.PrincipalFromGin(c)
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		savedDraft := c.Query("saved_draft") == "true"

		info, err := svc.GetInfo(c.Request.Context(), principal, id, savedDraft)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(info))
	}
}

func queryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func RegisterCertificateInfoRoutes(r gin.IRouter, svc *certificate.Service) {
	r.GET("/certificate-info", ApiListCertificateInfos(svc))
	r.GET("/certificate-info/:id", ApiGetCertificateInfo(svc))
}
