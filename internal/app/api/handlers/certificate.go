package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/authartic/certify/internal/app/api/middleware"
	"github.com/authartic/certify/internal/app/service/certificate"
	"github.com/authartic/certify/pkg/response"
)

type reissueBatchReq struct {
	NumberOfCertificates int `json:"number_of_certificate" binding:"required,gt=0"`
}

// @Summary      Issue certificates
// @Description  Creates a certificate batch and mints its certificates; the archive is emailed to the vendor. Drafts mint nothing.
// @Tags         Certificate
// @Accept       json
// @Produce      json
// @Param        request body certificate.CreateCertificateInfoInput true "Batch definition"
// @Success      200  {object}  response.APIResponse[models.CertificateInfo]
// @Router       /api/v1/certificate [post]
func ApiIssueCertificates(svc *certificate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.PrincipalFromGin(c)
		var input certificate.CreateCertificateInfoInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		info, err := svc.Issue(c.Request.Context(), principal, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(info))
	}
}

// @Summary      Re-issue a batch
// @Description  Mints additional certificates from an existing batch and emails the archive to the vendor.
// @Tags         Certificate
// @Accept       json
// @Produce      json
// @Param        id      path  int             true "Batch id"
// @Param        request body  reissueBatchReq true "Count to mint"
// @Success      200  {object}  response.APIResponse[models.CertificateInfo]
// @Router       /api/v1/certificate/{id}/reissue [post]
func ApiReissueBatch(svc *certificate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.PrincipalFromGin(c)
		infoID, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req reissueBatchReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		info, err := svc.ReissueBatch(c.Request.Context(), principal, infoID, req.NumberOfCertificates)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(info))
	}
}

// @Summary      Re-issue one certificate
// @Description  Revokes a single certificate and mints its replacement in the same batch.
// @Tags         Certificate
// @Produce      json
// @Param        id            path  int  true "Batch id"
// @Param        certificateId path  int  true "Certificate id"
// @Success      200  {object}  response.APIResponse[models.Certificate]
// @Router       /api/v1/certificate/{id}/reissue/{certificateId} [post]
func ApiReissueOne(svc *certificate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.PrincipalFromGin(c)
		infoID, ok := pathID(c, "id")
		if !ok {
			return
		}
		certID, ok := pathID(c, "certificateId")
		if !ok {
			return
		}

		cert, err := svc.ReissueOne(c.Request.Context(), principal, infoID, certID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(cert))
	}
}

// @Summary      Claim a certificate
// @Description  Transfers ownership of the scanned certificate to the caller.
// @Tags         Certificate
// @Produce      json
// @Param        id path int true "Certificate id"
// @Success      200  {object}  response.APIResponse[string]
// @Router       /api/v1/certificate/claim-certificate/{id}/scan [get]
func ApiScanCertificate(svc *certificate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.PrincipalFromGin(c)
		certID, ok := pathID(c, "id")
		if !ok {
			return
		}

		if err := svc.Scan(c.Request.Context(), certID, principal); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT("ownership transferred successfully"))
	}
}

// @Summary      List owned certificates
// @Description  Returns the certificates the caller currently owns, with batch and issuing-vendor data.
// @Tags         Certificate
// @Produce      json
// @Param        name query string false "Filter by batch name"
// @Success      200  {object}  response.APIResponse[[]certificate.OwnedCertificate]
// @Router       /api/v1/certificate [get]
func ApiListOwnedCertificates(svc *certificate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.PrincipalFromGin(c)

		certs, err := svc.ListOwned(c.Request.Context(), principal, c.Query("name"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(certs))
	}
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, name+" must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

func RegisterCertificateRoutes(r gin.IRouter, svc *certificate.Service) {
	r.POST("/certificate", ApiIssueCertificates(svc))
	r.GET("/certificate", ApiListOwnedCertificates(svc))
	r.POST("/certificate/:id/reissue", ApiReissueBatch(svc))
	r.POST("/certificate/:id/reissue/:certificateId", ApiReissueOne(svc))
	r.GET("/certificate/claim-certificate/:id/scan", ApiScanCertificate(svc))
}
