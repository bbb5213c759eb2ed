package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authartic/certify/internal/app/service/certificate"
	"github.com/authartic/certify/internal/app/service/subscription"
	"github.com/authartic/certify/pkg/response"
)

// respondError maps service errors onto envelope codes. Anything outside the
// known taxonomy is surfaced as a generic internal error.
func respondError(c *gin.Context, err error) {
	var capErr *subscription.CapacityError

	code := response.APIResponseCodeError
	switch {
	case errors.As(err, &capErr),
		errors.Is(err, subscription.ErrNoRemainingCertificates),
		errors.Is(err, certificate.ErrAlreadyOwner),
		errors.Is(err, certificate.ErrAlreadyReissued),
		errors.Is(err, certificate.ErrTransferConflict),
		errors.Is(err, certificate.ErrCertificateUnavailable):
		code = response.APIResponseCodeConflict
	case errors.Is(err, certificate.ErrNotVendor),
		errors.Is(err, certificate.ErrNotConsumer),
		errors.Is(err, certificate.ErrVendorNotVerified),
		errors.Is(err, certificate.ErrNoActiveSubscription),
		errors.Is(err, certificate.ErrSubscriptionExpired),
		errors.Is(err, subscription.ErrNotVendor):
		code = response.APIResponseCodeForbidden
	case errors.Is(err, subscription.ErrEmailNotVerified),
		errors.Is(err, subscription.ErrVendorNotValidated):
		code = response.APIResponseCodeUnauthorized
	case errors.Is(err, certificate.ErrCertificateNotFound),
		errors.Is(err, certificate.ErrBatchNotFound),
		errors.Is(err, certificate.ErrAttachmentNotFound),
		errors.Is(err, subscription.ErrUserNotFound),
		errors.Is(err, subscription.ErrVendorInfoNotFound),
		errors.Is(err, subscription.ErrPlanNotFound),
		errors.Is(err, subscription.ErrFeatureNotFound),
		errors.Is(err, subscription.ErrStatusNotFound):
		code = response.APIResponseCodeNotFound
	case errors.Is(err, certificate.ErrInvalidPagination):
		code = response.APIResponseCodeBadRequest
	}

	c.JSON(http.StatusOK, response.ErrorT[any](code, err.Error()))
}
