package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authartic/certify/internal/app/service/certificate"
	"github.com/authartic/certify/internal/app/service/subscription"
	"github.com/authartic/certify/pkg/response"
)

func routeSet(r *gin.Engine) map[string]bool {
	set := map[string]bool{}
	for _, rt := range r.Routes() {
		set[rt.Method+" "+rt.Path] = true
	}
	return set
}

func TestRegisterCertificateRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1")
	RegisterCertificateRoutes(g, nil)
	RegisterCertificateInfoRoutes(g, nil)

	routes := routeSet(r)
	require.True(t, routes["POST /api/v1/certificate"])
	require.True(t, routes["GET /api/v1/certificate"])
	require.True(t, routes["POST /api/v1/certificate/:id/reissue"])
	require.True(t, routes["POST /api/v1/certificate/:id/reissue/:certificateId"])
	require.True(t, routes["GET /api/v1/certificate/claim-certificate/:id/scan"])
	require.True(t, routes["GET /api/v1/certificate-info"])
	require.True(t, routes["GET /api/v1/certificate-info/:id"])
}

func TestRegisterSubscriptionRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterSubscriptionRoutes(r.Group("/api/v1"), nil)
	RegisterPublicSubscriptionRoutes(r.Group("/api/v1"), nil)

	routes := routeSet(r)
	require.True(t, routes["POST /api/v1/subscription/activate"])
	require.True(t, routes["POST /api/v1/subscription/plans"])
	require.True(t, routes["GET /api/v1/subscription/plans"])
	require.True(t, routes["GET /api/v1/subscription/plans/:id"])
}

func TestRespondError_CodeMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want response.APIResponseCode
	}{
		{"capacity", &subscription.CapacityError{Remaining: 2}, response.APIResponseCodeConflict},
		{"already owner", certificate.ErrAlreadyOwner, response.APIResponseCodeConflict},
		{"already re-issued", certificate.ErrAlreadyReissued, response.APIResponseCodeConflict},
		{"unavailable", certificate.ErrCertificateUnavailable, response.APIResponseCodeConflict},
		{"not a vendor", certificate.ErrNotVendor, response.APIResponseCodeForbidden},
		{"not a consumer", certificate.ErrNotConsumer, response.APIResponseCodeForbidden},
		{"subscription expired", certificate.ErrSubscriptionExpired, response.APIResponseCodeForbidden},
		{"email unverified", subscription.ErrEmailNotVerified, response.APIResponseCodeUnauthorized},
		{"plan missing", subscription.ErrPlanNotFound, response.APIResponseCodeNotFound},
		{"certificate missing", certificate.ErrCertificateNotFound, response.APIResponseCodeNotFound},
		{"bad pagination", certificate.ErrInvalidPagination, response.APIResponseCodeBadRequest},
		{"wrapped sentinel", errors.Join(errors.New("ctx"), certificate.ErrBatchNotFound), response.APIResponseCodeNotFound},
		{"unknown", errors.New("boom"), response.APIResponseCodeError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tc.err)

			assert.Equal(t, http.StatusOK, w.Code)
			var body response.APIResponse[any]
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.EqualValues(t, tc.want, body.Code)
			assert.Equal(t, tc.err.Error(), body.Data)
		})
	}
}
