package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/authartic/certify/pkg/logctx"
)

func TestRequestLoggerMiddleware_EnrichesWithTraceAndUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core).Sugar()

	r := gin.New()
	r.Use(TraceMiddleware(), RequestLoggerMiddleware(base), AuthMiddleware(testSecret))
	r.GET("/ping", func(c *gin.Context) {
		logctx.FromCtx(c.Request.Context(), base).Infow("handled")
		c.Status(http.StatusOK)
	})

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  float64(7),
		"role": "vendor",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", "trace-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "trace-123", w.Header().Get("X-Request-ID"))

	entries := logs.All()
	require.NotEmpty(t, entries)
	fields := entries[len(entries)-1].ContextMap()
	assert.Equal(t, "trace-123", fields["trace_id"])
	assert.Equal(t, "7", fields["user_id"])
}
