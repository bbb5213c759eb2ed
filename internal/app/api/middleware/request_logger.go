package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLoggerMiddleware attaches a request-scoped logger enriched with
// trace_id to gin.Context and the request context. AuthMiddleware re-attaches
// it with user_id once the caller is resolved.
func RequestLoggerMiddleware(base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID, _ := c.Get("traceID")

		reqLogger := base.With("trace_id", traceID)
		if uid, ok := c.Request.Context().Value("user_id").(string); ok && uid != "" {
			reqLogger = reqLogger.With("user_id", uid)
		}
		attachLogger(c, reqLogger)

		// mirror trace id to response header when available
		if s, ok := traceID.(string); ok && s != "" {
			c.Writer.Header().Set("X-Request-ID", s)
		}

		c.Next()
	}
}

// attachLogger stores the request-scoped logger in both gin.Context and the
// request's context.Context so handlers and service code resolve the same
// instance through logctx.
func attachLogger(c *gin.Context, l *zap.SugaredLogger) {
	c.Set("logger", l)
	ctx := context.WithValue(c.Request.Context(), "logger", l)
	c.Request = c.Request.WithContext(ctx)
}
