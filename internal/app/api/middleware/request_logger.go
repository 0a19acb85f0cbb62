package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLoggerMiddleware attaches a request-scoped logger enriched with the
// trace_id set by TraceMiddleware to gin.Context and the request context, so
// handlers and services log with the same correlation id.
func RequestLoggerMiddleware(base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetString("traceID")

		reqLogger := base.With("trace_id", traceID)
		c.Set("logger", reqLogger)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), "logger", reqLogger))

		if traceID != "" {
			c.Writer.Header().Set("X-Request-ID", traceID)
		}

		c.Next()
	}
}
