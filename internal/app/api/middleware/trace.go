package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/barberpro/mpmock/pkg/tool"
)

// TraceMiddleware assigns each request a trace id, honoring a client-supplied
// X-Request-ID. The id is stored under "traceID" in both gin.Context and the
// request's context.Context.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Request-ID")
		if traceID == "" {
			traceID = tool.GenerateUUIDV7()
		}

		c.Set("traceID", traceID)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), "traceID", traceID))

		c.Next()
	}
}
