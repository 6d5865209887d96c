package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"minimusiker_backend/platform/metrics"
)

// RequestMetrics records status and latency per matched route.
func RequestMetrics(reg *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		reg.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
