package server

import (
	"strconv"
	"time"

	"tutorslot/internal/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware labels by route template so path ids don't explode
// the series count. Unmatched routes share one label.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start).Seconds(),
		)
	}
}
