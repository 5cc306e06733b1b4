package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"validoc/internal/metrics"
)

// Metrics records request counts and latencies per route. The route template
// (c.FullPath) is used instead of the raw URL to keep label cardinality low.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
