package middleware

import (
	"strconv"

	"github.com/dipandhali2021/jims-sub002/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics counts every handled request by method, route template and
// status.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}
