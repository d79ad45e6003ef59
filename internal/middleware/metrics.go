// Package middleware holds gin middleware tied to editor services.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/curriculum-tools/dataeditor/internal/service"
)

// Metrics returns middleware that times every editor request. The scrape and
// liveness endpoints are skipped so they do not drown out the editor
// operations.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if metricsSvc == nil || route == "/metrics" || route == "/health" {
			c.Next()
			return
		}
		start := time.Now()

		c.Next()

		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
