package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/faxlab-academy-api/internal/service"
)

// Metrics records request latency, status and in-flight count. Paths listed in skip
// (typically the scrape endpoint) are served without instrumentation.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	ignored := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		ignored[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		if _, ok := ignored[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		release := metricsSvc.TrackInFlight()
		defer release()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
