package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/studyplan-api/internal/service"
)

const unmatchedRoute = "unmatched"

// SlowRequestThreshold is the latency above which a request is logged as slow.
const SlowRequestThreshold = 2 * time.Second

// Metrics records request duration and status per route template. Requests
// that match no route share one label so scanners cannot grow the series
// count.
func Metrics(metricsSvc *service.MetricsService, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		done := metricsSvc.TrackInFlight()
		defer done()

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), elapsed)
		if elapsed > SlowRequestThreshold {
			logger.Warn("slow request", zap.String("route", route), zap.Duration("elapsed", elapsed))
		}
	}
}
