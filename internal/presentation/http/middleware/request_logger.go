package middleware

import (
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
)

// RequestLogger logs each request on the http channel and records it with
// the performance tracker.
func RequestLogger(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		marker := perfTracker.StartOperation("http_request", GetVisitorID(c))
		marker.AddMetadata("method", c.Request.Method)
		marker.AddMetadata("route", c.FullPath())

		c.Next()

		status := c.Writer.Status()
		marker.SetSuccess(status < 500)
		marker.Complete()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"clientIp", c.ClientIP(),
		}
		if id := GetVisitorID(c); id != "" {
			attrs = append(attrs, "visitorId", id)
		}
		switch {
		case status >= 500:
			logger.HTTP().Error("Request failed", attrs...)
		case status >= 400:
			logger.HTTP().Warn("Request rejected", attrs...)
		default:
			logger.HTTP().Debug("Request completed", attrs...)
		}
	}
}
