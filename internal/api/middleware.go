package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/posture-report/internal/logger"
)

// requestLogger logs each request with latency and status, and records the
// HTTP metrics. The route template (not the raw path) is used as the metric
// label to keep cardinality bounded.
func requestLogger(log logger.Logger, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		if metrics != nil {
			metrics.RequestsTotal.WithLabelValues(
				c.Request.Method, path, strconv.Itoa(status)).Inc()
			metrics.RequestDuration.WithLabelValues(
				c.Request.Method, path).Observe(latency.Seconds())
		}

		log.Info("http request",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", status),
			logger.String("latency", latency.String()),
			logger.String("client_ip", c.ClientIP()),
		)
	}
}
