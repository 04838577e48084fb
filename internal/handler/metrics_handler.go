package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nexskill/institute-api/internal/service"
)

// MetricsHandler serves the Prometheus scrape target and the health probe.
type MetricsHandler struct {
	metrics *service.MetricsService
	started time.Time
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, started: time.Now().UTC()}
}

// Prometheus serves the scrape endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health is the liveness probe. It answers as long as the process is up.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

const readyCheckTimeout = 2 * time.Second

// Ready builds the readiness probe from named dependency checks. It reports
// 503 with the first failing dependency.
func (h *MetricsHandler) Ready(checks map[string]func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		for name, check := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), readyCheckTimeout)
			err := check(ctx)
			cancel()
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":     "unavailable",
					"dependency": name,
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
