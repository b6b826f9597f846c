package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/content-review-api/internal/service"
)

type workspaceCounter interface {
	Len() int
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics    *service.MetricsService
	workspaces workspaceCounter
}

// NewMetricsHandler constructs a metrics handler. workspaces may be nil.
func NewMetricsHandler(metrics *service.MetricsService, workspaces workspaceCounter) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, workspaces: workspaces}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with liveness plus a few runtime counters.
func (h *MetricsHandler) Health(c *gin.Context) {
	payload := gin.H{"status": "ok", "runtime": h.metrics.Snapshot()}
	if h.workspaces != nil {
		payload["workspaces"] = h.workspaces.Len()
	}
	c.JSON(http.StatusOK, payload)
}
