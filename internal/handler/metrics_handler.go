package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sekundarstufe/stundenplan-core/internal/service"
)

// MetricsHandler exposes health and Prometheus endpoints.
type MetricsHandler struct {
	service *service.MetricsService
}

// NewMetricsHandler constructs the handler.
func NewMetricsHandler(svc *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{service: svc}
}

// Health godoc
// @Summary Health check
// @Tags Meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Health())
}

// Prometheus serves the scrape endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.service.PrometheusHandler().ServeHTTP(c.Writer, c.Request)
}
