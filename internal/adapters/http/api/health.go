// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leaderforge/leaderforge/pkg/metrics"
)

// healthResponse mirrors the response schema for GET /healthz.
type healthResponse struct {
	Status   string `json:"status"`
	Database bool   `json:"database"`
	Cache    bool   `json:"cache"`
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps Dependencies
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps Dependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// HandleHealth handles GET /healthz requests. The database probe failing
// degrades the status but the endpoint itself stays 200 so orchestrators can
// read the body.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	health := h.deps.CheckHealth(r.Context())
	resp := healthResponse{
		Status:   "healthy",
		Database: health.Database,
		Cache:    health.Cache,
	}
	if health.Degraded() {
		resp.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}

// MetricsEndpointHandler serves the Prometheus registry on GET /metrics.
func MetricsEndpointHandler() http.HandlerFunc {
	handler := promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
	return handler.ServeHTTP
}
