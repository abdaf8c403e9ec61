package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	api "bikepulse/pkg/contracts/api/v1"
)

// StatsProvider returns a runtime snapshot
type StatsProvider interface {
	SystemStats(ctx context.Context) map[string]interface{}
}

// MetricsHandler serves runtime statistics as JSON. Prometheus metrics are
// scraped from /metrics instead.
type MetricsHandler struct {
	stats StatsProvider
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(stats StatsProvider) *MetricsHandler {
	return &MetricsHandler{stats: stats}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetStats)
	return r
}

// GetStats handles GET /api/system/stats
func (h *MetricsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.Success(h.stats.SystemStats(r.Context())))
}
