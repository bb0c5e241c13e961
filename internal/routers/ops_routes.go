package routers

import (
	"reactivate/api/internal/handlers"
	"reactivate/api/internal/metrics"
	"reactivate/api/internal/stream"

	"github.com/go-chi/chi/v5"
)

func HealthRoutes(r chi.Router, healthHandler *handlers.HealthHandler) {
	r.Get("/health", healthHandler.HealthHandler)
	r.Get("/healthz", healthHandler.HealthzHandler)
	r.Get("/readyz", healthHandler.ReadyzHandler)
}

func MetricsRoutes(r chi.Router) {
	r.Handle("/metrics", metrics.Handler())
}

// StreamRoutes registers the leaderboard websocket.
func StreamRoutes(r chi.Router, hub *stream.Hub) {
	r.Get("/ws/leaderboard", hub.ServeWS)
}
