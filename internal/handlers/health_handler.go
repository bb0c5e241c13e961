package handlers

import (
	"context"
	"net/http"
	"time"

	"reactivate/api/internal/models"
	"reactivate/api/internal/utils"
)

const (
	serviceName    = "reactivate-api"
	serviceVersion = "1.0.0"
)

type ReadinessCheck struct {
	Status  string `json:"status"` // "ok" | "failed"
	Message string `json:"message,omitempty"`
}

type ReadinessResponse struct {
	Status   string                    `json:"status"` // "ready" | "not_ready"
	Service  string                    `json:"service"`
	Instance string                    `json:"instance"`
	Checks   map[string]ReadinessCheck `json:"checks"`
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function, such as a redis ping, to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	store      Pinger
	redis      Pinger
	instanceID string
	timeout    time.Duration
}

// NewHealthHandler takes a nil redis when redis is not configured.
func NewHealthHandler(store Pinger, redis Pinger, instanceID string) *HealthHandler {
	return &HealthHandler{store: store, redis: redis, instanceID: instanceID, timeout: 2 * time.Second}
}

func (handler *HealthHandler) HealthHandler(writer http.ResponseWriter, request *http.Request) {
	utils.JSON(writer, http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Message: "Reactivate API is running",
	})
}

func (handler *HealthHandler) HealthzHandler(writer http.ResponseWriter, request *http.Request) {
	utils.JSON(writer, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
		"version": serviceVersion,
	})
}

func (handler *HealthHandler) ReadyzHandler(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), handler.timeout)
	defer cancel()

	checks := map[string]ReadinessCheck{"store": check(ctx, handler.store, "Store not initialized")}
	if handler.redis != nil {
		checks["redis"] = check(ctx, handler.redis, "")
	}

	response := ReadinessResponse{
		Status:   "ready",
		Service:  serviceName,
		Instance: handler.instanceID,
		Checks:   checks,
	}
	for _, c := range checks {
		if c.Status != "ok" {
			response.Status = "not_ready"
			utils.JSON(writer, http.StatusServiceUnavailable, response)
			return
		}
	}
	utils.JSON(writer, http.StatusOK, response)
}

func check(ctx context.Context, p Pinger, missing string) ReadinessCheck {
	if p == nil {
		return ReadinessCheck{Status: "failed", Message: missing}
	}
	if err := p.Ping(ctx); err != nil {
		return ReadinessCheck{Status: "failed", Message: err.Error()}
	}
	return ReadinessCheck{Status: "ok"}
}
