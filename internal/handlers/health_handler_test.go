package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reactivate/api/internal/handlers"
	"reactivate/api/internal/models"
)

func okPing(context.Context) error { return nil }

func TestHealthHandler(t *testing.T) {
	h := handlers.NewHealthHandler(handlers.PingFunc(okPing), nil, "abc123")
	rr := httptest.NewRecorder()
	h.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var got models.HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if got.Status != "healthy" || got.Message != "Reactivate API is running" {
		t.Fatalf("unexpected health: %+v", got)
	}
}

func TestHealthzHandler(t *testing.T) {
	h := handlers.NewHealthHandler(nil, nil, "")
	rr := httptest.NewRecorder()
	h.HealthzHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var got map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if rr.Code != http.StatusOK || got["status"] != "ok" || got["service"] == "" {
		t.Fatalf("unexpected healthz: %d %v", rr.Code, got)
	}
}

func TestReadyzHandler(t *testing.T) {
	failing := handlers.PingFunc(func(context.Context) error { return errors.New("dial tcp: refused") })

	cases := []struct {
		name   string
		store  handlers.Pinger
		redis  handlers.Pinger
		status int
		checks map[string]string
	}{
		{"store only", handlers.PingFunc(okPing), nil, http.StatusOK, map[string]string{"store": "ok"}},
		{"store and redis", handlers.PingFunc(okPing), handlers.PingFunc(okPing), http.StatusOK, map[string]string{"store": "ok", "redis": "ok"}},
		{"redis down", handlers.PingFunc(okPing), failing, http.StatusServiceUnavailable, map[string]string{"store": "ok", "redis": "failed"}},
		{"store down", failing, nil, http.StatusServiceUnavailable, map[string]string{"store": "failed"}},
		{"no store", nil, nil, http.StatusServiceUnavailable, map[string]string{"store": "failed"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(tc.store, tc.redis, "abc123")
			rr := httptest.NewRecorder()
			h.ReadyzHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			var got handlers.ReadinessResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
				t.Fatalf("bad JSON: %v", err)
			}
			if got.Instance != "abc123" {
				t.Fatalf("expected instance id, got %q", got.Instance)
			}
			if len(got.Checks) != len(tc.checks) {
				t.Fatalf("unexpected checks: %+v", got.Checks)
			}
			for name, status := range tc.checks {
				if got.Checks[name].Status != status {
					t.Fatalf("check %s: expected %s, got %+v", name, status, got.Checks[name])
				}
			}
			wantStatus := "ready"
			if tc.status != http.StatusOK {
				wantStatus = "not_ready"
			}
			if got.Status != wantStatus {
				t.Fatalf("expected %s, got %s", wantStatus, got.Status)
			}
		})
	}
}
