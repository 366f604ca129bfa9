package handler

import (
	"context"
	"net/http"
	"time"
)

const (
	statusUp   = "up"
	statusDown = "down"
)

// handleHealth handles GET /health. It always answers 200 and reports the
// storage state in the body.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	db := h.checkStorage(r.Context())

	status := "healthy"
	if db.Status != statusUp {
		status = "unhealthy"
	}

	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Version:   h.build.Version,
		Uptime:    time.Since(h.started).Truncate(time.Second).String(),
		Services: map[string]DependencyStatus{
			"database": db,
			"api":      {Status: statusUp},
		},
	})
}

// handleLive handles GET /health/live.
func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, LiveResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC(),
	})
}

// handleReady handles GET /health/ready. It answers 503 while storage is
// unreachable.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	db := h.checkStorage(r.Context())

	status, code := "ready", http.StatusOK
	if db.Status != statusUp {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	h.writeJSON(w, r, code, ReadyResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Checks:    map[string]DependencyStatus{"database": db},
	})
}

func (h *Handler) checkStorage(ctx context.Context) DependencyStatus {
	ctx, cancel := context.WithTimeout(ctx, h.pingTimeout)
	defer cancel()

	start := time.Now()
	if err := h.todos.Ping(ctx); err != nil {
		return DependencyStatus{Status: statusDown, Error: err.Error()}
	}
	latency := time.Since(start).Milliseconds()
	return DependencyStatus{Status: statusUp, LatencyMS: &latency}
}
