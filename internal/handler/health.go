package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is anything whose liveness can be probed. Both stores satisfy it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the store is reachable.
type HealthHandler struct {
	store  Pinger
	logger *slog.Logger
}

func NewHealthHandler(store Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// HandleHealth pings the store with a short deadline.
//
// HTTP: GET /healthz
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		writeJSON(w, r, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Database: "down"})
		return
	}
	writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ok", Database: "up"})
}
