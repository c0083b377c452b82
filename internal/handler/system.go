package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"chatbot/internal/config"
	"chatbot/internal/httputil"
)

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves health and client configuration
type SystemHandler struct {
	db     Pinger
	flags  config.FeatureFlags
	logger *slog.Logger
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(db Pinger, flags config.FeatureFlags, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{db: db, flags: flags, logger: logger}
}

// HealthCheck reports whether the database answers
// GET /health
func (h *SystemHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", "error", err)
		httputil.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// FeatureFlags serializes the flags for client hydration
// GET /api/feature-flags
func (h *SystemHandler) FeatureFlags(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.flags)
}
