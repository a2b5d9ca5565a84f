package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dtroode/passkeeper-server/internal/api/rest/response"
	"github.com/dtroode/passkeeper-server/internal/logger"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health serves the liveness probe.
type Health struct {
	db     Pinger
	logger *logger.Logger
}

func NewHealth(db Pinger, logger *logger.Logger) *Health {
	return &Health{db: db, logger: logger}
}

func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("Health handler: database unreachable", "error", err.Error())
		response.WriteError(w, response.ErrServiceUnavailable)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
