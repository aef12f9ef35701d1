package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"graphgate/application/ports"
	"graphgate/infrastructure/persistence/connection"
	apperrors "graphgate/pkg/errors"
)

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
	conns      connection.Manager[ports.Store]
	timeout    time.Duration
	errHandler *apperrors.ErrorHandler
	logger     *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(conns connection.Manager[ports.Store], timeout time.Duration, errHandler *apperrors.ErrorHandler, logger *zap.Logger) *HealthHandler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthHandler{conns: conns, timeout: timeout, errHandler: errHandler, logger: logger}
}

// Health handles health check requests
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready pings the store through a lease.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	backend, err := connection.With(ctx, h.conns, func(ctx context.Context, s ports.Store) (string, error) {
		return s.Backend(), s.Ping(ctx)
	})
	if err != nil {
		h.logger.Warn("Readiness check failed", zap.Error(err))
		h.errHandler.Handle(w, r, apperrors.NewUnavailableError("store").WithCause(err))
		return
	}
	writeStatus(w, http.StatusOK, map[string]string{"status": "ready", "backend": backend})
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
