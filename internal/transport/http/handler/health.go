package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Pinger checks one backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler reports whether the API and its dependencies respond.
type HealthHandler struct {
	checks map[string]Pinger
	logger *logrus.Logger
}

func NewHealthHandler(checks map[string]Pinger, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, logger: logger}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	for name, c := range h.checks {
		if err := c.Ping(ctx); err != nil {
			h.logger.WithError(err).WithField("dependency", name).Warn("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, Envelope{Status: "degraded", Message: name + " is unavailable."})
			return
		}
	}
	writeOK(w, Envelope{Status: "ok"})
}
