package transport

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const probeTimeout = 2 * time.Second

// Pinger probes a single dependency
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler reports liveness and dependency health
type HealthHandler struct {
	probes map[string]Pinger
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler probing each named dependency
func NewHealthHandler(probes map[string]Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		probes: probes,
		logger: logger,
	}
}

// RegisterRoutes registers the self check and health routes
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.SelfCheck)
	r.Get("/health", h.Health)
}

func (h *HealthHandler) SelfCheck(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "storefront api v1"})
}

// Health probes every dependency concurrently. Any failing probe makes the
// response 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	results := make([]string, len(names))

	var g errgroup.Group
	for i, name := range names {
		probe := h.probes[name]
		g.Go(func() error {
			if err := probe.Ping(ctx); err != nil {
				h.logger.Warn("Health probe failed", zap.String("dependency", name), zap.Error(err))
				results[i] = "down"
				return err
			}
			results[i] = "up"
			return nil
		})
	}
	err := g.Wait()

	checks := make(map[string]string, len(names))
	for i, name := range names {
		checks[name] = results[i]
	}

	status, code := "ok", http.StatusOK
	if err != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	middleware.RespondWithJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
