package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/cable-health-service/internal/domain"
	"github.com/couchcryptid/cable-health-service/internal/healthcache"
)

// SnapshotSource evaluates the current cable health snapshot.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (domain.HealthSnapshot, error)
}

// Server exposes the cable health API plus health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	health     SnapshotSource
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /api/cable-health, /healthz, /readyz,
// and /metrics routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, health SnapshotSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		health: health,
		logger: logger,
	}

	mux.HandleFunc("GET /api/cable-health", s.handleCableHealth)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleCableHealth(w http.ResponseWriter, r *http.Request) {
	snap, err := s.health.Snapshot(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, healthcache.ErrUpstreamUnavailable) {
			status = http.StatusBadGateway
		}
		s.logger.Error("cable health request failed", "error", err, "status", status)
		sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	sharedobs.WriteJSON(w, http.StatusOK, snap)
}
