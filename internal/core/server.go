// Package core provides the API chassis for linecast. It builds a chi router
// that serves both standard HTTP (local and container deployments) and AWS
// Lambda behind API Gateway, and it applies the cross-cutting middleware
// before requests reach the cost handlers.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"linecast/internal/config"
)

// Server holds every dependency of the HTTP API so tests can inject fakes.
type Server struct {
	Config         *config.Config
	Logger         *slog.Logger
	Validator      *Validator
	Metrics        MetricsCollector
	RateLimitStore RateLimitStore
	HealthProbes   []HealthProbe

	// V1RouteRegistrars are mounted under /v1 by MountRoutes. main.go fills
	// this so core never imports the handler packages.
	V1RouteRegistrars []func(chi.Router)

	closers []io.Closer
	router  *chi.Mux
}

// NewServer validates the critical dependencies and returns a server with an
// empty router. Call MountRoutes after injecting optional dependencies.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// OnShutdown registers a resource (database pool, metrics flusher) to be
// closed by Shutdown, in reverse registration order.
func (s *Server) OnShutdown(c io.Closer) {
	s.closers = append(s.closers, c)
}

// Shutdown closes every registered resource and returns the joined errors.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.InfoContext(ctx, "server shutdown initiated")

	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.Logger.ErrorContext(ctx, "error closing resource", "error", err)
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("closing server resources: %w", err)
	}

	s.Logger.InfoContext(ctx, "server shutdown complete")
	return nil
}
