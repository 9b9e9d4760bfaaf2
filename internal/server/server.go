// Package server exposes the layout pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dhuston/livingmap/pkg/pipeline"
	"github.com/dhuston/livingmap/pkg/sim"
	"github.com/dhuston/livingmap/pkg/store"
)

// Server wires the router, pipeline runner, and snapshot store.
type Server struct {
	runner         *pipeline.Runner
	snapshots      store.SnapshotStore
	logger         *log.Logger
	metrics        http.Handler
	layoutDefaults sim.Settings

	http *http.Server
}

// Options configures the server.
type Options struct {
	Addr           string
	Runner         *pipeline.Runner
	Snapshots      store.SnapshotStore
	Logger         *log.Logger
	MetricsHandler http.Handler

	// LayoutDefaults is the settings baseline requests are overlaid on,
	// typically config file values. Zero means engine defaults.
	LayoutDefaults sim.Settings
}

// New builds the server and its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.LayoutDefaults == (sim.Settings{}) {
		opts.LayoutDefaults = sim.DefaultSettings()
	}
	s := &Server{
		runner:         opts.Runner,
		snapshots:      opts.Snapshots,
		logger:         opts.Logger,
		metrics:        opts.MetricsHandler,
		layoutDefaults: opts.LayoutDefaults,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/render", s.handleRender)
		r.Delete("/views/{viewID}/snapshot", s.handleDeleteSnapshot)
	})

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully within
// the given timeout.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
