// Package server wires the relay's HTTP listener: routes, middleware
// chain, admission gate maintenance, and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"astro-natal/relay/pkg/audit"
	"astro-natal/relay/pkg/config"
	"astro-natal/relay/pkg/limits/admission"
	"astro-natal/relay/pkg/normalize"
	"astro-natal/relay/pkg/relay/handlers"
	"astro-natal/relay/pkg/relay/middleware"
	"astro-natal/relay/pkg/telemetry/metrics"
	"astro-natal/relay/pkg/upstream"
)

// Dependencies carries the already-constructed collaborators the server
// routes traffic through. Gate, Metrics, and Audit may be nil; the
// corresponding behavior is then disabled.
type Dependencies struct {
	Astro    *upstream.Client
	Geocoder *upstream.Geocoder
	Gate     *admission.MemoryGate
	Metrics  *metrics.Collector
	Audit    *audit.Store
	Version  string
}

// Server is the relay's HTTP front.
type Server struct {
	config       *config.Config
	deps         Dependencies
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates the relay server.
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	return &Server{
		config:       cfg,
		deps:         deps,
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until the context is cancelled,
// a termination signal arrives, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.Server.ListenAddress,
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	sweepDone := s.startGateSweeper(ctx)
	defer func() {
		// The sweeper watches shutdownChan, so unblock it before waiting.
		s.Stop()
		if sweepDone != nil {
			<-sweepDone
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting relay server",
			"address", s.config.Server.ListenAddress,
			"gate_enabled", s.deps.Gate != nil,
			"audit_enabled", s.deps.Audit != nil,
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Stop requests shutdown from another goroutine. Start returns once the
// listener has drained.
func (s *Server) Stop() {
	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
}

// Shutdown gracefully drains and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown",
			"timeout", s.config.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("relay server stopped")
	})

	return shutdownErr
}

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	observer := &handlers.Observer{
		Metrics: s.deps.Metrics,
		Audit:   s.deps.Audit,
	}
	defaults := normalize.Defaults{
		HouseSystem: s.config.Query.HouseSystem,
		Language:    s.config.Query.Language,
	}

	mux.Handle("/api/geocode", handlers.NewGeocodeHandler(s.deps.Geocoder, observer))
	for _, op := range []string{"planets", "wheel", "houses", "aspects"} {
		mux.Handle("/api/"+op, handlers.NewChartHandler(
			op, s.config.Astro.Paths[op], s.deps.Astro,
			defaults, s.config.Astro.BodyKeys, observer))
	}
	mux.Handle("/api/natal", handlers.NewNatalHandler(
		s.config.Astro.Paths["natal"], s.deps.Astro,
		s.config.Query.Language, observer))
	mux.Handle("/api/health", handlers.NewHealthHandler(s.deps.Version))

	if s.deps.Metrics != nil && s.metricsEnabled() {
		mux.Handle("/metrics", s.deps.Metrics.Handler())
	}

	var handler http.Handler = mux

	// Admission sits inside CORS so preflights never burn a slot, and
	// inside logging so rejections still produce a request log line.
	var gate admission.Gate
	if s.deps.Gate != nil {
		gate = s.deps.Gate
	}
	handler = middleware.AdmissionMiddleware(gate, s.deps.Metrics)(handler)
	handler = middleware.CORSMiddleware(middleware.DefaultCORSConfig())(handler)
	// Request ID wraps outside logging so the start/complete lines carry it.
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// Handler exposes the fully assembled route tree for tests.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

func (s *Server) metricsEnabled() bool {
	enabled := s.config.Telemetry.Metrics.Enabled
	return enabled == nil || *enabled
}

// startGateSweeper drops idle gate entries on the configured interval so
// the per-caller map does not grow without bound. The returned channel
// closes when the sweeper exits; nil means no sweeper was started.
func (s *Server) startGateSweeper(ctx context.Context) <-chan struct{} {
	if s.deps.Gate == nil || s.config.Gate.SweepInterval <= 0 {
		return nil
	}

	done := make(chan struct{})
	interval := s.config.Gate.SweepInterval

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.shutdownChan:
				return
			case <-ticker.C:
				if n := s.deps.Gate.Sweep(interval); n > 0 {
					slog.Debug("swept idle gate entries", "count", n)
				}
			}
		}
	}()

	return done
}
