// Package server exposes the catalog, accounts and the websocket feed loader
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"ytclone/catalog"
	"ytclone/config"
	"ytclone/internal/auth"
	"ytclone/internal/logger"
	"ytclone/internal/storage"
	"ytclone/metrics"
)

// Deps are the services the API serves.
type Deps struct {
	Catalog *catalog.Generator
	Store   storage.Store
	Auth    *auth.Service
	// Metrics may be nil; then nothing is recorded and no /metrics route is
	// mounted.
	Metrics *metrics.Registry
	Feed    config.FeedConfig
	Loader  config.LoaderConfig
	// MetricsPath defaults to /metrics.
	MetricsPath string
	// AllowedOrigins lists websocket origins. Empty allows same-host only.
	AllowedOrigins []string
	Version        string
}

// Server is the HTTP API server.
//
// Endpoints are listed in NewRouter. The server supports graceful shutdown
// through Start's context or Stop.
type Server struct {
	server       *http.Server
	config       config.ServerConfig
	shutdownOnce sync.Once

	mu       sync.Mutex
	listener net.Listener
}

// New creates a server in a stopped state. Call Start to begin serving.
func New(cfg config.ServerConfig, deps Deps) *Server {
	return &Server{
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewRouter(deps),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		config: cfg,
	}
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Addr returns the bound address once Start is listening, or the configured
// one before that.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// Start serves until ctx is cancelled or the listener fails. Cancellation
// triggers a graceful shutdown bounded by the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// ctx is already done; shutdown needs a fresh deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop shuts the server down gracefully. It is safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", logger.KeyErr, err)
			return
		}
		logger.Info("API server stopped gracefully")
	})
	return shutdownErr
}
