package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ytclone/catalog"
	"ytclone/config"
	"ytclone/internal/auth"
	"ytclone/internal/logger"
	"ytclone/internal/storage"
	"ytclone/metrics"
	"ytclone/server"
)

// sessionPurgeInterval is how often expired sign-in sessions are dropped.
const sessionPurgeInterval = time.Hour

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the HTTP API and the /ws/feed websocket endpoint.

The server runs in the foreground until interrupted, then drains open
requests for up to server.shutdown_timeout.

Examples:
  ytclone serve
  ytclone serve --addr :9090
  YTCLONE_FEED_LATENCY=0s ytclone serve --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := appConfig
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("store close error", logger.KeyErr, err)
		}
	}()

	accounts := auth.NewService(store,
		auth.WithSessionTTL(cfg.Auth.SessionTTL),
		auth.WithBcryptCost(cfg.Auth.BcryptCost),
	)
	if cfg.Auth.SeedDemo {
		if err := accounts.EnsureDemoUser(ctx); err != nil {
			return fmt.Errorf("seed demo user: %w", err)
		}
	}
	go purgeSessions(ctx, accounts)

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.New()
		logger.Info("Metrics enabled", "path", cfg.Metrics.Path)
	} else {
		logger.Info("Metrics collection disabled")
	}

	srv := server.New(cfg.Server, server.Deps{
		Catalog:        catalog.NewGenerator(cfg.Feed.Seed),
		Store:          store,
		Auth:           accounts,
		Metrics:        reg,
		Feed:           cfg.Feed,
		Loader:         cfg.Loader,
		MetricsPath:    cfg.Metrics.Path,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Version:        version,
	})

	logger.Info("Configuration loaded", "source", configSource(), "storage", storeSource(cfg.Storage))
	logger.Info("Server is running. Press Ctrl+C to stop.", "addr", cfg.Server.Addr)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// openStore opens the JSON store, or an in-memory one for an empty path.
func openStore(cfg config.StorageConfig) (*storage.JSONStore, error) {
	if cfg.Path == "" {
		return storage.NewMemoryStore(), nil
	}
	store, err := storage.NewJSONStore(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

func purgeSessions(ctx context.Context, accounts *auth.Service) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := accounts.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("session purge failed", logger.KeyErr, err)
				continue
			}
			if n > 0 {
				logger.Debug("expired sessions purged", "count", n)
			}
		}
	}
}

func configSource() string {
	if cfgFile != "" {
		return cfgFile
	}
	if _, err := os.Stat(config.DefaultPath()); err == nil {
		return config.DefaultPath()
	}
	return "defaults"
}

func storeSource(cfg config.StorageConfig) string {
	if cfg.Path == "" {
		return "memory"
	}
	return cfg.Path
}
