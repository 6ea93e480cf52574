// Package cli consolidates the startup steps shared by cmd/caixa and
// cmd/caixa-worker.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"caixa/internal/backend"
	"caixa/internal/config"
	"caixa/internal/log"
)

// Bootstrap loads the optional .env file, configures logging, and
// returns the validated configuration. Exits the process when the
// configuration is unusable.
func Bootstrap(component string) (*config.Config, *slog.Logger) {
	// Missing .env is fine; production sets real environment variables.
	_ = godotenv.Load()

	logger := log.Setup(component, os.Getenv("LOG_LEVEL"))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenBackend builds the storage backend (and its optional AMQP client)
// from configuration. Exits the process on failure.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) *backend.BackendResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return result
}

// ShutdownContext returns a context cancelled by SIGINT or SIGTERM.
func ShutdownContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// GraceTimeout bounds how long shutdown cleanup may run after a signal.
const GraceTimeout = 15 * time.Second
