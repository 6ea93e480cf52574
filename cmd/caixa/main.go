// Command caixa serves the monthly ledger API and browser UI.
package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"caixa/internal/cli"
	httpserver "caixa/internal/http"
	"caixa/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap("caixa")

	ctx, stop := cli.ShutdownContext()
	defer stop()

	result := cli.OpenBackend(ctx, cfg, logger)
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}
	}()

	ledger := services.NewLedgerService(result.Backend, result.Backend, result.Backend, result.AMQP)
	if _, err := ledger.Open(ctx); err != nil {
		logger.Error("Failed to open current month", "error", err)
		os.Exit(1)
	}
	logger.Info("Opened month", "month_key", ledger.CurrentMonth())

	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		logger.Error("Invalid port", "port", cfg.Port, "error", err)
		os.Exit(1)
	}
	srv := httpserver.NewServer(httpserver.Config{
		Port:              port,
		RequestsPerMinute: 60,
		ViewCacheTTL:      30 * time.Second,
		ViewCacheSize:     64,
	}, ledger)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
		return
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.GraceTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	// Close settles the open month so paid installments advance their
	// plans before the process exits.
	if err := ledger.Close(shutdownCtx); err != nil {
		logger.Error("Ledger close failed", "error", err)
	}
	logger.Info("Shutdown complete")
}
