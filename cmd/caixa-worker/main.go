// Command caixa-worker consumes month-changed messages and exports
// month summaries to the configured spreadsheet.
package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"caixa/internal/amqp"
	"caixa/internal/cli"
	"caixa/internal/sheets"
	"caixa/internal/sheets/google"
	sheetmem "caixa/internal/sheets/memory"
	"caixa/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap("caixa-worker")

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

	var writer sheets.SummaryWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := google.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize sheets client", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Exporting to Google Sheets", "sheet", cfg.GoogleSheetName)
	} else {
		writer = sheetmem.New()
		logger.Warn("No spreadsheet configured, exports stay in memory")
	}

	w := worker.NewExportWorker(result.Backend, result.Backend, result.Backend, writer)

	if err := w.StartupExportCheck(ctx); err != nil {
		logger.Error("Startup export failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if result.AMQP != nil {
		g.Go(func() error {
			return result.AMQP.ConsumeMonthChanged(gctx, func(msg *amqp.MonthChangedMessage) error {
				return w.HandleMonthChanged(gctx, msg)
			})
		})
	} else {
		logger.Warn("AMQP not available, relying on periodic export only")
	}

	g.Go(func() error {
		return w.RunPeriodic(gctx, cfg.ExportInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}

	if result.AMQP != nil {
		if err := result.AMQP.Close(); err != nil {
			logger.Error("AMQP close failed", "error", err)
		}
	}
	logger.Info("Shutdown complete")
}
