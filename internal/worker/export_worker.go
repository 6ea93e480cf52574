package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"caixa/internal/amqp"
	"caixa/internal/core"
	"caixa/internal/repo"
	"caixa/internal/services"
	"caixa/internal/sheets"
)

// ExportWorker re-exports month summaries to the external sheet. It is
// driven by AMQP month-changed messages, with a periodic pass over the
// calendar's current month as a backup in case messages are lost.
type ExportWorker struct {
	months     repo.MonthStore
	plans      repo.PlanStore
	specs      repo.CardSpecStore
	writer     sheets.SummaryWriter
	projection *services.ProjectionEngine
}

func NewExportWorker(months repo.MonthStore, plans repo.PlanStore, specs repo.CardSpecStore, writer sheets.SummaryWriter) *ExportWorker {
	return &ExportWorker{
		months:     months,
		plans:      plans,
		specs:      specs,
		writer:     writer,
		projection: services.NewProjectionEngine(),
	}
}

// HandleMonthChanged processes a single month-changed message.
func (w *ExportWorker) HandleMonthChanged(ctx context.Context, msg *amqp.MonthChangedMessage) error {
	key := core.MonthKey(msg.MonthKey)
	if err := key.Validate(); err != nil {
		// A malformed key will never become exportable; drop it.
		slog.ErrorContext(ctx, "Dropping message with invalid month key",
			"month_key", msg.MonthKey,
			"error", err)
		return nil
	}

	slog.InfoContext(ctx, "Processing month changed message",
		"month_key", key,
		"version", msg.Version)

	return w.ExportMonth(ctx, key)
}

// ExportMonth recomputes a month's summary from storage and writes it
// to the sheet. The sheet write replaces any earlier row for the month,
// so repeated exports are harmless.
func (w *ExportWorker) ExportMonth(ctx context.Context, key core.MonthKey) error {
	ledger, err := w.months.LoadMonth(ctx, key)
	if err != nil {
		return fmt.Errorf("load month %s: %w", key, err)
	}

	specs, err := w.specs.LoadCardSpecs(ctx)
	if err != nil {
		return fmt.Errorf("load card specs: %w", err)
	}

	charges := w.projection.ProjectCardCharges(key, specs)
	summary := core.ComputeSummary(ledger, charges)

	if err := w.writer.AppendMonthSummary(ctx, key, summary); err != nil {
		return fmt.Errorf("export summary of %s: %w", key, err)
	}

	slog.InfoContext(ctx, "Exported month summary",
		"month_key", key,
		"income_cents", summary.TotalIncome.Cents,
		"expenses_cents", summary.TotalExpenses.Cents,
		"closing_cash_cents", summary.ClosingCash.Cents)
	return nil
}

// RunPeriodic re-exports the calendar's current month on every tick
// until the context is cancelled. This is the catch-up path for missed
// messages and worker downtime.
func (w *ExportWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			key := core.CurrentMonthKey()
			if err := w.ExportMonth(ctx, key); err != nil {
				slog.ErrorContext(ctx, "Periodic export failed",
					"month_key", key,
					"error", err)
			}
		}
	}
}

// StartupExportCheck exports the current month once at worker startup
// to recover from downtime.
func (w *ExportWorker) StartupExportCheck(ctx context.Context) error {
	key := core.CurrentMonthKey()
	if err := w.ExportMonth(ctx, key); err != nil {
		return fmt.Errorf("startup export of %s: %w", key, err)
	}
	slog.InfoContext(ctx, "Startup export completed", "month_key", key)
	return nil
}
