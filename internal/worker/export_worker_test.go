package worker

import (
	"context"
	"testing"

	"caixa/internal/amqp"
	"caixa/internal/core"
	repomem "caixa/internal/repo/memory"
	sheetmem "caixa/internal/sheets/memory"
)

func TestHandleMonthChangedExportsSummary(t *testing.T) {
	ctx := context.Background()
	store := repomem.New()
	sink := sheetmem.New()

	if err := store.SaveEntries(ctx, "2024-02", []core.Entry{{
		ID: "e1", Date: core.NewDate(2024, 2, 3), Platform: "iFood",
		Gross: core.Money{Cents: 250000},
	}}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveCardSpecs(ctx, []core.CardSpec{{
		ID: "s1", CardID: "nubank", Description: "tv",
		TotalValue: core.Money{Cents: 50000}, TotalInstallments: 5,
		StartMonth: "2024-01", DueDay: 8,
	}}); err != nil {
		t.Fatal(err)
	}

	w := NewExportWorker(store, store, store, sink)
	if err := w.HandleMonthChanged(ctx, &amqp.MonthChangedMessage{MonthKey: "2024-02", Version: 1}); err != nil {
		t.Fatalf("handle: %v", err)
	}

	row, ok := sink.Row("2024-02")
	if !ok {
		t.Fatal("no exported row for 2024-02")
	}
	if row.TotalIncome.Cents != 250000 {
		t.Errorf("exported income = %d", row.TotalIncome.Cents)
	}
	if len(row.Cards) != 1 || row.Cards[0].MonthlyCharge.Cents != 10000 {
		t.Errorf("exported card statements = %+v, want projected nubank charge", row.Cards)
	}
}

func TestHandleMonthChangedDropsInvalidKey(t *testing.T) {
	w := NewExportWorker(repomem.New(), repomem.New(), repomem.New(), sheetmem.New())

	// Invalid keys must be dropped, not requeued forever.
	if err := w.HandleMonthChanged(context.Background(), &amqp.MonthChangedMessage{MonthKey: "not-a-month"}); err != nil {
		t.Errorf("invalid key should be dropped silently, got %v", err)
	}
}

func TestExportMonthIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := repomem.New()
	sink := sheetmem.New()
	w := NewExportWorker(store, store, store, sink)

	for i := 0; i < 3; i++ {
		if err := w.ExportMonth(ctx, "2024-04"); err != nil {
			t.Fatalf("export %d: %v", i, err)
		}
	}
	if sink.Len() != 1 {
		t.Errorf("exported rows = %d, want 1", sink.Len())
	}
}
