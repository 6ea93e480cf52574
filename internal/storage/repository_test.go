package storage

import (
	"context"
	"path/filepath"
	"testing"

	"caixa/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "caixa.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestLoadMonthEmptyDefault(t *testing.T) {
	repo := newTestRepo(t)

	l, err := repo.LoadMonth(context.Background(), "2024-01")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if l.MonthKey != "2024-01" || len(l.Entries) != 0 || l.OpeningCashSet {
		t.Errorf("expected empty-default ledger, got %+v", l)
	}
}

func TestMonthRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	entries := []core.Entry{{
		ID: "e1", Date: core.NewDate(2024, 1, 5), Platform: "iFood",
		Gross: core.Money{Cents: 15000}, DistanceKm: 42.5, Hours: 6,
		FuelCost: core.Money{Cents: 2000}, OtherCost: core.Money{Cents: 300},
	}}
	if err := repo.SaveEntries(ctx, "2024-01", entries); err != nil {
		t.Fatalf("save entries: %v", err)
	}

	fixed := []core.FixedExpenseInstance{{
		ID: "f1", MasterID: "p1", Description: "phone (3/10)", Category: "Parcelas",
		Payment: core.Card("nubank"), Value: core.Money{Cents: 20000},
		InstallmentIndex: 3, TotalInstallments: 10, IsProjected: true, IsPaid: true,
	}}
	if err := repo.SaveFixedExpenses(ctx, "2024-01", fixed); err != nil {
		t.Fatalf("save fixed: %v", err)
	}

	cards := map[string]core.CardState{"nubank": {
		OpeningBalance: core.Money{Cents: 50000},
		MonthlyCharge:  core.Money{Cents: 20000},
	}}
	if err := repo.SaveCards(ctx, "2024-01", cards); err != nil {
		t.Fatalf("save cards: %v", err)
	}

	meta := core.MonthMeta{
		OpeningCash:    core.Money{Cents: 123},
		OpeningCashSet: true,
		ClosingCash:    core.Money{Cents: 456},
	}
	if err := repo.SaveMeta(ctx, "2024-01", meta); err != nil {
		t.Fatalf("save meta: %v", err)
	}

	l, err := repo.LoadMonth(ctx, "2024-01")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(l.Entries) != 1 {
		t.Fatalf("entries = %+v", l.Entries)
	}
	e := l.Entries[0]
	if e.ID != "e1" || e.Platform != "iFood" || e.Gross.Cents != 15000 ||
		e.DistanceKm != 42.5 || e.FuelCost.Cents != 2000 {
		t.Errorf("entry round trip mismatch: %+v", e)
	}
	if !e.Date.Equal(core.NewDate(2024, 1, 5).Time) {
		t.Errorf("entry date = %v", e.Date)
	}
	if len(l.FixedExpenses) != 1 {
		t.Fatalf("fixed = %+v", l.FixedExpenses)
	}
	f := l.FixedExpenses[0]
	if f.MasterID != "p1" || !f.IsPaid || !f.IsProjected || f.InstallmentIndex != 3 ||
		f.Payment.Kind != core.PaymentCard || f.Payment.CardID != "nubank" {
		t.Errorf("fixed round trip mismatch: %+v", f)
	}
	if l.Cards["nubank"].OpeningBalance.Cents != 50000 {
		t.Errorf("cards = %+v", l.Cards)
	}
	if !l.OpeningCashSet || l.OpeningCash.Cents != 123 || l.ClosingCash.Cents != 456 {
		t.Errorf("meta = %+v", l.Meta())
	}

	// Saving again replaces, never appends.
	if err := repo.SaveEntries(ctx, "2024-01", nil); err != nil {
		t.Fatalf("clear entries: %v", err)
	}
	l, _ = repo.LoadMonth(ctx, "2024-01")
	if len(l.Entries) != 0 {
		t.Errorf("save must replace the sub-object, got %+v", l.Entries)
	}
}

func TestLoadClosingCashAbsentAndPresent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, ok, err := repo.LoadClosingCash(ctx, "2024-01"); err != nil || ok {
		t.Fatalf("expected absent closing cash, got ok=%v err=%v", ok, err)
	}
	if err := repo.SaveMeta(ctx, "2024-01", core.MonthMeta{ClosingCash: core.Money{Cents: 999}}); err != nil {
		t.Fatal(err)
	}
	amount, ok, err := repo.LoadClosingCash(ctx, "2024-01")
	if err != nil || !ok || amount.Cents != 999 {
		t.Errorf("closing cash = (%d, %v, %v)", amount.Cents, ok, err)
	}
}

func TestPlansAndSpecsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	plans := map[string]core.MasterPlan{"p1": {
		ID: "p1", Description: "rent", Category: "Moradia/Aluguel",
		Payment: core.Cash(), Value: core.Money{Cents: 80000},
		Recurrence: core.RecurrenceMonthly, StartMonth: "2024-01", DueDay: 5,
	}}
	if err := repo.SavePlans(ctx, plans); err != nil {
		t.Fatalf("save plans: %v", err)
	}
	got, err := repo.LoadPlans(ctx)
	if err != nil {
		t.Fatalf("load plans: %v", err)
	}
	if len(got) != 1 || got["p1"].Recurrence != core.RecurrenceMonthly || got["p1"].StartMonth != "2024-01" {
		t.Errorf("plans = %+v", got)
	}

	specs := []core.CardSpec{{
		ID: "s1", CardID: "nubank", Description: "tv",
		TotalValue: core.Money{Cents: 50000}, TotalInstallments: 5,
		StartMonth: "2024-02", DueDay: 8,
	}}
	if err := repo.SaveCardSpecs(ctx, specs); err != nil {
		t.Fatalf("save specs: %v", err)
	}
	gotSpecs, err := repo.LoadCardSpecs(ctx)
	if err != nil {
		t.Fatalf("load specs: %v", err)
	}
	if len(gotSpecs) != 1 || gotSpecs[0].CardID != "nubank" || gotSpecs[0].StartMonth != "2024-02" {
		t.Errorf("specs = %+v", gotSpecs)
	}
}
