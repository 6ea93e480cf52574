package memory

import (
	"context"
	"testing"

	"caixa/internal/core"
)

func TestAppendReplacesSameMonth(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.AppendMonthSummary(ctx, "2024-01", core.MonthSummary{TotalIncome: core.Money{Cents: 100}}); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendMonthSummary(ctx, "2024-01", core.MonthSummary{TotalIncome: core.Money{Cents: 200}}); err != nil {
		t.Fatal(err)
	}

	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
	row, ok := s.Row("2024-01")
	if !ok || row.TotalIncome.Cents != 200 {
		t.Errorf("row = (%+v, %v), want replaced income 200", row, ok)
	}
	if _, ok := s.Row("2024-02"); ok {
		t.Error("unexpected row for 2024-02")
	}
}
