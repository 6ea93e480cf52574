package services

import (
	"strings"
	"testing"

	"caixa/internal/core"
)

func installmentPlan(id string, paid int) core.MasterPlan {
	return core.MasterPlan{
		ID:                id,
		Description:       "phone",
		Category:          "Parcelas",
		Payment:           core.Cash(),
		Value:             core.Money{Cents: 20000},
		Recurrence:        core.RecurrenceInstallment,
		TotalInstallments: 10,
		PaidInstallments:  paid,
		StartMonth:        "2024-01",
		DueDay:            10,
	}
}

func TestProjectInstallmentWindow(t *testing.T) {
	engine := NewProjectionEngine()
	plans := map[string]core.MasterPlan{"p1": installmentPlan("p1", 0)}

	tests := []struct {
		month   core.MonthKey
		wantN   int
		wantIdx int
	}{
		{"2023-12", 0, 0}, // before start
		{"2024-01", 1, 1},
		{"2024-05", 1, 5},
		{"2024-10", 1, 10}, // last installment
		{"2024-11", 0, 0},  // past the end
	}

	for _, tt := range tests {
		t.Run(string(tt.month), func(t *testing.T) {
			got := engine.Project(tt.month, plans)
			if len(got) != tt.wantN {
				t.Fatalf("Project(%s) produced %d instances, want %d", tt.month, len(got), tt.wantN)
			}
			if tt.wantN == 1 && got[0].InstallmentIndex != tt.wantIdx {
				t.Errorf("installment index = %d, want %d", got[0].InstallmentIndex, tt.wantIdx)
			}
		})
	}
}

func TestProjectSkipsSettledInstallments(t *testing.T) {
	engine := NewProjectionEngine()
	plans := map[string]core.MasterPlan{"p1": installmentPlan("p1", 3)}

	// Installment 3 of month 2024-03 is already settled as paid.
	if got := engine.Project("2024-03", plans); len(got) != 0 {
		t.Errorf("settled installment must not re-project, got %+v", got)
	}
	// Installment 4 is still due.
	got := engine.Project("2024-04", plans)
	if len(got) != 1 || got[0].InstallmentIndex != 4 {
		t.Fatalf("Project(2024-04) = %+v, want installment 4", got)
	}
	if !strings.HasSuffix(got[0].Description, "(4/10)") {
		t.Errorf("description = %q, want (4/10) suffix", got[0].Description)
	}
	if !got[0].IsProjected || got[0].IsPaid {
		t.Error("projected instance must start unpaid")
	}
}

func TestProjectMonthlyStartsAtStartMonth(t *testing.T) {
	engine := NewProjectionEngine()
	plans := map[string]core.MasterPlan{"rent": {
		ID: "rent", Description: "rent", Category: "Moradia/Aluguel",
		Payment: core.Cash(), Value: core.Money{Cents: 80000},
		Recurrence: core.RecurrenceMonthly, StartMonth: "2024-03", DueDay: 5,
	}}

	if got := engine.Project("2024-02", plans); len(got) != 0 {
		t.Errorf("monthly plan must not project before its start month")
	}
	for _, month := range []core.MonthKey{"2024-03", "2025-07"} {
		got := engine.Project(month, plans)
		if len(got) != 1 || got[0].Description != "rent" {
			t.Errorf("Project(%s) = %+v, want one rent instance", month, got)
		}
	}
}

func TestProjectDeterministicOrder(t *testing.T) {
	engine := NewProjectionEngine()
	plans := map[string]core.MasterPlan{
		"b": {ID: "b", Description: "water", Category: "Contas Fixas", Payment: core.Cash(),
			Value: core.Money{Cents: 100}, Recurrence: core.RecurrenceMonthly, StartMonth: "2024-01", DueDay: 1},
		"a": {ID: "a", Description: "energy", Category: "Contas Fixas", Payment: core.Cash(),
			Value: core.Money{Cents: 100}, Recurrence: core.RecurrenceMonthly, StartMonth: "2024-01", DueDay: 1},
	}

	for i := 0; i < 5; i++ {
		got := engine.Project("2024-06", plans)
		if len(got) != 2 || got[0].Description != "energy" || got[1].Description != "water" {
			t.Fatalf("unstable projection order: %+v", got)
		}
	}
}

func TestProjectCardCharges(t *testing.T) {
	engine := NewProjectionEngine()
	specs := []core.CardSpec{
		{ID: "s1", CardID: "nubank", Description: "tv", TotalValue: core.Money{Cents: 50000},
			TotalInstallments: 5, StartMonth: "2024-01", DueDay: 8},
		{ID: "s2", CardID: "nubank", Description: "chair", TotalValue: core.Money{Cents: 30000},
			TotalInstallments: 3, StartMonth: "2024-02", DueDay: 8},
		{ID: "s3", CardID: "inter", Description: "helmet", TotalValue: core.Money{Cents: 20000},
			TotalInstallments: 2, StartMonth: "2024-01", DueDay: 8},
	}

	charges := engine.ProjectCardCharges("2024-02", specs)
	if got := charges["nubank"].Cents; got != 20000 {
		t.Errorf("nubank charge = %d, want 10000+10000", got)
	}
	if got := charges["inter"].Cents; got != 10000 {
		t.Errorf("inter charge = %d, want 10000", got)
	}

	// All specs expired by 2024-06.
	if charges := engine.ProjectCardCharges("2024-06", specs); charges != nil {
		t.Errorf("expected no charges, got %+v", charges)
	}
}
