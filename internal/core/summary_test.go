package core

import "testing"

func ledgerWith(key MonthKey) *MonthlyLedger {
	l := NewMonthlyLedger(key)
	l.OpeningCash = Money{}
	l.OpeningCashSet = true
	return l
}

func TestComputeSummaryUnpaidFixedDoesNotDrainCash(t *testing.T) {
	// Income 4000, cash variable 500, one unpaid fixed instance of 300.
	l := ledgerWith("2024-01")
	l.Entries = []Entry{{
		ID: "e1", Date: NewDate(2024, 1, 5), Platform: "Uber Moto",
		Gross: Money{Cents: 400000},
	}}
	l.VariableExpenses = []VariableExpense{{
		ID: "v1", Date: NewDate(2024, 1, 6), Category: "Alimentação",
		Description: "market", Payment: Cash(), Value: Money{Cents: 50000},
	}}
	l.FixedExpenses = []FixedExpenseInstance{{
		ID: "f1", Description: "internet", Category: "Contas Fixas",
		Payment: Cash(), Value: Money{Cents: 30000},
	}}

	s := ComputeSummary(l, nil)
	if s.TotalIncome.Cents != 400000 {
		t.Errorf("income = %d", s.TotalIncome.Cents)
	}
	if s.ProjectedFixed.Cents != 30000 {
		t.Errorf("projected fixed = %d, want 30000", s.ProjectedFixed.Cents)
	}
	if s.DilutedFixed.Cents != 0 {
		t.Errorf("diluted fixed = %d, want 0", s.DilutedFixed.Cents)
	}
	if want := int64(400000 - 50000); s.ClosingCash.Cents != want {
		t.Errorf("closing cash = %d, want %d", s.ClosingCash.Cents, want)
	}
	if s.TotalExpenses.Cents != 50000 {
		t.Errorf("total expenses = %d, want 50000", s.TotalExpenses.Cents)
	}
}

func TestComputeSummaryTogglePaidMovesExactlyInstanceValue(t *testing.T) {
	l := ledgerWith("2024-02")
	l.FixedExpenses = []FixedExpenseInstance{{
		ID: "f1", Description: "rent", Category: "Moradia/Aluguel",
		Payment: Cash(), Value: Money{Cents: 80000},
	}}

	before := ComputeSummary(l, nil)
	l.FixedExpenses[0].IsPaid = true
	after := ComputeSummary(l, nil)

	if diff := before.ClosingCash.Cents - after.ClosingCash.Cents; diff != 80000 {
		t.Errorf("closing cash moved by %d, want 80000", diff)
	}
	if diff := after.TotalExpenses.Cents - before.TotalExpenses.Cents; diff != 80000 {
		t.Errorf("total expenses moved by %d, want 80000", diff)
	}
	if before.ProjectedFixed != after.ProjectedFixed {
		t.Error("projected fixed must not change when toggling paid")
	}
}

func TestComputeSummaryPaidCardFixedAccruesToStatementNotCash(t *testing.T) {
	l := ledgerWith("2024-03")
	l.Entries = []Entry{{
		ID: "e1", Date: NewDate(2024, 3, 2), Platform: "Shopee",
		Gross: Money{Cents: 100000},
	}}
	l.FixedExpenses = []FixedExpenseInstance{{
		ID: "f1", Description: "subscription", Category: "Assinaturas",
		Payment: Card("card-1"), Value: Money{Cents: 4000}, IsPaid: true,
	}}

	s := ComputeSummary(l, nil)
	if s.ClosingCash.Cents != 100000 {
		t.Errorf("closing cash = %d; card-paid fixed must not reduce cash", s.ClosingCash.Cents)
	}
	if s.TotalExpenses.Cents != 4000 {
		t.Errorf("total expenses = %d, want 4000", s.TotalExpenses.Cents)
	}
	if len(s.Cards) != 1 || s.Cards[0].MonthlyCharge.Cents != 4000 {
		t.Fatalf("card statement = %+v, want card-1 charge 4000", s.Cards)
	}
}

func TestComputeSummaryCardSpecSupersedesManualCharges(t *testing.T) {
	l := ledgerWith("2024-03")
	l.Cards["card-x"] = CardState{OpeningBalance: Money{Cents: 20000}}
	l.VariableExpenses = []VariableExpense{{
		ID: "v1", Date: NewDate(2024, 3, 8), Category: "Pessoal",
		Description: "shoes", Payment: Card("card-x"), Value: Money{Cents: 15000},
	}}

	charges := map[string]Money{"card-x": {Cents: 10000}}
	s := ComputeSummary(l, charges)

	var st *CardStatement
	for i := range s.Cards {
		if s.Cards[i].CardID == "card-x" {
			st = &s.Cards[i]
		}
	}
	if st == nil {
		t.Fatal("missing statement for card-x")
	}
	if st.MonthlyCharge.Cents != 10000 {
		t.Errorf("monthly charge = %d, want projection 10000 to replace manual 15000", st.MonthlyCharge.Cents)
	}
	if !st.Projected {
		t.Error("statement should be flagged as projected")
	}
	if st.StatementTotal.Cents != 30000 {
		t.Errorf("statement total = %d, want opening 20000 + 10000", st.StatementTotal.Cents)
	}
	// The variable expense still counts into total expenses.
	if s.TotalExpenses.Cents != 15000 {
		t.Errorf("total expenses = %d, want 15000", s.TotalExpenses.Cents)
	}
}

func TestComputeSummaryOperationalCostsAlwaysCash(t *testing.T) {
	l := ledgerWith("2024-04")
	l.OpeningCash = Money{Cents: 100000}
	l.Entries = []Entry{{
		ID: "e1", Date: NewDate(2024, 4, 1), Platform: "99 Moto",
		Gross: Money{Cents: 50000}, DistanceKm: 120.5, Hours: 8,
		FuelCost: Money{Cents: 7000}, OtherCost: Money{Cents: 1000},
	}}

	s := ComputeSummary(l, nil)
	if s.OperationalOutflow.Cents != 8000 {
		t.Errorf("operational outflow = %d, want 8000", s.OperationalOutflow.Cents)
	}
	if want := int64(100000 + 50000 - 8000); s.ClosingCash.Cents != want {
		t.Errorf("closing cash = %d, want %d", s.ClosingCash.Cents, want)
	}
	if s.TotalDistanceKm != 120.5 || s.TotalHours != 8 {
		t.Errorf("km/hours = %v/%v", s.TotalDistanceKm, s.TotalHours)
	}
	if s.NetProfit.Cents != 42000 {
		t.Errorf("net profit = %d, want 42000", s.NetProfit.Cents)
	}
}

func TestApplySummary(t *testing.T) {
	l := ledgerWith("2024-05")
	l.Cards["card-1"] = CardState{OpeningBalance: Money{Cents: 5000}}
	l.VariableExpenses = []VariableExpense{{
		ID: "v1", Date: NewDate(2024, 5, 3), Category: "Pessoal",
		Description: "gift", Payment: Card("card-1"), Value: Money{Cents: 2500},
	}}

	s := ComputeSummary(l, nil)
	ApplySummary(l, s)

	if l.ClosingCash != s.ClosingCash {
		t.Error("closing cash not applied to ledger")
	}
	if l.Cards["card-1"].MonthlyCharge.Cents != 2500 {
		t.Errorf("card monthly charge = %d, want 2500", l.Cards["card-1"].MonthlyCharge.Cents)
	}
	if l.Cards["card-1"].OpeningBalance.Cents != 5000 {
		t.Error("opening balance must be preserved")
	}
}
