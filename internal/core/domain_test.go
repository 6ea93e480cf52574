package core

import "testing"

func validPlan() MasterPlan {
	return MasterPlan{
		ID:          "p1",
		Description: "rent",
		Category:    "Moradia/Aluguel",
		Payment:     Cash(),
		Value:       Money{Cents: 80000},
		Recurrence:  RecurrenceMonthly,
		StartMonth:  "2024-01",
		DueDay:      5,
	}
}

func TestMasterPlanValidate(t *testing.T) {
	if err := validPlan().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*MasterPlan)
	}{
		{"empty description", func(p *MasterPlan) { p.Description = " " }},
		{"empty category", func(p *MasterPlan) { p.Category = "" }},
		{"zero value", func(p *MasterPlan) { p.Value = Money{} }},
		{"bad start month", func(p *MasterPlan) { p.StartMonth = "jan" }},
		{"bad due day", func(p *MasterPlan) { p.DueDay = 32 }},
		{"single recurrence stored as plan", func(p *MasterPlan) { p.Recurrence = RecurrenceSingle }},
		{"unknown recurrence", func(p *MasterPlan) { p.Recurrence = "weekly" }},
		{"card without id", func(p *MasterPlan) { p.Payment = PaymentMethod{Kind: PaymentCard} }},
		{"installment total 1", func(p *MasterPlan) {
			p.Recurrence = RecurrenceInstallment
			p.TotalInstallments = 1
		}},
		{"paid beyond total", func(p *MasterPlan) {
			p.Recurrence = RecurrenceInstallment
			p.TotalInstallments = 3
			p.PaidInstallments = 4
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPlan()
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestMasterPlanAdvancePaid(t *testing.T) {
	p := validPlan()
	p.Recurrence = RecurrenceInstallment
	p.TotalInstallments = 3

	if !p.AdvancePaid(2) {
		t.Fatal("first advance should report change")
	}
	if p.PaidInstallments != 2 {
		t.Fatalf("paid = %d, want 2", p.PaidInstallments)
	}
	// Idempotent: re-advancing to the same index changes nothing.
	if p.AdvancePaid(2) {
		t.Error("second advance to same index should be a no-op")
	}
	// Never regresses.
	if p.AdvancePaid(1) {
		t.Error("advance must not regress")
	}
	if p.PaidInstallments != 2 {
		t.Fatalf("paid = %d after regression attempt, want 2", p.PaidInstallments)
	}
	// Clamped at total, not an error.
	p.AdvancePaid(99)
	if p.PaidInstallments != 3 {
		t.Fatalf("paid = %d, want clamp at 3", p.PaidInstallments)
	}
	if !p.Exhausted() {
		t.Error("fully paid plan should be exhausted")
	}
}

func TestCardSpecActiveWindow(t *testing.T) {
	spec := CardSpec{
		ID:                "s1",
		CardID:            "card-1",
		Description:       "phone",
		TotalValue:        Money{Cents: 50000},
		TotalInstallments: 5,
		StartMonth:        "2024-01",
		DueDay:            10,
	}
	if err := spec.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if spec.MonthlyCharge() != (Money{Cents: 10000}) {
		t.Fatalf("monthly charge = %v, want 10000 cents", spec.MonthlyCharge())
	}

	cases := []struct {
		month MonthKey
		want  bool
	}{
		{"2023-12", false},
		{"2024-01", true},
		{"2024-03", true},
		{"2024-05", true},
		{"2024-06", false},
	}
	for _, tc := range cases {
		if got := spec.ActiveIn(tc.month); got != tc.want {
			t.Errorf("ActiveIn(%s) = %v, want %v", tc.month, got, tc.want)
		}
	}
}

func TestPaymentMethodValidate(t *testing.T) {
	if err := Cash().Validate(); err != nil {
		t.Errorf("cash: %v", err)
	}
	if err := Card("card-1").Validate(); err != nil {
		t.Errorf("card: %v", err)
	}
	if err := Card(" ").Validate(); err == nil {
		t.Error("blank card id should fail")
	}
	if err := (PaymentMethod{Kind: "cheque"}).Validate(); err == nil {
		t.Error("unknown kind should fail")
	}
}

func TestFixedExpenseInstanceValidate(t *testing.T) {
	good := FixedExpenseInstance{
		ID:          "f1",
		Description: "internet",
		Category:    "Contas Fixas",
		Payment:     Cash(),
		Value:       Money{Cents: 9900},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := good
	bad.InstallmentIndex = 4
	bad.TotalInstallments = 3
	if err := bad.Validate(); err == nil {
		t.Error("index beyond total should fail")
	}
}

func TestEntryValidate(t *testing.T) {
	good := Entry{
		ID:       "e1",
		Date:     NewDate(2024, 1, 15),
		Platform: "Uber Moto",
		Gross:    Money{Cents: 12000},
		FuelCost: Money{Cents: 2000},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Entry{
		{ID: "a", Platform: "x", Gross: Money{Cents: 1}},                                       // zero date
		{ID: "b", Date: NewDate(2024, 1, 1), Platform: " ", Gross: Money{Cents: 1}},            // blank platform
		{ID: "c", Date: NewDate(2024, 1, 1), Platform: "x", Gross: Money{}},                    // zero gross
		{ID: "d", Date: NewDate(2024, 1, 1), Platform: "x", Gross: Money{Cents: 1}, Hours: -1}, // negative hours
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Errorf("case %d expected error", i)
		}
	}
}

func TestVariableExpenseValidate(t *testing.T) {
	good := VariableExpense{
		ID:          "v1",
		Date:        NewDate(2024, 1, 10),
		Category:    "Alimentação",
		Description: "lunch",
		Payment:     Card("card-2"),
		Value:       Money{Cents: 3500},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.Value = Money{Cents: 0}
	if err := bad.Validate(); err == nil {
		t.Error("zero value should fail")
	}
}
