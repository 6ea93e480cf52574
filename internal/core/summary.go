package core

import "sort"

type (
	// CategoryAmount is an amount aggregated by category name.
	CategoryAmount struct {
		Name   string `json:"name"`
		Amount Money  `json:"amount"`
	}

	// CardStatement is one card's bill for the month: the carried
	// opening balance plus the charges accrued this month. Projected is
	// true when the charge comes from an active card installment spec
	// rather than from summed tagged expenses.
	CardStatement struct {
		CardID         string `json:"cardId"`
		OpeningBalance Money  `json:"openingBalance"`
		MonthlyCharge  Money  `json:"monthlyCharge"`
		StatementTotal Money  `json:"statementTotal"`
		Projected      bool   `json:"projected"`
	}

	// MonthSummary is the aggregate view of one month's ledger, consumed
	// by rendering and export collaborators.
	MonthSummary struct {
		MonthKey MonthKey `json:"monthKey"`

		TotalIncome     Money   `json:"totalIncome"`
		TotalDistanceKm float64 `json:"totalDistanceKm"`
		TotalHours      float64 `json:"totalHours"`

		// OperationalOutflow is fuel plus other operating costs from
		// income entries. Always cash-flow affecting.
		OperationalOutflow Money `json:"operationalOutflow"`

		CashVariable Money `json:"cashVariable"`
		CardVariable Money `json:"cardVariable"`

		// ProjectedFixed totals every fixed instance regardless of paid
		// state; a display figure that never moves the cash balance.
		ProjectedFixed Money `json:"projectedFixed"`
		// DilutedFixed totals only instances marked paid; these are the
		// fixed costs that count against this month's flow.
		DilutedFixed Money `json:"dilutedFixed"`

		TotalExpenses Money `json:"totalExpenses"`
		NetProfit     Money `json:"netProfit"`

		OpeningCash Money `json:"openingCash"`
		ClosingCash Money `json:"closingCash"`

		ByCategory []CategoryAmount `json:"byCategory"`
		Cards      []CardStatement  `json:"cards"`
	}
)

// ComputeSummary aggregates a month's ledger into a MonthSummary.
//
// cardCharges carries the projected monthly charge per card from active
// card installment specs; for those cards it replaces (not adds to) the
// summed card-tagged expenses, so a purchase is never counted twice.
//
// Fixed instances count into cash flow and expense totals only when
// marked paid; unpaid instances surface solely in ProjectedFixed.
//
// The function is pure: the caller persists Summary.ClosingCash back to
// the ledger's meta sub-object.
func ComputeSummary(l *MonthlyLedger, cardCharges map[string]Money) MonthSummary {
	s := MonthSummary{
		MonthKey:    l.MonthKey,
		OpeningCash: l.OpeningCash,
	}

	for _, e := range l.Entries {
		s.TotalIncome = s.TotalIncome.Add(e.Gross)
		s.TotalDistanceKm += e.DistanceKm
		s.TotalHours += e.Hours
		s.OperationalOutflow = s.OperationalOutflow.Add(e.FuelCost).Add(e.OtherCost)
	}

	byCategory := make(map[string]Money)
	manualCardCharges := make(map[string]Money)

	for _, v := range l.VariableExpenses {
		byCategory[v.Category] = byCategory[v.Category].Add(v.Value)
		if v.Payment.IsCard() {
			s.CardVariable = s.CardVariable.Add(v.Value)
			manualCardCharges[v.Payment.CardID] = manualCardCharges[v.Payment.CardID].Add(v.Value)
		} else {
			s.CashVariable = s.CashVariable.Add(v.Value)
		}
	}

	var dilutedFixedCash Money
	for _, f := range l.FixedExpenses {
		s.ProjectedFixed = s.ProjectedFixed.Add(f.Value)
		byCategory[f.Category] = byCategory[f.Category].Add(f.Value)
		if !f.IsPaid {
			continue
		}
		s.DilutedFixed = s.DilutedFixed.Add(f.Value)
		if f.Payment.IsCard() {
			manualCardCharges[f.Payment.CardID] = manualCardCharges[f.Payment.CardID].Add(f.Value)
		} else {
			dilutedFixedCash = dilutedFixedCash.Add(f.Value)
		}
	}

	s.TotalExpenses = s.CashVariable.
		Add(s.CardVariable).
		Add(s.DilutedFixed).
		Add(s.OperationalOutflow)
	s.NetProfit = s.TotalIncome.Sub(s.TotalExpenses)

	// Card-paid amounts accrue to statements, never to the cash balance.
	cashOutflow := s.CashVariable.Add(dilutedFixedCash).Add(s.OperationalOutflow)
	s.ClosingCash = l.OpeningCash.Add(s.TotalIncome).Sub(cashOutflow)

	s.ByCategory = sortedCategories(byCategory)
	s.Cards = cardStatements(l.Cards, manualCardCharges, cardCharges)
	return s
}

func sortedCategories(sums map[string]Money) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(sums))
	for name, amount := range sums {
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func cardStatements(states map[string]CardState, manual, projected map[string]Money) []CardStatement {
	ids := make(map[string]struct{})
	for id := range states {
		ids[id] = struct{}{}
	}
	for id := range manual {
		ids[id] = struct{}{}
	}
	for id := range projected {
		ids[id] = struct{}{}
	}

	out := make([]CardStatement, 0, len(ids))
	for id := range ids {
		st := CardStatement{
			CardID:         id,
			OpeningBalance: states[id].OpeningBalance,
		}
		if charge, ok := projected[id]; ok {
			// An active card spec supersedes manually tagged expenses.
			st.MonthlyCharge = charge
			st.Projected = true
		} else {
			st.MonthlyCharge = manual[id]
		}
		st.StatementTotal = st.OpeningBalance.Add(st.MonthlyCharge)
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CardID < out[j].CardID })
	return out
}

// ApplySummary writes the derived figures back onto the ledger: closing
// cash into the meta sub-object and monthly charges into card state.
func ApplySummary(l *MonthlyLedger, s MonthSummary) {
	l.ClosingCash = s.ClosingCash
	if l.Cards == nil {
		l.Cards = make(map[string]CardState)
	}
	for _, cs := range s.Cards {
		state := l.Cards[cs.CardID]
		state.MonthlyCharge = cs.MonthlyCharge
		l.Cards[cs.CardID] = state
	}
}
