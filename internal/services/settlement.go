package services

import (
	"context"
	"fmt"
	"log/slog"

	"caixa/internal/core"
	"caixa/internal/repo"
)

// Settlement advances master-plan paid counters from a month's paid
// installment instances. It runs when the cursor leaves a month, so a
// later projection of the same plan skips what was already paid.
type Settlement struct {
	months repo.MonthStore
	plans  repo.PlanStore
}

func NewSettlement(months repo.MonthStore, plans repo.PlanStore) *Settlement {
	return &Settlement{months: months, plans: plans}
}

// SettleMonth folds the month's paid installment instances into their
// plans' paid counters. Counters only move forward and clamp at the
// plan total, so settling the same month twice is a no-op.
func (s *Settlement) SettleMonth(ctx context.Context, key core.MonthKey) error {
	ledger, err := s.months.LoadMonth(ctx, key)
	if err != nil {
		return fmt.Errorf("load month %s: %w", key, err)
	}

	plans, err := s.plans.LoadPlans(ctx)
	if err != nil {
		return fmt.Errorf("load plans: %w", err)
	}

	moved := 0
	for _, inst := range ledger.FixedExpenses {
		if !inst.IsPaid || inst.MasterID == "" || inst.InstallmentIndex < 1 {
			continue
		}
		plan, ok := plans[inst.MasterID]
		if !ok {
			// Plan deleted after the instance was materialized.
			continue
		}
		if plan.AdvancePaid(inst.InstallmentIndex) {
			plans[inst.MasterID] = plan
			moved++
		}
	}

	if moved == 0 {
		return nil
	}

	if err := s.plans.SavePlans(ctx, plans); err != nil {
		return fmt.Errorf("save plans: %w", err)
	}

	slog.InfoContext(ctx, "Settled month",
		"month_key", key,
		"plans_advanced", moved)
	return nil
}
