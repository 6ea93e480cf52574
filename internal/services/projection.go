package services

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"caixa/internal/core"
)

// ProjectionEngine materializes fixed-expense instances and card charges
// for a month from the durable master plans and card specs. It is pure:
// callers decide whether the result is persisted.
type ProjectionEngine struct{}

func NewProjectionEngine() *ProjectionEngine {
	return &ProjectionEngine{}
}

// Project returns the fixed-expense instances the master plans generate
// for the given month. Exhausted installment plans and installments
// already settled as paid produce nothing. Ordering is deterministic.
func (p *ProjectionEngine) Project(month core.MonthKey, plans map[string]core.MasterPlan) []core.FixedExpenseInstance {
	var out []core.FixedExpenseInstance

	for _, plan := range plans {
		inst, ok := p.instanceFor(month, plan)
		if !ok {
			continue
		}
		out = append(out, inst)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Description != out[j].Description {
			return out[i].Description < out[j].Description
		}
		return out[i].MasterID < out[j].MasterID
	})

	return out
}

func (p *ProjectionEngine) instanceFor(month core.MonthKey, plan core.MasterPlan) (core.FixedExpenseInstance, bool) {
	switch plan.Recurrence {
	case core.RecurrenceMonthly:
		if core.MonthsBetween(plan.StartMonth, month) < 0 {
			return core.FixedExpenseInstance{}, false
		}
		return core.FixedExpenseInstance{
			ID:          uuid.NewString(),
			MasterID:    plan.ID,
			Description: plan.Description,
			Category:    plan.Category,
			Payment:     plan.Payment,
			Value:       plan.Value,
			IsProjected: true,
		}, true

	case core.RecurrenceInstallment:
		idx := core.MonthsBetween(plan.StartMonth, month) + 1
		if idx < 1 || idx > plan.TotalInstallments || idx <= plan.PaidInstallments {
			return core.FixedExpenseInstance{}, false
		}
		return core.FixedExpenseInstance{
			ID:                uuid.NewString(),
			MasterID:          plan.ID,
			Description:       fmt.Sprintf("%s (%d/%d)", plan.Description, idx, plan.TotalInstallments),
			Category:          plan.Category,
			Payment:           plan.Payment,
			Value:             plan.Value,
			InstallmentIndex:  idx,
			TotalInstallments: plan.TotalInstallments,
			IsProjected:       true,
		}, true

	default:
		return core.FixedExpenseInstance{}, false
	}
}

// ProjectCardCharges returns the amortized charge each card accrues in
// the month, summed over its active installment specs. The result
// supersedes manually tagged card expenses in the month's summary.
func (p *ProjectionEngine) ProjectCardCharges(month core.MonthKey, specs []core.CardSpec) map[string]core.Money {
	charges := make(map[string]core.Money)
	for _, spec := range specs {
		if !spec.ActiveIn(month) {
			continue
		}
		charges[spec.CardID] = charges[spec.CardID].Add(spec.MonthlyCharge())
	}
	if len(charges) == 0 {
		return nil
	}
	return charges
}
