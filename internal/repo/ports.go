// Package repo defines the persistence ports consumed by the ledger
// services. Each storage backend implements these interfaces; the five
// logical sub-objects of a month are independently addressable so a
// failed save on one never blocks the others.
package repo

import (
	"context"

	"caixa/internal/core"
)

type (
	// MonthStore persists per-month ledger data keyed by MonthKey.
	MonthStore interface {
		// LoadMonth returns the month's ledger, or an empty-default
		// ledger when nothing is persisted yet.
		LoadMonth(ctx context.Context, key core.MonthKey) (*core.MonthlyLedger, error)

		SaveEntries(ctx context.Context, key core.MonthKey, entries []core.Entry) error
		SaveVariableExpenses(ctx context.Context, key core.MonthKey, expenses []core.VariableExpense) error
		SaveFixedExpenses(ctx context.Context, key core.MonthKey, fixed []core.FixedExpenseInstance) error
		SaveCards(ctx context.Context, key core.MonthKey, cards map[string]core.CardState) error
		SaveMeta(ctx context.Context, key core.MonthKey, meta core.MonthMeta) error

		// LoadClosingCash reads only the meta sub-object's closing cash.
		// ok is false when no meta was ever persisted for the month.
		LoadClosingCash(ctx context.Context, key core.MonthKey) (amount core.Money, ok bool, err error)
	}

	// PlanStore persists the global master-plan registry.
	PlanStore interface {
		LoadPlans(ctx context.Context) (map[string]core.MasterPlan, error)
		SavePlans(ctx context.Context, plans map[string]core.MasterPlan) error
	}

	// CardSpecStore persists the global card installment specs.
	CardSpecStore interface {
		LoadCardSpecs(ctx context.Context) ([]core.CardSpec, error)
		SaveCardSpecs(ctx context.Context, specs []core.CardSpec) error
	}
)
