package services

import (
	"context"
	"fmt"
	"log/slog"

	"caixa/internal/core"
	"caixa/internal/repo"
)

// CarryoverResolver pins a month's opening cash from the previous
// month's closing cash. Resolution is one-way: once a month's opening
// cash is set it never changes retroactively, only a manual override
// can move it.
type CarryoverResolver struct {
	months repo.MonthStore
}

func NewCarryoverResolver(months repo.MonthStore) *CarryoverResolver {
	return &CarryoverResolver{months: months}
}

// Resolve fills in the ledger's opening cash if it is not pinned yet.
// A month with no predecessor data opens at zero.
func (r *CarryoverResolver) Resolve(ctx context.Context, l *core.MonthlyLedger) error {
	if l.OpeningCashSet {
		return nil
	}

	prev := l.MonthKey.Prev()
	closing, ok, err := r.months.LoadClosingCash(ctx, prev)
	if err != nil {
		return fmt.Errorf("load closing cash of %s: %w", prev, err)
	}
	if !ok {
		l.OpeningCashSet = true
		return nil
	}

	l.OpeningCash = closing
	l.OpeningCashSet = true
	slog.InfoContext(ctx, "Carried over opening cash",
		"month_key", l.MonthKey,
		"from", prev,
		"amount_cents", closing.Cents)
	return nil
}
