package sheets

import (
	"context"

	"caixa/internal/core"
)

// Ports for outbound adapters.
type (
	// SummaryWriter exports one month's computed summary to an external
	// sheet. Writing the same month twice replaces the earlier row.
	SummaryWriter interface {
		AppendMonthSummary(ctx context.Context, key core.MonthKey, summary core.MonthSummary) error
	}
)
