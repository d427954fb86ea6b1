package sheets

import (
	"context"

	"financas/internal/core"
	"financas/internal/summary"
)

// Ports for outbound adapters.
type (
	// MonthExporter mirrors a month statement and its totals. Exporting the
	// same month again replaces the previous copy.
	MonthExporter interface {
		ExportMonth(ctx context.Context, p core.Period, h core.Household, items []summary.MonthItem, sum summary.MonthSummary) error
	}
)
