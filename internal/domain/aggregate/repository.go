package aggregate

import (
	"context"

	"gasflow/internal/core/types"
)

// Repository merges deltas into the derived tables and serves reads.
type Repository interface {
	// ApplyMonthlyDelta additively upserts one month's row.
	// Must run inside the changefeed processing transaction.
	ApplyMonthlyDelta(ctx context.Context, key MonthKey, delta MonthlyDelta) error

	// ApplyInventoryDelta additively upserts the tenant's stock row.
	ApplyInventoryDelta(ctx context.Context, deltaKg types.Quantity) error

	// GetMonthlyReport returns the month's rollup, zero-valued when no
	// approved entry has ever touched that month.
	GetMonthlyReport(ctx context.Context, key MonthKey) (*MonthlyReport, error)

	// GetLiveInventory returns current stock, zero-valued when absent.
	GetLiveInventory(ctx context.Context) (*LiveInventory, error)
}
