// Package aggregate maintains the derived reporting tables.
//
// monthly_reports and live_inventory are never written by request handlers.
// They are rebuilt incrementally by changefeed handlers that translate each
// document change into a signed delta and merge it with an additive upsert.
// Only approved entries contribute.
package aggregate

import (
	"time"

	"gasflow/internal/core/id"
	"gasflow/internal/core/types"
)

// MonthlyReport is the per-month rollup of approved entries.
type MonthlyReport struct {
	TenantID      id.ID          `db:"tenant_id" json:"tenantId"`
	Year          int            `db:"year" json:"year"`
	Month         int            `db:"month" json:"month"`
	TotalRevenue  types.Money    `db:"total_revenue" json:"totalRevenue"`
	TotalExpenses types.Money    `db:"total_expenses" json:"totalExpenses"`
	TotalKgSold   types.Quantity `db:"total_kg_sold" json:"totalKgSold"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}

// LiveInventory is the single current-stock row per tenant.
type LiveInventory struct {
	TenantID       id.ID          `db:"tenant_id" json:"tenantId"`
	CurrentStockKg types.Quantity `db:"current_stock_kg" json:"currentStockKg"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

// MonthlyDelta is one event's signed contribution to a month.
type MonthlyDelta struct {
	Revenue  types.Money
	Expenses types.Money
	KgSold   types.Quantity
}

// IsZero reports whether applying the delta would change nothing.
func (d MonthlyDelta) IsZero() bool {
	return d.Revenue.IsZero() && d.Expenses.IsZero() && d.KgSold.IsZero()
}

// Add merges two deltas.
func (d MonthlyDelta) Add(o MonthlyDelta) MonthlyDelta {
	return MonthlyDelta{
		Revenue:  d.Revenue.Add(o.Revenue),
		Expenses: d.Expenses.Add(o.Expenses),
		KgSold:   d.KgSold + o.KgSold,
	}
}

// Neg returns the delta with all signs flipped.
func (d MonthlyDelta) Neg() MonthlyDelta {
	return MonthlyDelta{
		Revenue:  d.Revenue.Neg(),
		Expenses: d.Expenses.Neg(),
		KgSold:   d.KgSold.Neg(),
	}
}

// MonthKey addresses one monthly report row.
type MonthKey struct {
	Year  int
	Month int
}

// KeyForDate derives the month bucket from an entry date.
func KeyForDate(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: int(t.Month())}
}
