// Package aggregate_repo implements the derived reporting tables on
// PostgreSQL. Writes are additive upserts so a delta merges with whatever
// the row currently holds.
package aggregate_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"gasflow/internal/core/tenant"
	"gasflow/internal/core/types"
	"gasflow/internal/domain/aggregate"
	"gasflow/internal/infrastructure/storage/postgres"
)

// Repo implements aggregate.Repository.
type Repo struct {
	txm *postgres.TxManager
}

// New creates an aggregate repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{txm: txm}
}

// ApplyMonthlyDelta additively upserts one month's rollup row.
func (r *Repo) ApplyMonthlyDelta(ctx context.Context, key aggregate.MonthKey, delta aggregate.MonthlyDelta) error {
	tenantID, err := tenant.GetTenantID(ctx)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO monthly_reports (tenant_id, year, month, total_revenue, total_expenses, total_kg_sold, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (tenant_id, year, month) DO UPDATE SET
			total_revenue  = monthly_reports.total_revenue  + EXCLUDED.total_revenue,
			total_expenses = monthly_reports.total_expenses + EXCLUDED.total_expenses,
			total_kg_sold  = monthly_reports.total_kg_sold  + EXCLUDED.total_kg_sold,
			updated_at     = NOW()`

	querier := r.txm.GetQuerier(ctx)
	_, err = querier.Exec(ctx, query,
		tenantID, key.Year, key.Month,
		delta.Revenue, delta.Expenses, int64(delta.KgSold))
	if err != nil {
		return fmt.Errorf("apply monthly delta %d-%02d: %w", key.Year, key.Month, err)
	}

	return nil
}

// ApplyInventoryDelta additively upserts the tenant's single stock row.
func (r *Repo) ApplyInventoryDelta(ctx context.Context, deltaKg types.Quantity) error {
	tenantID, err := tenant.GetTenantID(ctx)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO live_inventory (tenant_id, current_stock_kg, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (tenant_id) DO UPDATE SET
			current_stock_kg = live_inventory.current_stock_kg + EXCLUDED.current_stock_kg,
			updated_at       = NOW()`

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, query, tenantID, int64(deltaKg)); err != nil {
		return fmt.Errorf("apply inventory delta: %w", err)
	}

	return nil
}

// GetMonthlyReport returns the month's rollup. A month no approved entry has
// touched yet reads as all zeros, not as an error.
func (r *Repo) GetMonthlyReport(ctx context.Context, key aggregate.MonthKey) (*aggregate.MonthlyReport, error) {
	tenantID, err := tenant.GetTenantID(ctx)
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT tenant_id, year, month, total_revenue, total_expenses, total_kg_sold, updated_at
		FROM monthly_reports
		WHERE tenant_id = $1 AND year = $2 AND month = $3`

	report := &aggregate.MonthlyReport{}
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, report, query, tenantID, key.Year, key.Month); err != nil {
		if pgxscan.NotFound(err) {
			return &aggregate.MonthlyReport{
				TenantID:      tenantID,
				Year:          key.Year,
				Month:         key.Month,
				TotalRevenue:  types.Zero(),
				TotalExpenses: types.Zero(),
			}, nil
		}
		return nil, fmt.Errorf("get monthly report: %w", err)
	}

	return report, nil
}

// GetLiveInventory returns the tenant's current stock, zero-valued when the
// row does not exist yet.
func (r *Repo) GetLiveInventory(ctx context.Context) (*aggregate.LiveInventory, error) {
	tenantID, err := tenant.GetTenantID(ctx)
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT tenant_id, current_stock_kg, updated_at
		FROM live_inventory
		WHERE tenant_id = $1`

	inv := &aggregate.LiveInventory{}
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, inv, query, tenantID); err != nil {
		if pgxscan.NotFound(err) {
			return &aggregate.LiveInventory{TenantID: tenantID}, nil
		}
		return nil, fmt.Errorf("get live inventory: %w", err)
	}

	return inv, nil
}

var _ aggregate.Repository = (*Repo)(nil)
