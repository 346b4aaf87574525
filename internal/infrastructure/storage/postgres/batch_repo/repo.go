// Package batch_repo implements the stock batch repository on PostgreSQL.
package batch_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gasflow/internal/core/id"
	"gasflow/internal/core/types"
	"gasflow/internal/domain"
	"gasflow/internal/domain/batch"
	"gasflow/internal/infrastructure/storage/postgres"
	"gasflow/internal/infrastructure/storage/postgres/document_repo"
)

const tableName = "stock_batches"

// Repo implements batch.Repository.
type Repo struct {
	*document_repo.BaseDocumentRepo[*batch.StockBatch]
}

// New creates a stock batch repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{
		BaseDocumentRepo: document_repo.NewBaseDocumentRepo(
			txm,
			tableName,
			postgres.ExtractDBColumns[batch.StockBatch](),
			func() *batch.StockBatch { return &batch.StockBatch{} },
		),
	}
}

// List retrieves batches with batch-specific filters.
func (r *Repo) List(ctx context.Context, filter batch.ListFilter) (domain.ListResult[*batch.StockBatch], error) {
	return r.ListWith(ctx, filter.ListFilter, func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		if filter.OnlyOpen {
			q = q.Where(squirrel.Gt{"remaining_kg": 0})
		}
		if filter.SupplierName != nil {
			q = q.Where(squirrel.ILike{"supplier": "%" + *filter.SupplierName + "%"})
		}
		if filter.DateFrom != nil {
			q = q.Where(squirrel.GtOrEq{"purchase_date": *filter.DateFrom})
		}
		if filter.DateTo != nil {
			q = q.Where(squirrel.LtOrEq{"purchase_date": *filter.DateTo})
		}
		return q
	})
}

// GetOldestOpen returns the oldest batch with remaining stock, or nil when
// stock is fully depleted. UUIDv7 ids sort by creation time, so "oldest"
// is simply the smallest id.
func (r *Repo) GetOldestOpen(ctx context.Context) (*batch.StockBatch, error) {
	q, err := r.BaseSelect(ctx)
	if err != nil {
		return nil, err
	}
	q = q.
		Where(squirrel.Gt{"remaining_kg": 0}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("id ASC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	b := &batch.StockBatch{}
	querier := r.TxManager().GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get oldest open batch: %w", err)
	}

	return b, nil
}

// DebitRemaining conditionally subtracts kg from remaining stock.
// The row must still be at the given version and hold enough stock,
// otherwise no row matches and false is returned.
func (r *Repo) DebitRemaining(ctx context.Context, batchID id.ID, version int, kg types.Quantity) (bool, error) {
	tenantID, err := r.TenantID(ctx)
	if err != nil {
		return false, err
	}

	q := r.Builder().
		Update(tableName).
		Set("remaining_kg", squirrel.Expr("remaining_kg - ?", int64(kg))).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": batchID}).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"version": version}).
		Where(squirrel.GtOrEq{"remaining_kg": int64(kg)})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build debit: %w", err)
	}

	querier := r.TxManager().GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("debit batch %s: %w", batchID, err)
	}

	return result.RowsAffected() > 0, nil
}

var _ batch.Repository = (*Repo)(nil)
