package batch

import (
	"context"

	"gasflow/internal/core/id"
	"gasflow/internal/core/types"
	"gasflow/internal/domain"
)

// Repository defines storage operations for stock batches.
// All queries are tenant-scoped through context.
type Repository interface {
	Create(ctx context.Context, b *StockBatch) error
	GetByID(ctx context.Context, batchID id.ID) (*StockBatch, error)
	GetByNumber(ctx context.Context, number string) (*StockBatch, error)

	// Update uses optimistic locking on Version.
	// Returns CONCURRENT_MODIFICATION when the stored version differs.
	Update(ctx context.Context, b *StockBatch) error

	SetDeletionMark(ctx context.Context, batchID id.ID, marked bool) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockBatch], error)

	// GetOldestOpen returns the oldest batch with remaining stock, or nil when
	// every batch is depleted. Batch age is the UUIDv7 id order.
	GetOldestOpen(ctx context.Context) (*StockBatch, error)

	// DebitRemaining atomically subtracts kg from remaining stock.
	// The update only applies when the stored version still matches and
	// remaining_kg covers the debit; returns false when either check fails.
	DebitRemaining(ctx context.Context, batchID id.ID, version int, kg types.Quantity) (bool, error)
}

// ListFilter for filtering stock batches.
type ListFilter struct {
	domain.ListFilter

	// OnlyOpen restricts to batches with remaining stock
	OnlyOpen bool

	SupplierName *string
}
