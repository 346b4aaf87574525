package entry

import (
	"context"
	"time"

	"gasflow/internal/core/id"
	"gasflow/internal/domain"
)

// Repository defines storage operations for data entries.
type Repository interface {
	Create(ctx context.Context, e *DataEntry) error
	GetByID(ctx context.Context, entryID id.ID) (*DataEntry, error)

	// Update uses optimistic locking on Version.
	Update(ctx context.Context, e *DataEntry) error

	SetDeletionMark(ctx context.Context, entryID id.ID, marked bool) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*DataEntry], error)

	// ListBySummary returns all entries of one daily summary.
	ListBySummary(ctx context.Context, summaryID id.ID) ([]*DataEntry, error)

	// TransitionPendingBySummary moves every still-pending entry of the
	// summary to the given status and returns the updated entries.
	// Entries already ruled on individually keep their verdict.
	TransitionPendingBySummary(ctx context.Context, summaryID id.ID, status Status, reviewedBy string, reviewedAt time.Time) ([]*DataEntry, error)
}

// ListFilter for filtering data entries.
type ListFilter struct {
	domain.ListFilter

	EntryType *Type
	Status    *Status
	SummaryID *id.ID
	Branch    *string
}
