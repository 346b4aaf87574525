package summary

import (
	"context"
	"time"

	"gasflow/internal/core/id"
	"gasflow/internal/domain"
)

// Repository defines storage operations for daily summaries.
type Repository interface {
	Create(ctx context.Context, d *DailySummary) error
	GetByID(ctx context.Context, summaryID id.ID) (*DailySummary, error)

	// GetOpenForDay finds the submitter's in_progress summary for one
	// branch and day, or nil when there is none.
	GetOpenForDay(ctx context.Context, branch string, date time.Time, submittedBy string) (*DailySummary, error)

	// Update uses optimistic locking on Version.
	Update(ctx context.Context, d *DailySummary) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*DailySummary], error)
}

// ListFilter for filtering daily summaries.
type ListFilter struct {
	domain.ListFilter

	Status *Status
	Branch *string
}
