// Package summary_repo implements the daily summary repository on PostgreSQL.
package summary_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gasflow/internal/domain"
	"gasflow/internal/domain/summary"
	"gasflow/internal/infrastructure/storage/postgres"
	"gasflow/internal/infrastructure/storage/postgres/document_repo"
)

const tableName = "daily_summaries"

// Repo implements summary.Repository.
type Repo struct {
	*document_repo.BaseDocumentRepo[*summary.DailySummary]
}

// New creates a daily summary repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{
		BaseDocumentRepo: document_repo.NewBaseDocumentRepo(
			txm,
			tableName,
			postgres.ExtractDBColumns[summary.DailySummary](),
			func() *summary.DailySummary { return &summary.DailySummary{} },
		),
	}
}

// List retrieves summaries with summary-specific filters.
func (r *Repo) List(ctx context.Context, filter summary.ListFilter) (domain.ListResult[*summary.DailySummary], error) {
	return r.ListWith(ctx, filter.ListFilter, func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		if filter.Status != nil {
			q = q.Where(squirrel.Eq{"status": *filter.Status})
		}
		if filter.Branch != nil {
			q = q.Where(squirrel.Eq{"branch": *filter.Branch})
		}
		if filter.DateFrom != nil {
			q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
		}
		if filter.DateTo != nil {
			q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
		}
		return q
	})
}

// GetOpenForDay finds the submitter's in_progress summary for one branch and
// calendar day, or nil when there is none. The date column stores the day
// at midnight UTC so equality suffices.
func (r *Repo) GetOpenForDay(ctx context.Context, branch string, date time.Time, submittedBy string) (*summary.DailySummary, error) {
	q, err := r.BaseSelect(ctx)
	if err != nil {
		return nil, err
	}
	q = q.
		Where(squirrel.Eq{"branch": branch}).
		Where(squirrel.Eq{"date": date}).
		Where(squirrel.Eq{"submitted_by": submittedBy}).
		Where(squirrel.Eq{"status": summary.StatusInProgress}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	d := &summary.DailySummary{}
	querier := r.TxManager().GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, d, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get open summary: %w", err)
	}

	return d, nil
}

var _ summary.Repository = (*Repo)(nil)
