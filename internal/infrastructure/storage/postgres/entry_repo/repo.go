// Package entry_repo implements the data entry repository on PostgreSQL.
package entry_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gasflow/internal/core/id"
	"gasflow/internal/domain"
	"gasflow/internal/domain/entry"
	"gasflow/internal/infrastructure/storage/postgres"
	"gasflow/internal/infrastructure/storage/postgres/document_repo"
)

const tableName = "data_entries"

// Repo implements entry.Repository.
type Repo struct {
	*document_repo.BaseDocumentRepo[*entry.DataEntry]
}

// New creates a data entry repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{
		BaseDocumentRepo: document_repo.NewBaseDocumentRepo(
			txm,
			tableName,
			postgres.ExtractDBColumns[entry.DataEntry](),
			func() *entry.DataEntry { return &entry.DataEntry{} },
		),
	}
}

// List retrieves entries with entry-specific filters.
func (r *Repo) List(ctx context.Context, filter entry.ListFilter) (domain.ListResult[*entry.DataEntry], error) {
	return r.ListWith(ctx, filter.ListFilter, func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		if filter.EntryType != nil {
			q = q.Where(squirrel.Eq{"entry_type": *filter.EntryType})
		}
		if filter.Status != nil {
			q = q.Where(squirrel.Eq{"status": *filter.Status})
		}
		if filter.SummaryID != nil {
			q = q.Where(squirrel.Eq{"daily_summary_id": *filter.SummaryID})
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

// ListBySummary returns all non-deleted entries of one daily summary.
func (r *Repo) ListBySummary(ctx context.Context, summaryID id.ID) ([]*entry.DataEntry, error) {
	q, err := r.BaseSelect(ctx)
	if err != nil {
		return nil, err
	}
	q = q.
		Where(squirrel.Eq{"daily_summary_id": summaryID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []*entry.DataEntry
	querier := r.TxManager().GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list entries by summary: %w", err)
	}

	return entries, nil
}

// TransitionPendingBySummary moves every still-pending entry of the summary
// to the given status in a single statement and returns the updated rows.
// Entries that already carry an individual verdict are left untouched.
func (r *Repo) TransitionPendingBySummary(ctx context.Context, summaryID id.ID, status entry.Status, reviewedBy string, reviewedAt time.Time) ([]*entry.DataEntry, error) {
	tenantID, err := r.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	cols := postgres.ExtractDBColumns[entry.DataEntry]()
	q := r.Builder().
		Update(tableName).
		Set("status", status).
		Set("reviewed_by", reviewedBy).
		Set("reviewed_at", reviewedAt).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"daily_summary_id": summaryID}).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"status": entry.StatusPending}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Suffix("RETURNING " + strings.Join(cols, ", "))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build transition: %w", err)
	}

	var entries []*entry.DataEntry
	querier := r.TxManager().GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("transition entries of summary %s: %w", summaryID, err)
	}

	return entries, nil
}

var _ entry.Repository = (*Repo)(nil)
