// Package tenant_repo implements the tenant registry on PostgreSQL.
package tenant_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gasflow/internal/core/apperror"
	"gasflow/internal/core/id"
	"gasflow/internal/core/tenant"
	"gasflow/internal/infrastructure/storage/postgres"
)

const tableName = "tenants"

// Repo implements tenant.Registry.
type Repo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
	columns []string
}

// New creates a tenant registry.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		columns: postgres.ExtractDBColumns[tenant.Tenant](),
	}
}

// GetByID retrieves a tenant.
func (r *Repo) GetByID(ctx context.Context, tenantID id.ID) (*tenant.Tenant, error) {
	q := r.builder.
		Select(r.columns...).
		From(tableName).
		Where(squirrel.Eq{"id": tenantID})

	return r.getOne(ctx, q, tenantID.String())
}

// GetBySlug retrieves a tenant by its URL slug.
func (r *Repo) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	q := r.builder.
		Select(r.columns...).
		From(tableName).
		Where(squirrel.Eq{"slug": slug})

	return r.getOne(ctx, q, slug)
}

// List returns all tenants.
func (r *Repo) List(ctx context.Context) ([]*tenant.Tenant, error) {
	q := r.builder.
		Select(r.columns...).
		From(tableName).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var tenants []*tenant.Tenant
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &tenants, sql, args...); err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}

	return tenants, nil
}

// Create inserts a tenant. Used by seeding and provisioning.
func (r *Repo) Create(ctx context.Context, t *tenant.Tenant) error {
	data := postgres.StructToMap(t)

	q := r.builder.Insert(tableName).SetMap(data)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}

	return nil
}

func (r *Repo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*tenant.Tenant, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	t := &tenant.Tenant{}
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(tableName, key)
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	return t, nil
}

var _ tenant.Registry = (*Repo)(nil)
