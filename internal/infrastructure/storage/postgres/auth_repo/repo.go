// Package auth_repo implements the user repository on PostgreSQL.
package auth_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gasflow/internal/core/apperror"
	"gasflow/internal/core/id"
	"gasflow/internal/core/tenant"
	"gasflow/internal/domain/auth"
	"gasflow/internal/infrastructure/storage/postgres"
)

const tableName = "auth_users"

// Repo implements auth.UserRepository.
type Repo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
	columns []string
}

// New creates a user repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		columns: postgres.ExtractDBColumns[auth.User](),
	}
}

// Create inserts a new user.
func (r *Repo) Create(ctx context.Context, u *auth.User) error {
	data := postgres.StructToMap(u)

	q := r.builder.Insert(tableName).SetMap(data)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user in the current tenant.
func (r *Repo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	q, err := r.baseSelect(ctx)
	if err != nil {
		return nil, err
	}
	q = q.Where(squirrel.Eq{"id": userID})

	return r.getOne(ctx, q, userID.String())
}

// GetByEmail retrieves a user by email. Emails are stored lowercased and
// unique per tenant.
func (r *Repo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	q, err := r.baseSelect(ctx)
	if err != nil {
		return nil, err
	}
	q = q.Where(squirrel.Eq{"email": strings.ToLower(email)})

	return r.getOne(ctx, q, email)
}

// Exists reports whether an email is already taken in the current tenant.
func (r *Repo) Exists(ctx context.Context, email string) (bool, error) {
	tenantID, err := tenant.GetTenantID(ctx)
	if err != nil {
		return false, err
	}

	q := r.builder.
		Select("1").
		From(tableName).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"email": strings.ToLower(email)}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check email: %w", err)
	}

	return true, nil
}

// Update updates a user with optimistic locking.
func (r *Repo) Update(ctx context.Context, u *auth.User) error {
	tenantID, err := tenant.GetTenantID(ctx)
	if err != nil {
		return err
	}

	data := postgres.StructToMap(u)
	version := u.Version
	delete(data, "id")
	delete(data, "tenant_id")
	delete(data, "created_at")
	delete(data, "version")
	delete(data, "updated_at")

	q := r.builder.
		Update(tableName).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": u.ID}).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(tableName, u.ID)
	}

	return nil
}

// List returns the tenant's users ordered by creation.
func (r *Repo) List(ctx context.Context) ([]*auth.User, error) {
	q, err := r.baseSelect(ctx)
	if err != nil {
		return nil, err
	}
	q = q.OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var users []*auth.User
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &users, sql, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func (r *Repo) baseSelect(ctx context.Context) (squirrel.SelectBuilder, error) {
	tenantID, err := tenant.GetTenantID(ctx)
	if err != nil {
		return squirrel.SelectBuilder{}, err
	}
	return r.builder.
		Select(r.columns...).
		From(tableName).
		Where(squirrel.Eq{"tenant_id": tenantID}), nil
}

func (r *Repo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*auth.User, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	u := &auth.User{}
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, u, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(tableName, key)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return u, nil
}

var _ auth.UserRepository = (*Repo)(nil)
