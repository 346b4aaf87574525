// Package tenant provides workspace scoping for the platform.
//
// All business tables carry a tenant_id column and every query filters on it.
// The active tenant is resolved per-request from the authenticated user and
// the X-Tenant-ID header, then threaded through context.
package tenant

import (
	"context"
	"errors"
	"time"

	"gasflow/internal/core/id"
)

// Status of a tenant workspace.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Tenant is a single isolated workspace (one gas distribution business).
type Tenant struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// IsActive reports whether the tenant may serve requests.
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// Registry resolves tenants by id or slug.
type Registry interface {
	GetByID(ctx context.Context, tenantID id.ID) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	List(ctx context.Context) ([]*Tenant, error)
}

// --- Context plumbing ---

type ctxKey int

const tenantKey ctxKey = iota

// ErrNoTenantInContext is returned when a handler runs without tenant scope.
var ErrNoTenantInContext = errors.New("tenant not found in context")

// WithTenant stores tenant info in context.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

// GetTenant retrieves tenant from context (nil if absent).
func GetTenant(ctx context.Context) *Tenant {
	t, _ := ctx.Value(tenantKey).(*Tenant)
	return t
}

// GetTenantID returns the active tenant ID or an error when no tenant scope
// is present. Repositories call this before building any query.
func GetTenantID(ctx context.Context) (id.ID, error) {
	if t := GetTenant(ctx); t != nil {
		return t.ID, nil
	}
	return id.Nil(), ErrNoTenantInContext
}

// MustGetTenantID returns the active tenant ID or panics.
// Use only where middleware guarantees tenant scope.
func MustGetTenantID(ctx context.Context) id.ID {
	tid, err := GetTenantID(ctx)
	if err != nil {
		panic("tenant not in context")
	}
	return tid
}
