package auth

import (
	"context"

	"gasflow/internal/core/id"
)

// UserRepository defines storage operations for users.
// Queries are tenant-scoped through context.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Exists(ctx context.Context, email string) (bool, error)

	// Update uses optimistic locking on Version.
	Update(ctx context.Context, u *User) error

	List(ctx context.Context) ([]*User, error)
}
