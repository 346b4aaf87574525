// Package auth provides authentication and authorization domain logic.
package auth

import (
	"context"
	"time"

	"gasflow/internal/core/apperror"
	"gasflow/internal/core/id"
)

// Roles understood by the platform.
const (
	RoleCashier  = "cashier"
	RoleReviewer = "reviewer"
	RoleAdmin    = "admin"
)

// User represents a system user within one tenant.
type User struct {
	ID                  id.ID      `db:"id" json:"id"`
	TenantID            id.ID      `db:"tenant_id" json:"tenantId"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	DisplayName         string     `db:"display_name" json:"displayName"`
	Role                string     `db:"role" json:"role"`
	Branch              string     `db:"branch" json:"branch,omitempty"`
	IsActive            bool       `db:"is_active" json:"isActive"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
	Version             int        `db:"version" json:"version"`
}

// NewUser creates a new active user.
func NewUser(tenantID id.ID, email, passwordHash, displayName, role string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           id.New(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
}

// Validate validates user data.
func (u *User) Validate(ctx context.Context) error {
	if u.Email == "" {
		return apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	switch u.Role {
	case RoleCashier, RoleReviewer, RoleAdmin:
	default:
		return apperror.NewValidation("unknown role").WithDetail("field", "role")
	}
	return nil
}

// IsLocked returns true if account is locked.
func (u *User) IsLocked() bool {
	if u.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*u.LockedUntil)
}

// CanLogin checks if user can login.
func (u *User) CanLogin() error {
	if !u.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	if u.IsLocked() {
		return apperror.NewForbidden("account is temporarily locked")
	}
	return nil
}

// RecordFailedLogin increments failed login counter.
func (u *User) RecordFailedLogin(maxAttempts int, lockDuration time.Duration) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		lockUntil := time.Now().Add(lockDuration)
		u.LockedUntil = &lockUntil
	}
}

// RecordSuccessfulLogin resets failed login counter.
func (u *User) RecordSuccessfulLogin() {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	now := time.Now().UTC()
	u.LastLoginAt = &now
}

// CanReview reports whether the user may rule on summaries.
func (u *User) CanReview() bool {
	return u.Role == RoleReviewer || u.Role == RoleAdmin
}

// Credentials for login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult contains the issued token and the authenticated user.
type LoginResult struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	TokenType   string    `json:"tokenType"`
	User        *User     `json:"user"`
}

// RegisterRequest for creating a user (admin only).
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	Branch      string `json:"branch,omitempty"`
}
