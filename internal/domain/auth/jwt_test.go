package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasflow/internal/core/id"
)

func TestJWT_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	u := NewUser(id.New(), "alice@example.com", "hash", "Alice", RoleReviewer)
	u.Branch = "main"

	token, expiresAt, err := svc.GenerateAccessToken(u)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, u.ID.String(), uc.UserID)
	assert.Equal(t, u.TenantID.String(), uc.TenantID)
	assert.Equal(t, "alice@example.com", uc.Email)
	assert.Equal(t, "Alice", uc.Name)
	assert.Equal(t, RoleReviewer, uc.Role)
	assert.Equal(t, "main", uc.Branch)
}

func TestJWT_WrongSecretRejected(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret-a"))
	verifier := NewJWTService(DefaultJWTConfig("secret-b"))

	u := NewUser(id.New(), "alice@example.com", "hash", "Alice", RoleCashier)
	token, _, err := issuer.GenerateAccessToken(u)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
}

func TestJWT_ExpiredTokenRejected(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret")
	cfg.AccessTokenTTL = -time.Minute
	svc := NewJWTService(cfg)

	u := NewUser(id.New(), "alice@example.com", "hash", "Alice", RoleCashier)
	token, _, err := svc.GenerateAccessToken(u)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
}

func TestJWT_GarbageRejected(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)

	_, err = svc.ValidateToken("")
	require.Error(t, err)
}
