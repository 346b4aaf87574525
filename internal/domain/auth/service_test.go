package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gasflow/internal/core/apperror"
	"gasflow/internal/core/id"
	"gasflow/internal/core/tenant"
)

// Mock objects

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockUserRepo struct {
	users   []*User
	created []*User
	updates int
}

func (m *mockUserRepo) Create(ctx context.Context, u *User) error {
	m.created = append(m.created, u)
	m.users = append(m.users, u)
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	for _, u := range m.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("auth_users", userID.String())
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("auth_users", email)
}

func (m *mockUserRepo) Exists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (m *mockUserRepo) Update(ctx context.Context, u *User) error {
	m.updates++
	return nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]*User, error) {
	return m.users, nil
}

var _ UserRepository = (*mockUserRepo)(nil)

func tenantCtx() context.Context {
	return tenant.WithTenant(context.Background(), &tenant.Tenant{
		ID:     id.New(),
		Slug:   "demo",
		Status: tenant.StatusActive,
	})
}

func newAuthService(repo *mockUserRepo) *Service {
	cfg := DefaultServiceConfig()
	cfg.MaxLoginAttempts = 3
	return NewService(repo, &fakeTxManager{}, NewJWTService(DefaultJWTConfig("test-secret")), cfg)
}

func seedUser(t *testing.T, repo *mockUserRepo, email, password, role string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := NewUser(id.New(), email, string(hash), "Test User", role)
	repo.users = append(repo.users, u)
	return u
}

func TestLogin_Success(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newAuthService(repo)
	u := seedUser(t, repo, "alice@example.com", "s3cret-pass", RoleCashier)

	res, err := svc.Login(tenantCtx(), Credentials{Email: "alice@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.True(t, res.ExpiresAt.After(time.Now()))
	assert.Equal(t, u.ID, res.User.ID)
	require.NotNil(t, u.LastLoginAt)
	assert.Zero(t, u.FailedLoginAttempts)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newAuthService(repo)
	u := seedUser(t, repo, "alice@example.com", "s3cret-pass", RoleCashier)

	_, err := svc.Login(tenantCtx(), Credentials{Email: "alice@example.com", Password: "wrong"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
	assert.Equal(t, 1, u.FailedLoginAttempts)
}

func TestLogin_UnknownEmailSameError(t *testing.T) {
	svc := newAuthService(&mockUserRepo{})

	_, err := svc.Login(tenantCtx(), Credentials{Email: "nobody@example.com", Password: "whatever"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	// Indistinguishable from a wrong password.
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
	assert.Equal(t, "invalid email or password", appErr.Message)
}

func TestLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newAuthService(repo)
	u := seedUser(t, repo, "alice@example.com", "s3cret-pass", RoleCashier)
	ctx := tenantCtx()

	for i := 0; i < 3; i++ {
		_, err := svc.Login(ctx, Credentials{Email: "alice@example.com", Password: "wrong"})
		require.Error(t, err)
	}

	assert.True(t, u.IsLocked())

	// Correct password is still rejected while locked.
	_, err := svc.Login(ctx, Credentials{Email: "alice@example.com", Password: "s3cret-pass"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestLogin_DisabledAccount(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newAuthService(repo)
	u := seedUser(t, repo, "alice@example.com", "s3cret-pass", RoleCashier)
	u.IsActive = false

	_, err := svc.Login(tenantCtx(), Credentials{Email: "alice@example.com", Password: "s3cret-pass"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestRegister_Success(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newAuthService(repo)

	u, err := svc.Register(tenantCtx(), RegisterRequest{
		Email:       "bob@example.com",
		Password:    "longenough",
		DisplayName: "Bob",
		Role:        RoleReviewer,
		Branch:      "main",
	})
	require.NoError(t, err)

	assert.Equal(t, RoleReviewer, u.Role)
	assert.Equal(t, "main", u.Branch)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "longenough", u.PasswordHash)
	require.Len(t, repo.created, 1)
}

func TestRegister_Validation(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newAuthService(repo)
	ctx := tenantCtx()

	_, err := svc.Register(ctx, RegisterRequest{Password: "longenough", Role: RoleCashier})
	require.Error(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Email: "a@b.c", Password: "short", Role: RoleCashier})
	require.Error(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Email: "a@b.c", Password: "longenough", Role: "superuser"})
	require.Error(t, err)

	assert.Empty(t, repo.created)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newAuthService(repo)
	seedUser(t, repo, "alice@example.com", "s3cret-pass", RoleCashier)

	_, err := svc.Register(tenantCtx(), RegisterRequest{
		Email:    "alice@example.com",
		Password: "longenough",
		Role:     RoleCashier,
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestUser_CanReview(t *testing.T) {
	assert.False(t, (&User{Role: RoleCashier}).CanReview())
	assert.True(t, (&User{Role: RoleReviewer}).CanReview())
	assert.True(t, (&User{Role: RoleAdmin}).CanReview())
}
