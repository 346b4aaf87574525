// Package main seeds a development database with a tenant and an admin user.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gasflow/internal/core/id"
	"gasflow/internal/core/tenant"
	"gasflow/internal/domain/auth"
	"gasflow/internal/infrastructure/storage/postgres"
	"gasflow/internal/infrastructure/storage/postgres/auth_repo"
	"gasflow/internal/infrastructure/storage/postgres/tenant_repo"
	"gasflow/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	tenantRepo := tenant_repo.New(txManager)
	userRepo := auth_repo.New(txManager)

	tenantSlug := getEnv("SEED_TENANT_SLUG", "demo")
	adminEmail := getEnv("SEED_ADMIN_EMAIL", "admin@example.com")
	adminPassword := getEnv("SEED_ADMIN_PASSWORD", "changeme123")

	// Idempotent: re-running against a seeded database is a no-op.
	existing, err := tenantRepo.GetBySlug(ctx, tenantSlug)
	if err == nil {
		log.Infow("tenant already seeded", "tenant_id", existing.ID, "slug", tenantSlug)
		return
	}

	now := time.Now().UTC()
	t := &tenant.Tenant{
		ID:        id.New(),
		Name:      getEnv("SEED_TENANT_NAME", "Demo Gas Distribution"),
		Slug:      tenantSlug,
		Status:    tenant.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalw("failed to hash password", "error", err)
	}

	admin := auth.NewUser(t.ID, adminEmail, string(hash), "Administrator", auth.RoleAdmin)

	err = txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := tenantRepo.Create(ctx, t); err != nil {
			return err
		}
		ctx = tenant.WithTenant(ctx, t)
		return userRepo.Create(ctx, admin)
	})
	if err != nil {
		log.Fatalw("seed failed", "error", err)
	}

	log.Infow("database seeded",
		"tenant_id", t.ID,
		"tenant_slug", t.Slug,
		"admin_email", admin.Email,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
