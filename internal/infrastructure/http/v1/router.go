// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"gasflow/internal/core/tenant"
	"gasflow/internal/domain/aggregate"
	"gasflow/internal/domain/auth"
	"gasflow/internal/domain/batch"
	"gasflow/internal/domain/changefeed"
	"gasflow/internal/domain/entry"
	"gasflow/internal/domain/summary"
	"gasflow/internal/infrastructure/http/v1/handlers"
	"gasflow/internal/infrastructure/http/v1/middleware"
	"gasflow/internal/infrastructure/storage/postgres"
	"gasflow/internal/infrastructure/storage/postgres/aggregate_repo"
	"gasflow/internal/infrastructure/storage/postgres/batch_repo"
	"gasflow/internal/infrastructure/storage/postgres/entry_repo"
	"gasflow/internal/infrastructure/storage/postgres/summary_repo"
	"gasflow/pkg/logger"
	"gasflow/pkg/numerator"
)

// RouterConfig holds everything the router needs to build the API.
type RouterConfig struct {
	// Pool is the shared database connection pool (for health checks)
	Pool *postgres.Pool

	// TxManager runs all request transactions
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// TenantRegistry resolves the X-Tenant-ID header
	TenantRegistry tenant.Registry

	// Numerator generates document numbers
	Numerator *numerator.Service

	// Feed publishes document changes for the aggregate updaters
	Feed changefeed.Publisher

	// Audit records who did what
	Audit *postgres.AuditService
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth, no tenant required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Domain services share one wiring; the entry service needs the batch
	// allocator and the summary guard, so build bottom-up.
	batchRepo := batch_repo.New(cfg.TxManager)
	entryRepo := entry_repo.New(cfg.TxManager)
	summaryRepo := summary_repo.New(cfg.TxManager)
	aggregateRepo := aggregate_repo.New(cfg.TxManager)

	batchService := batch.NewService(batchRepo, cfg.Numerator, cfg.TxManager, cfg.Feed)
	summaryService := summary.NewService(summaryRepo, cfg.Numerator, cfg.TxManager, cfg.Feed)
	entryService := entry.NewService(entryRepo, batchService, summaryService, cfg.TxManager, cfg.Feed)
	aggregateService := aggregate.NewService(aggregateRepo)

	base := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
	batchHandler := handlers.NewBatchHandler(base, batchService, cfg.Audit)
	entryHandler := handlers.NewEntryHandler(base, entryService, cfg.Audit)
	summaryHandler := handlers.NewSummaryHandler(base, summaryService, entryService, cfg.Audit)
	reportsHandler := handlers.NewReportsHandler(base, aggregateService)

	// API v1
	apiV1 := router.Group("/api/v1")
	{
		// Login needs tenant scope (users live in tenant tables) but no JWT.
		publicAuth := apiV1.Group("/auth")
		publicAuth.Use(middleware.Tenant(cfg.TenantRegistry))
		publicAuth.POST("/login", authHandler.Login)

		// Everything else: tenant, then JWT.
		protected := apiV1.Group("")
		protected.Use(middleware.Tenant(cfg.TenantRegistry))
		protected.Use(middleware.Auth(cfg.JWTValidator))

		authGroup := protected.Group("/auth")
		{
			authGroup.GET("/me", authHandler.Me)
			authGroup.POST("/register", middleware.RequireRole(auth.RoleAdmin), authHandler.Register)
			authGroup.GET("/users", middleware.RequireRole(auth.RoleAdmin), authHandler.ListUsers)
		}

		batches := protected.Group("/batches")
		{
			batches.GET("", batchHandler.List)
			batches.POST("", batchHandler.Create)
			batches.GET("/:id", batchHandler.Get)
			batches.POST("/:id/correct", middleware.RequireRole(auth.RoleAdmin), batchHandler.Correct)
			batches.DELETE("/:id", middleware.RequireRole(auth.RoleAdmin), batchHandler.Delete)
		}

		entries := protected.Group("/entries")
		{
			entries.GET("", entryHandler.List)
			entries.POST("/sales", entryHandler.RecordSale)
			entries.POST("/expenses", entryHandler.RecordExpense)
			entries.GET("/:id", entryHandler.Get)
			entries.PUT("/:id", entryHandler.Update)
			entries.DELETE("/:id", entryHandler.Delete)
		}

		summaries := protected.Group("/summaries")
		{
			summaries.GET("", summaryHandler.List)
			summaries.POST("", summaryHandler.Start)
			summaries.GET("/:id", summaryHandler.Get)
			summaries.POST("/:id/finalize", summaryHandler.Finalize)
			summaries.POST("/:id/review",
				middleware.RequireRole(auth.RoleReviewer, auth.RoleAdmin),
				summaryHandler.Review)
		}

		reports := protected.Group("/reports")
		{
			reports.GET("/monthly", reportsHandler.Monthly)
			reports.GET("/inventory", reportsHandler.Inventory)
		}
	}

	return router
}
