package middleware

import (
	"github.com/gin-gonic/gin"

	"gasflow/internal/core/apperror"
	"gasflow/internal/core/id"
	"gasflow/internal/core/tenant"
)

// TenantHeader is the HTTP header for tenant identification.
const TenantHeader = "X-Tenant-ID"

// Tenant middleware resolves the workspace from the X-Tenant-ID header and
// injects it into the request context. All repositories require this scope,
// so it MUST run before any database operation.
func Tenant(registry tenant.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(TenantHeader)
		if raw == "" {
			_ = c.Error(
				apperror.NewValidation("tenant is required").
					WithDetail("header", TenantHeader),
			)
			c.Abort()
			return
		}

		tenantID, err := id.Parse(raw)
		if err != nil {
			_ = c.Error(
				apperror.NewValidation("invalid tenant id").
					WithDetail("header", TenantHeader).
					WithDetail("value", raw),
			)
			c.Abort()
			return
		}

		t, err := registry.GetByID(c.Request.Context(), tenantID)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		if !t.IsActive() {
			_ = c.Error(
				apperror.NewForbidden("tenant is not active").
					WithDetail("tenant_id", tenantID.String()),
			)
			c.Abort()
			return
		}

		ctx := tenant.WithTenant(c.Request.Context(), t)
		c.Request = c.Request.WithContext(ctx)

		c.Set("tenant_id", tenantID.String())

		c.Next()
	}
}
