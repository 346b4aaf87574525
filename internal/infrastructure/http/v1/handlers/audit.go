package handlers

import (
	"context"

	"gasflow/internal/core/id"
	"gasflow/internal/infrastructure/storage/postgres"
	"gasflow/pkg/logger"
)

// auditRecorder is the slice of postgres.AuditService the handlers need.
type auditRecorder interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action postgres.AuditAction, changes map[string]any) error
}

// logAudit writes a best-effort audit record. A failed write never fails
// the request, but it is logged so gaps in the trail stay visible.
func logAudit(ctx context.Context, rec auditRecorder, entityType string, entityID id.ID, action postgres.AuditAction, changes map[string]any) {
	if err := rec.LogChange(ctx, entityType, entityID, action, changes); err != nil {
		logger.Warn(ctx, "audit write failed",
			"entity", entityType,
			"entity_id", entityID,
			"action", string(action),
			"error", err)
	}
}
