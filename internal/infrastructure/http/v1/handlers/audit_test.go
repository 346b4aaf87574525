package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"gasflow/internal/core/id"
	"gasflow/internal/infrastructure/storage/postgres"
)

// Mock objects

type stubAuditRecorder struct {
	entityType string
	entityID   id.ID
	action     postgres.AuditAction
	changes    map[string]any
	calls      int
	err        error
}

func (s *stubAuditRecorder) LogChange(ctx context.Context, entityType string, entityID id.ID, action postgres.AuditAction, changes map[string]any) error {
	s.calls++
	s.entityType = entityType
	s.entityID = entityID
	s.action = action
	s.changes = changes
	return s.err
}

var _ auditRecorder = (*stubAuditRecorder)(nil)

func TestLogAudit_RecordsChange(t *testing.T) {
	rec := &stubAuditRecorder{}
	batchID := id.New()

	logAudit(context.Background(), rec, "stock_batch", batchID, postgres.AuditActionCreate, map[string]any{
		"number": "SB-2026-00001",
	})

	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, "stock_batch", rec.entityType)
	assert.Equal(t, batchID, rec.entityID)
	assert.Equal(t, postgres.AuditActionCreate, rec.action)
	assert.Equal(t, "SB-2026-00001", rec.changes["number"])
}

func TestLogAudit_WriteFailureDoesNotPropagate(t *testing.T) {
	rec := &stubAuditRecorder{err: errors.New("insert failed")}

	logAudit(context.Background(), rec, "data_entry", id.New(), postgres.AuditActionDelete, nil)

	// The failure is logged, not returned; the request path keeps going.
	assert.Equal(t, 1, rec.calls)
}
