// Package audit provides utilities for audit field enrichment in domain entities.
package audit

import (
	"context"

	appctx "gasflow/internal/core/context"
)

// EnrichCreatedBy sets CreatedBy and UpdatedBy fields from context user ID.
// Call before persisting a new document. No-op when no user is in context
// (background worker, seed tool).
func EnrichCreatedBy(ctx context.Context, entity any) error {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return nil
	}

	if e, ok := entity.(interface {
		SetCreatedBy(string)
		SetUpdatedBy(string)
	}); ok {
		e.SetCreatedBy(userID)
		e.SetUpdatedBy(userID)
	}

	return nil
}

// EnrichUpdatedBy sets only UpdatedBy field from context user ID.
// Call before persisting a modification.
func EnrichUpdatedBy(ctx context.Context, entity any) error {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return nil
	}

	if e, ok := entity.(interface{ SetUpdatedBy(string) }); ok {
		e.SetUpdatedBy(userID)
	}

	return nil
}
