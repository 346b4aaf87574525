package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"gasflow/internal/core/id"
	"gasflow/internal/core/tenant"
	"gasflow/internal/domain/changefeed"
	"gasflow/pkg/logger"
)

// Compile-time check.
var _ changefeed.Publisher = (*ChangefeedPublisher)(nil)

// ChangefeedPublisher appends change events to sys_changefeed.
type ChangefeedPublisher struct {
	txManager *TxManager
}

// NewChangefeedPublisher creates a new changefeed publisher.
func NewChangefeedPublisher(txManager *TxManager) *ChangefeedPublisher {
	return &ChangefeedPublisher{txManager: txManager}
}

// Publish writes a change event within the current transaction.
// MUST be called inside a transaction context so the event commits or rolls
// back together with the document write.
func (p *ChangefeedPublisher) Publish(ctx context.Context, change changefeed.Change) error {
	tx := p.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("changefeed publish requires transaction context")
	}

	tenantID, err := tenant.GetTenantID(ctx)
	if err != nil {
		return fmt.Errorf("changefeed publish: %w", err)
	}

	before, err := marshalSnapshot(change.Before)
	if err != nil {
		return fmt.Errorf("marshal before snapshot: %w", err)
	}
	after, err := marshalSnapshot(change.After)
	if err != nil {
		return fmt.Errorf("marshal after snapshot: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO sys_changefeed (id, tenant_id, collection, document_id, action, before_doc, after_doc, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, id.New(), tenantID, change.Collection, change.DocumentID, change.Action, before, after, changefeed.StatusPending, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("insert change event: %w", err)
	}

	return nil
}

func marshalSnapshot(doc any) ([]byte, error) {
	if doc == nil {
		return nil, nil
	}
	return json.Marshal(doc)
}

// ChangefeedProcessor reads pending change events and dispatches them to
// registered handlers. Used by the background worker.
//
// Each event is processed in its own transaction: the handlers' aggregate
// writes and the processed mark commit atomically, so an event is never
// applied twice and never marked done without being applied.
type ChangefeedProcessor struct {
	txManager *TxManager
	batchSize int
	handlers  map[string][]changefeed.Handler
}

// NewChangefeedProcessor creates a new processor.
func NewChangefeedProcessor(txManager *TxManager, batchSize int) *ChangefeedProcessor {
	return &ChangefeedProcessor{
		txManager: txManager,
		batchSize: batchSize,
		handlers:  make(map[string][]changefeed.Handler),
	}
}

// Register subscribes a handler to a collection.
func (p *ChangefeedProcessor) Register(collection string, handler changefeed.Handler) {
	p.handlers[collection] = append(p.handlers[collection], handler)
}

// ProcessBatch claims and processes pending events.
// Returns number of successfully processed events.
func (p *ChangefeedProcessor) ProcessBatch(ctx context.Context) (int, error) {
	ids, err := p.fetchPendingIDs(ctx)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, eventID := range ids {
		if err := p.processEvent(ctx, eventID); err != nil {
			logger.Warn(ctx, "change event processing failed", "event_id", eventID, "error", err)
			continue
		}
		processed++
	}

	return processed, nil
}

func (p *ChangefeedProcessor) fetchPendingIDs(ctx context.Context) ([]id.ID, error) {
	rows, err := p.txManager.GetQuerier(ctx).Query(ctx, `
		SELECT id
		FROM sys_changefeed
		WHERE status = $1
		  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY created_at
		LIMIT $2
	`, changefeed.StatusPending, p.batchSize)
	if err != nil {
		return nil, fmt.Errorf("fetch pending change events: %w", err)
	}
	defer rows.Close()

	var ids []id.ID
	for rows.Next() {
		var eventID id.ID
		if err := rows.Scan(&eventID); err != nil {
			return nil, fmt.Errorf("scan change event id: %w", err)
		}
		ids = append(ids, eventID)
	}
	return ids, rows.Err()
}

// processEvent claims one event with FOR UPDATE SKIP LOCKED and runs its
// handlers inside the same transaction.
func (p *ChangefeedProcessor) processEvent(ctx context.Context, eventID id.ID) error {
	var handlerErr error

	err := p.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		event, err := p.claimEvent(txCtx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			// Claimed by a concurrent worker, nothing to do.
			return nil
		}

		// Handlers need tenant scope; the worker has no HTTP middleware.
		txCtx = tenant.WithTenant(txCtx, &tenant.Tenant{ID: event.TenantID, Status: tenant.StatusActive})

		for _, handler := range p.handlers[event.Collection] {
			if err := handler.Handle(txCtx, event); err != nil {
				handlerErr = fmt.Errorf("handler %s: %w", handler.Name(), err)
				return handlerErr
			}
		}

		now := time.Now().UTC()
		_, err = p.txManager.GetQuerier(txCtx).Exec(txCtx, `
			UPDATE sys_changefeed
			SET status = $1, processed_at = $2
			WHERE id = $3
		`, changefeed.StatusProcessed, now, eventID)
		return err
	})

	if err != nil && handlerErr != nil {
		// Handler failed: the aggregate writes rolled back, record the retry.
		if recErr := p.recordFailure(ctx, eventID, handlerErr); recErr != nil {
			logger.Error(ctx, "record change event failure", "event_id", eventID, "error", recErr)
		}
	}

	return err
}

func (p *ChangefeedProcessor) claimEvent(ctx context.Context, eventID id.ID) (*changefeed.Event, error) {
	row := p.txManager.GetQuerier(ctx).QueryRow(ctx, `
		SELECT id, tenant_id, collection, document_id, action, before_doc, after_doc,
		       status, retry_count, last_error, next_retry_at, created_at, processed_at
		FROM sys_changefeed
		WHERE id = $1 AND status = $2
		FOR UPDATE SKIP LOCKED
	`, eventID, changefeed.StatusPending)

	var event changefeed.Event
	err := row.Scan(
		&event.ID, &event.TenantID, &event.Collection, &event.DocumentID, &event.Action,
		&event.Before, &event.After, &event.Status, &event.RetryCount, &event.LastError,
		&event.NextRetryAt, &event.CreatedAt, &event.ProcessedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim change event: %w", err)
	}
	return &event, nil
}

// recordFailure increments retry count with linear backoff.
// After 5 failed attempts the event is marked failed and becomes a DLQ candidate.
func (p *ChangefeedProcessor) recordFailure(ctx context.Context, eventID id.ID, cause error) error {
	errStr := cause.Error()
	_, err := p.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_changefeed
		SET retry_count = retry_count + 1,
		    last_error = $1,
		    next_retry_at = NOW() + (retry_count + 1) * INTERVAL '1 minute',
		    status = CASE WHEN retry_count >= 4 THEN $2 ELSE status END
		WHERE id = $3
	`, errStr, changefeed.StatusFailed, eventID)
	return err
}

// MoveToDLQ moves failed events to the dead letter table.
func (p *ChangefeedProcessor) MoveToDLQ(ctx context.Context) (int64, error) {
	result, err := p.txManager.GetQuerier(ctx).Exec(ctx, `
		WITH moved AS (
			DELETE FROM sys_changefeed
			WHERE status = $1
			RETURNING id, tenant_id, collection, document_id, action, before_doc, after_doc,
			          retry_count, last_error, created_at
		)
		INSERT INTO sys_changefeed_dlq (id, tenant_id, collection, document_id, action, before_doc, after_doc,
		                                retry_count, failure_reason, created_at, failed_at)
		SELECT id, tenant_id, collection, document_id, action, before_doc, after_doc,
		       retry_count, last_error, created_at, NOW()
		FROM moved
	`, changefeed.StatusFailed)

	if err != nil {
		return 0, fmt.Errorf("move to DLQ: %w", err)
	}

	return result.RowsAffected(), nil
}
