// Package changefeed defines the document change events that drive
// aggregate maintenance.
//
// Every business write records a change event in the same transaction as the
// document write itself. A background worker later feeds committed events to
// the registered handlers, which merge deltas into the reporting aggregates.
// Aggregates are therefore eventually consistent with the documents, but no
// change can be lost between the two.
package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gasflow/internal/core/id"
)

// Action describes what happened to the source document.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Collections that emit change events.
const (
	CollectionStockBatches   = "stock_batches"
	CollectionDataEntries    = "data_entries"
	CollectionDailySummaries = "daily_summaries"
)

// Status of a stored change event.
type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

// Change is what producers publish. Before and After are full document
// snapshots; Before is nil for created, After is nil for deleted.
type Change struct {
	Collection string
	DocumentID id.ID
	Action     Action
	Before     any
	After      any
}

// Event is a persisted change event as read back by the worker.
type Event struct {
	ID          id.ID           `db:"id"`
	TenantID    id.ID           `db:"tenant_id"`
	Collection  string          `db:"collection"`
	DocumentID  id.ID           `db:"document_id"`
	Action      Action          `db:"action"`
	Before      json.RawMessage `db:"before_doc"`
	After       json.RawMessage `db:"after_doc"`
	Status      Status          `db:"status"`
	RetryCount  int             `db:"retry_count"`
	LastError   *string         `db:"last_error"`
	NextRetryAt *time.Time      `db:"next_retry_at"`
	CreatedAt   time.Time       `db:"created_at"`
	ProcessedAt *time.Time      `db:"processed_at"`
}

// Publisher records change events. Implementations append to storage inside
// the caller's transaction, so events commit or roll back with the document.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// Handler consumes committed change events for one or more collections.
// Handle runs inside the worker's processing transaction: its writes commit
// together with the event being marked processed.
type Handler interface {
	// Name identifies the handler in logs.
	Name() string

	// Handle applies the event. Returning an error schedules a retry.
	Handle(ctx context.Context, event *Event) error
}

// DecodeSnapshot unmarshals a document snapshot into T.
// Returns nil for an absent snapshot (created has no Before, deleted no After).
func DecodeSnapshot[T any](raw json.RawMessage) (*T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &doc, nil
}
