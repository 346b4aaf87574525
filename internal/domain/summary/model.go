// Package summary provides daily summaries and their approval workflow.
//
// A cashier opens one summary per day, logs entries under it, then submits
// it for review. A reviewer approves or rejects the whole day; the verdict
// fans out to the summary's pending entries through the changefeed.
//
// Status transitions: in_progress -> pending -> approved | rejected.
// Approved and rejected are terminal; re-reviewing fails explicitly.
package summary

import (
	"context"
	"encoding/json"
	"time"

	"gasflow/internal/core/apperror"
	"gasflow/internal/core/entity"
	"gasflow/internal/core/id"
)

// Status of a daily summary.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
)

// DailySummary groups one cashier's entries for one day.
type DailySummary struct {
	entity.BaseDocument

	// Number is the human-readable summary number (e.g. DS-2026-00001)
	Number string `db:"number" json:"number"`

	Branch      string    `db:"branch" json:"branch"`
	Date        time.Time `db:"date" json:"date"`
	CashierName string    `db:"cashier_name" json:"cashierName"`

	// Meters holds free-form opening/closing pump meter readings
	Meters json.RawMessage `db:"meters" json:"meters,omitempty"`

	Status Status `db:"status" json:"status"`

	SubmittedBy string     `db:"submitted_by" json:"submittedBy"`
	SubmittedAt *time.Time `db:"submitted_at" json:"submittedAt,omitempty"`
	ReviewedBy  *string    `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time `db:"reviewed_at" json:"reviewedAt,omitempty"`

	// ReviewNote carries the reviewer's comment, usually on rejection
	ReviewNote string `db:"review_note" json:"reviewNote,omitempty"`
}

// DayOf truncates a timestamp to its UTC calendar day. Summary dates are
// stored at midnight UTC so day equality is plain equality.
func DayOf(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NewDailySummary opens a summary for one cashier and day. The date is
// normalized to its UTC day regardless of the time of day passed in.
func NewDailySummary(tenantID id.ID, branch string, date time.Time, cashierName, submittedBy string) *DailySummary {
	return &DailySummary{
		BaseDocument: entity.NewBaseDocument(tenantID),
		Branch:       branch,
		Date:         DayOf(date),
		CashierName:  cashierName,
		Status:       StatusInProgress,
		SubmittedBy:  submittedBy,
	}
}

// IsTerminal reports whether the summary has been ruled on.
func (d *DailySummary) IsTerminal() bool {
	return d.Status == StatusApproved || d.Status == StatusRejected
}

// AcceptsEntries reports whether new entries may attach to this summary.
func (d *DailySummary) AcceptsEntries() bool {
	return d.Status == StatusInProgress
}

// Finalize submits the summary for review.
func (d *DailySummary) Finalize(at time.Time) error {
	if d.Status != StatusInProgress {
		return apperror.NewInvalidTransition("DailySummary", string(d.Status), string(StatusPending))
	}
	d.Status = StatusPending
	d.SubmittedAt = &at
	return nil
}

// Review applies the reviewer's verdict. Only pending summaries can be
// reviewed; a second review fails instead of silently rewriting history.
func (d *DailySummary) Review(verdict Status, reviewer string, at time.Time, note string) error {
	if verdict != StatusApproved && verdict != StatusRejected {
		return apperror.NewValidation("verdict must be approved or rejected").
			WithDetail("field", "verdict")
	}
	if d.Status != StatusPending {
		return apperror.NewInvalidTransition("DailySummary", string(d.Status), string(verdict))
	}
	d.Status = verdict
	d.ReviewedBy = &reviewer
	d.ReviewedAt = &at
	d.ReviewNote = note
	return nil
}

// Validate implements entity.Validatable.
func (d *DailySummary) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("summary date is required").
			WithDetail("field", "date")
	}

	if d.CashierName == "" {
		return apperror.NewValidation("cashier name is required").
			WithDetail("field", "cashierName")
	}

	switch d.Status {
	case StatusInProgress, StatusPending, StatusApproved, StatusRejected:
	default:
		return apperror.NewValidation("unknown summary status").
			WithDetail("field", "status")
	}

	return nil
}

var _ entity.Validatable = (*DailySummary)(nil)
