// Package entry provides the daily data entry recorder.
//
// Cashiers log two kinds of entries: gas sales and expenses. Entries start
// in pending status, belong to a daily summary, and become approved or
// rejected when a reviewer rules on the whole summary. Reporting aggregates
// only ever count approved entries.
package entry

import (
	"context"
	"time"

	"gasflow/internal/core/apperror"
	"gasflow/internal/core/entity"
	"gasflow/internal/core/id"
	"gasflow/internal/core/types"
)

// Type discriminates sale and expense entries.
type Type string

const (
	TypeSale    Type = "sale"
	TypeExpense Type = "expense"
)

// Status of an entry in the approval workflow.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// DataEntry is one logged sale or expense.
type DataEntry struct {
	entity.BaseDocument

	EntryType Type      `db:"entry_type" json:"entryType"`
	Branch    string    `db:"branch" json:"branch"`
	Date      time.Time `db:"date" json:"date"`
	Status    Status    `db:"status" json:"status"`

	// DailySummaryID groups the entry under one day's summary
	DailySummaryID id.ID `db:"daily_summary_id" json:"dailySummaryId"`

	SubmittedBy string     `db:"submitted_by" json:"submittedBy"`
	SubmittedAt time.Time  `db:"submitted_at" json:"submittedAt"`
	ReviewedBy  *string    `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time `db:"reviewed_at" json:"reviewedAt,omitempty"`

	// Sale fields. BatchID records which stock batch covered the sale.
	Revenue types.Money    `db:"revenue" json:"revenue"`
	KgSold  types.Quantity `db:"kg_sold" json:"kgSold"`
	BatchID *id.ID         `db:"batch_id" json:"batchId,omitempty"`

	// Expense fields
	Amount      types.Money `db:"amount" json:"amount"`
	Category    string      `db:"category" json:"category,omitempty"`
	Description string      `db:"description" json:"description,omitempty"`
}

// NewSaleEntry creates a pending sale entry.
func NewSaleEntry(tenantID, summaryID id.ID, branch string, date time.Time, revenue types.Money, kgSold types.Quantity) *DataEntry {
	return &DataEntry{
		BaseDocument:   entity.NewBaseDocument(tenantID),
		EntryType:      TypeSale,
		Branch:         branch,
		Date:           date,
		Status:         StatusPending,
		DailySummaryID: summaryID,
		SubmittedAt:    time.Now().UTC(),
		Revenue:        revenue,
		KgSold:         kgSold,
	}
}

// NewExpenseEntry creates a pending expense entry.
func NewExpenseEntry(tenantID, summaryID id.ID, branch string, date time.Time, amount types.Money, category, description string) *DataEntry {
	return &DataEntry{
		BaseDocument:   entity.NewBaseDocument(tenantID),
		EntryType:      TypeExpense,
		Branch:         branch,
		Date:           date,
		Status:         StatusPending,
		DailySummaryID: summaryID,
		SubmittedAt:    time.Now().UTC(),
		Amount:         amount,
		Category:       category,
		Description:    description,
	}
}

// IsApproved reports whether the entry currently counts toward aggregates.
func (e *DataEntry) IsApproved() bool {
	return e.Status == StatusApproved
}

// MarkReviewed applies a review verdict.
func (e *DataEntry) MarkReviewed(status Status, reviewer string, at time.Time) {
	e.Status = status
	e.ReviewedBy = &reviewer
	e.ReviewedAt = &at
}

// Validate implements entity.Validatable.
func (e *DataEntry) Validate(ctx context.Context) error {
	if e.Date.IsZero() {
		return apperror.NewValidation("entry date is required").
			WithDetail("field", "date")
	}

	if id.IsNil(e.DailySummaryID) {
		return apperror.NewValidation("daily summary is required").
			WithDetail("field", "dailySummaryId")
	}

	switch e.EntryType {
	case TypeSale:
		if !e.KgSold.IsPositive() {
			return apperror.NewValidation("sold quantity must be positive").
				WithDetail("field", "kgSold")
		}
		if e.Revenue.IsNegative() {
			return apperror.NewValidation("revenue cannot be negative").
				WithDetail("field", "revenue")
		}
	case TypeExpense:
		if !e.Amount.IsPositive() {
			return apperror.NewValidation("expense amount must be positive").
				WithDetail("field", "amount")
		}
		if e.Category == "" {
			return apperror.NewValidation("expense category is required").
				WithDetail("field", "category")
		}
	default:
		return apperror.NewValidation("unknown entry type").
			WithDetail("field", "entryType")
	}

	return nil
}

var _ entity.Validatable = (*DataEntry)(nil)
