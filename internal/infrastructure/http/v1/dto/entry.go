package dto

import (
	"time"

	"gasflow/internal/core/id"
	"gasflow/internal/core/types"
	"gasflow/internal/domain/entry"
)

// --- Request DTOs ---

type RecordSaleRequest struct {
	SummaryID string         `json:"summaryId" binding:"required"`
	Branch    string         `json:"branch"`
	Date      time.Time      `json:"date" binding:"required"`
	Revenue   types.Money    `json:"revenue" binding:"required"`
	KgSold    types.Quantity `json:"kgSold" binding:"required"`
}

func (r *RecordSaleRequest) ToInput(summaryID id.ID) entry.SaleInput {
	return entry.SaleInput{
		SummaryID: summaryID,
		Branch:    r.Branch,
		Date:      r.Date,
		Revenue:   r.Revenue,
		KgSold:    r.KgSold,
	}
}

type RecordExpenseRequest struct {
	SummaryID   string      `json:"summaryId" binding:"required"`
	Branch      string      `json:"branch"`
	Date        time.Time   `json:"date" binding:"required"`
	Amount      types.Money `json:"amount" binding:"required"`
	Category    string      `json:"category" binding:"required"`
	Description string      `json:"description,omitempty"`
}

func (r *RecordExpenseRequest) ToInput(summaryID id.ID) entry.ExpenseInput {
	return entry.ExpenseInput{
		SummaryID:   summaryID,
		Branch:      r.Branch,
		Date:        r.Date,
		Amount:      r.Amount,
		Category:    r.Category,
		Description: r.Description,
	}
}

type UpdateEntryRequest struct {
	Revenue     *types.Money    `json:"revenue,omitempty"`
	KgSold      *types.Quantity `json:"kgSold,omitempty"`
	Amount      *types.Money    `json:"amount,omitempty"`
	Category    *string         `json:"category,omitempty"`
	Description *string         `json:"description,omitempty"`
}

func (r *UpdateEntryRequest) ToInput() entry.UpdateInput {
	return entry.UpdateInput{
		Revenue:     r.Revenue,
		KgSold:      r.KgSold,
		Amount:      r.Amount,
		Category:    r.Category,
		Description: r.Description,
	}
}

// --- Response DTOs ---

type DataEntryResponse struct {
	ID             string          `json:"id"`
	EntryType      entry.Type      `json:"entryType"`
	Branch         string          `json:"branch"`
	Date           time.Time       `json:"date"`
	Status         entry.Status    `json:"status"`
	DailySummaryID string          `json:"dailySummaryId"`
	SubmittedBy    string          `json:"submittedBy"`
	SubmittedAt    time.Time       `json:"submittedAt"`
	ReviewedBy     *string         `json:"reviewedBy,omitempty"`
	ReviewedAt     *time.Time      `json:"reviewedAt,omitempty"`
	Revenue        *types.Money    `json:"revenue,omitempty"`
	KgSold         *types.Quantity `json:"kgSold,omitempty"`
	BatchID        *string         `json:"batchId,omitempty"`
	Amount         *types.Money    `json:"amount,omitempty"`
	Category       string          `json:"category,omitempty"`
	Description    string          `json:"description,omitempty"`
	DeletionMark   bool            `json:"deletionMark,omitempty"`
	Version        int             `json:"version"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func FromDataEntry(e *entry.DataEntry) DataEntryResponse {
	resp := DataEntryResponse{
		ID:             e.ID.String(),
		EntryType:      e.EntryType,
		Branch:         e.Branch,
		Date:           e.Date,
		Status:         e.Status,
		DailySummaryID: e.DailySummaryID.String(),
		SubmittedBy:    e.SubmittedBy,
		SubmittedAt:    e.SubmittedAt,
		ReviewedBy:     e.ReviewedBy,
		ReviewedAt:     e.ReviewedAt,
		Category:       e.Category,
		Description:    e.Description,
		DeletionMark:   e.DeletionMark,
		Version:        e.Version,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}

	switch e.EntryType {
	case entry.TypeSale:
		revenue := e.Revenue
		kgSold := e.KgSold
		resp.Revenue = &revenue
		resp.KgSold = &kgSold
		if e.BatchID != nil {
			batchID := e.BatchID.String()
			resp.BatchID = &batchID
		}
	case entry.TypeExpense:
		amount := e.Amount
		resp.Amount = &amount
	}

	return resp
}

func FromDataEntries(entries []*entry.DataEntry) []DataEntryResponse {
	out := make([]DataEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, FromDataEntry(e))
	}
	return out
}
