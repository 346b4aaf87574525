package dto

import (
	"encoding/json"
	"time"

	"gasflow/internal/domain/entry"
	"gasflow/internal/domain/summary"
)

// --- Request DTOs ---

type StartSummaryRequest struct {
	Branch      string          `json:"branch" binding:"required"`
	Date        time.Time       `json:"date" binding:"required"`
	CashierName string          `json:"cashierName" binding:"required"`
	Meters      json.RawMessage `json:"meters,omitempty"`
}

func (r *StartSummaryRequest) ToInput() summary.StartInput {
	return summary.StartInput{
		Branch:      r.Branch,
		Date:        r.Date,
		CashierName: r.CashierName,
		Meters:      r.Meters,
	}
}

type ReviewSummaryRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note,omitempty"`
}

func (r *ReviewSummaryRequest) ToInput() summary.ReviewInput {
	return summary.ReviewInput{
		Approve: r.Approve,
		Note:    r.Note,
	}
}

// --- Response DTOs ---

type DailySummaryResponse struct {
	ID           string          `json:"id"`
	Number       string          `json:"number"`
	Branch       string          `json:"branch"`
	Date         time.Time       `json:"date"`
	CashierName  string          `json:"cashierName"`
	Meters       json.RawMessage `json:"meters,omitempty"`
	Status       summary.Status  `json:"status"`
	SubmittedBy  string          `json:"submittedBy"`
	SubmittedAt  *time.Time      `json:"submittedAt,omitempty"`
	ReviewedBy   *string         `json:"reviewedBy,omitempty"`
	ReviewedAt   *time.Time      `json:"reviewedAt,omitempty"`
	ReviewNote   string          `json:"reviewNote,omitempty"`
	DeletionMark bool            `json:"deletionMark,omitempty"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func FromDailySummary(d *summary.DailySummary) DailySummaryResponse {
	return DailySummaryResponse{
		ID:           d.ID.String(),
		Number:       d.Number,
		Branch:       d.Branch,
		Date:         d.Date,
		CashierName:  d.CashierName,
		Meters:       d.Meters,
		Status:       d.Status,
		SubmittedBy:  d.SubmittedBy,
		SubmittedAt:  d.SubmittedAt,
		ReviewedBy:   d.ReviewedBy,
		ReviewedAt:   d.ReviewedAt,
		ReviewNote:   d.ReviewNote,
		DeletionMark: d.DeletionMark,
		Version:      d.Version,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// DailySummaryDetailResponse is the summary together with its child entries.
type DailySummaryDetailResponse struct {
	DailySummaryResponse
	Entries []DataEntryResponse `json:"entries"`
}

func FromDailySummaryDetail(d *summary.DailySummary, entries []*entry.DataEntry) DailySummaryDetailResponse {
	return DailySummaryDetailResponse{
		DailySummaryResponse: FromDailySummary(d),
		Entries:              FromDataEntries(entries),
	}
}

func FromDailySummaries(summaries []*summary.DailySummary) []DailySummaryResponse {
	out := make([]DailySummaryResponse, 0, len(summaries))
	for _, d := range summaries {
		out = append(out, FromDailySummary(d))
	}
	return out
}
