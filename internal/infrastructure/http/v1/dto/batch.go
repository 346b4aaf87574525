package dto

import (
	"time"

	"gasflow/internal/core/id"
	"gasflow/internal/core/types"
	"gasflow/internal/domain/batch"
)

// --- Request DTOs ---

type CreateStockBatchRequest struct {
	Number               string         `json:"number,omitempty"`
	PurchaseDate         time.Time      `json:"purchaseDate" binding:"required"`
	Supplier             string         `json:"supplier" binding:"required"`
	QuantityKg           types.Quantity `json:"quantityKg" binding:"required"`
	CostPerKg            types.Money    `json:"costPerKg" binding:"required"`
	TargetSalePricePerKg types.Money    `json:"targetSalePricePerKg"`
	Notes                string         `json:"notes,omitempty"`
}

// ToBatch builds the domain entity for the active tenant.
func (r *CreateStockBatchRequest) ToBatch(tenantID id.ID) *batch.StockBatch {
	b := batch.NewStockBatch(tenantID, r.PurchaseDate, r.Supplier, r.QuantityKg, r.CostPerKg)
	b.Number = r.Number
	b.TargetSalePricePerKg = r.TargetSalePricePerKg
	b.Notes = r.Notes
	return b
}

type CorrectStockBatchRequest struct {
	QuantityKg           types.Quantity `json:"quantityKg" binding:"required"`
	CostPerKg            types.Money    `json:"costPerKg" binding:"required"`
	TargetSalePricePerKg types.Money    `json:"targetSalePricePerKg"`
	Supplier             string         `json:"supplier,omitempty"`
	Notes                string         `json:"notes,omitempty"`
}

func (r *CorrectStockBatchRequest) ToCorrection() batch.Correction {
	return batch.Correction{
		QuantityKg:           r.QuantityKg,
		CostPerKg:            r.CostPerKg,
		TargetSalePricePerKg: r.TargetSalePricePerKg,
		Supplier:             r.Supplier,
		Notes:                r.Notes,
	}
}

// --- Response DTOs ---

type StockBatchResponse struct {
	ID                   string         `json:"id"`
	Number               string         `json:"number"`
	PurchaseDate         time.Time      `json:"purchaseDate"`
	Supplier             string         `json:"supplier"`
	QuantityKg           types.Quantity `json:"quantityKg"`
	RemainingKg          types.Quantity `json:"remainingKg"`
	SoldKg               types.Quantity `json:"soldKg"`
	CostPerKg            types.Money    `json:"costPerKg"`
	TargetSalePricePerKg types.Money    `json:"targetSalePricePerKg"`
	TotalCost            types.Money    `json:"totalCost"`
	Depleted             bool           `json:"depleted"`
	Notes                string         `json:"notes,omitempty"`
	DeletionMark         bool           `json:"deletionMark,omitempty"`
	Version              int            `json:"version"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

func FromStockBatch(b *batch.StockBatch) StockBatchResponse {
	return StockBatchResponse{
		ID:                   b.ID.String(),
		Number:               b.Number,
		PurchaseDate:         b.PurchaseDate,
		Supplier:             b.Supplier,
		QuantityKg:           b.QuantityKg,
		RemainingKg:          b.RemainingKg,
		SoldKg:               b.SoldKg(),
		CostPerKg:            b.CostPerKg,
		TargetSalePricePerKg: b.TargetSalePricePerKg,
		TotalCost:            b.TotalCost,
		Depleted:             b.IsDepleted(),
		Notes:                b.Notes,
		DeletionMark:         b.DeletionMark,
		Version:              b.Version,
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}
}

func FromStockBatches(batches []*batch.StockBatch) []StockBatchResponse {
	out := make([]StockBatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, FromStockBatch(b))
	}
	return out
}
