// Package batch provides the stock batch ledger for LPG purchases.
//
// Each purchase of gas creates a batch. Sales consume stock from the oldest
// batch that still has remaining quantity, never splitting a single sale
// across batches. A batch with zero remaining quantity is depleted and
// skipped by allocation.
package batch

import (
	"context"
	"time"

	"gasflow/internal/core/apperror"
	"gasflow/internal/core/entity"
	"gasflow/internal/core/id"
	"gasflow/internal/core/types"
)

// StockBatch represents one LPG purchase lot.
type StockBatch struct {
	entity.BaseDocument

	// Number is the human-readable batch number (e.g. SB-2026-00001)
	Number string `db:"number" json:"number"`

	// PurchaseDate is when the gas was bought
	PurchaseDate time.Time `db:"purchase_date" json:"purchaseDate"`

	// Supplier is free-form; suppliers are not a managed catalog
	Supplier string `db:"supplier" json:"supplier"`

	// QuantityKg is the purchased quantity. Corrections may change it.
	QuantityKg types.Quantity `db:"quantity_kg" json:"quantityKg"`

	// RemainingKg is what sales have not yet consumed.
	// Debited only through conditional updates, see Repository.DebitRemaining.
	RemainingKg types.Quantity `db:"remaining_kg" json:"remainingKg"`

	// CostPerKg is the purchase price per kilogram
	CostPerKg types.Money `db:"cost_per_kg" json:"costPerKg"`

	// TargetSalePricePerKg guides cashiers; sales may deviate from it
	TargetSalePricePerKg types.Money `db:"target_sale_price_per_kg" json:"targetSalePricePerKg"`

	// TotalCost = QuantityKg * CostPerKg, denormalized for reports
	TotalCost types.Money `db:"total_cost" json:"totalCost"`

	Notes string `db:"notes" json:"notes,omitempty"`
}

// NewStockBatch creates a new batch for the given tenant.
// Remaining stock starts equal to the purchased quantity.
func NewStockBatch(tenantID id.ID, purchaseDate time.Time, supplier string, quantityKg types.Quantity, costPerKg types.Money) *StockBatch {
	b := &StockBatch{
		BaseDocument: entity.NewBaseDocument(tenantID),
		PurchaseDate: purchaseDate,
		Supplier:     supplier,
		QuantityKg:   quantityKg,
		RemainingKg:  quantityKg,
		CostPerKg:    costPerKg,
	}
	b.RecalculateTotalCost()
	return b
}

// IsDepleted reports whether the batch has no remaining stock.
func (b *StockBatch) IsDepleted() bool {
	return b.RemainingKg.IsZero()
}

// SoldKg returns the quantity already consumed by sales.
func (b *StockBatch) SoldKg() types.Quantity {
	return b.QuantityKg - b.RemainingKg
}

// RecalculateTotalCost refreshes the denormalized cost field.
func (b *StockBatch) RecalculateTotalCost() {
	b.TotalCost = b.CostPerKg.Mul(types.NewMoney(b.QuantityKg.Float64()))
}

// Correction is a manual adjustment of batch figures.
type Correction struct {
	QuantityKg           types.Quantity
	CostPerKg            types.Money
	TargetSalePricePerKg types.Money
	Supplier             string
	Notes                string
}

// ApplyCorrection changes quantity and prices, shifting remaining stock by
// the quantity delta. Remaining is clamped at zero when the correction
// shrinks the batch under what was already sold.
func (b *StockBatch) ApplyCorrection(c Correction) {
	delta := c.QuantityKg - b.QuantityKg
	b.QuantityKg = c.QuantityKg
	b.RemainingKg += delta
	if b.RemainingKg.IsNegative() {
		b.RemainingKg = 0
	}
	b.CostPerKg = c.CostPerKg
	b.TargetSalePricePerKg = c.TargetSalePricePerKg
	if c.Supplier != "" {
		b.Supplier = c.Supplier
	}
	b.Notes = c.Notes
	b.RecalculateTotalCost()
}

// Validate implements entity.Validatable.
func (b *StockBatch) Validate(ctx context.Context) error {
	if b.PurchaseDate.IsZero() {
		return apperror.NewValidation("purchase date is required").
			WithDetail("field", "purchaseDate")
	}

	if b.Supplier == "" {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplier")
	}

	if !b.QuantityKg.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantityKg")
	}

	if b.RemainingKg.IsNegative() {
		return apperror.NewValidation("remaining quantity cannot be negative").
			WithDetail("field", "remainingKg")
	}

	if b.RemainingKg > b.QuantityKg {
		return apperror.NewValidation("remaining quantity cannot exceed purchased quantity").
			WithDetail("field", "remainingKg")
	}

	if b.CostPerKg.IsNegative() {
		return apperror.NewValidation("cost per kg cannot be negative").
			WithDetail("field", "costPerKg")
	}

	return nil
}

var _ entity.Validatable = (*StockBatch)(nil)
