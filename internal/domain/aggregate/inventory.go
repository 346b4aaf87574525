package aggregate

import (
	"context"
	"fmt"

	"gasflow/internal/core/types"
	"gasflow/internal/domain/batch"
	"gasflow/internal/domain/changefeed"
	"gasflow/internal/domain/entry"
	"gasflow/pkg/logger"
)

// InventoryHandler keeps live_inventory in sync with batch purchases and
// approved sales.
//
// Batch events move stock by the change in purchased quantity; a sale
// debiting remaining_kg leaves quantity_kg untouched and nets zero here,
// because the matching sale entry event carries that movement. Sale entry
// events subtract sold kilograms while the entry is approved, crediting
// them back when approval is withdrawn.
type InventoryHandler struct {
	repo Repository
}

// NewInventoryHandler creates the live inventory updater.
func NewInventoryHandler(repo Repository) *InventoryHandler {
	return &InventoryHandler{repo: repo}
}

func (h *InventoryHandler) Name() string { return "live-inventory" }

// Handle implements changefeed.Handler for stock_batches and data_entries.
func (h *InventoryHandler) Handle(ctx context.Context, event *changefeed.Event) error {
	var delta types.Quantity
	var err error

	switch event.Collection {
	case changefeed.CollectionStockBatches:
		delta, err = h.batchDelta(event)
	case changefeed.CollectionDataEntries:
		delta, err = h.saleDelta(event)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	if delta.IsZero() {
		return nil
	}

	if err := h.repo.ApplyInventoryDelta(ctx, delta); err != nil {
		return fmt.Errorf("apply inventory delta: %w", err)
	}
	logger.Debug(ctx, "inventory delta applied", "delta_kg", delta, "collection", event.Collection)
	return nil
}

// batchDelta measures the change in purchased stock.
func (h *InventoryHandler) batchDelta(event *changefeed.Event) (types.Quantity, error) {
	before, err := changefeed.DecodeSnapshot[batch.StockBatch](event.Before)
	if err != nil {
		return 0, err
	}
	after, err := changefeed.DecodeSnapshot[batch.StockBatch](event.After)
	if err != nil {
		return 0, err
	}

	var delta types.Quantity
	if before != nil && !before.DeletionMark {
		delta -= before.QuantityKg
	}
	if after != nil && !after.DeletionMark {
		delta += after.QuantityKg
	}
	return delta, nil
}

// saleDelta measures the change in stock consumed by an approved sale.
func (h *InventoryHandler) saleDelta(event *changefeed.Event) (types.Quantity, error) {
	before, err := changefeed.DecodeSnapshot[entry.DataEntry](event.Before)
	if err != nil {
		return 0, err
	}
	after, err := changefeed.DecodeSnapshot[entry.DataEntry](event.After)
	if err != nil {
		return 0, err
	}

	var delta types.Quantity
	if counted(before) {
		delta += before.KgSold
	}
	if counted(after) {
		delta -= after.KgSold
	}
	return delta, nil
}

func counted(e *entry.DataEntry) bool {
	return e != nil && e.EntryType == entry.TypeSale && e.IsApproved() && !e.DeletionMark
}

var _ changefeed.Handler = (*InventoryHandler)(nil)
