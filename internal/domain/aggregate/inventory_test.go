package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasflow/internal/core/id"
	"gasflow/internal/core/types"
	"gasflow/internal/domain/batch"
	"gasflow/internal/domain/changefeed"
	"gasflow/internal/domain/entry"
)

func batchEvent(t *testing.T, action changefeed.Action, before, after *batch.StockBatch) *changefeed.Event {
	t.Helper()
	return &changefeed.Event{
		ID:         id.New(),
		TenantID:   id.New(),
		Collection: changefeed.CollectionStockBatches,
		Action:     action,
		Before:     mustJSON(t, before),
		After:      mustJSON(t, after),
	}
}

func testBatch(kg float64) *batch.StockBatch {
	return batch.NewStockBatch(id.New(),
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		"PetroSupply",
		types.NewQuantityFromFloat64(kg),
		types.MustMoney("50"))
}

func TestInventoryHandler_PurchaseAddsStock(t *testing.T) {
	repo := newMockAggregateRepo()
	h := NewInventoryHandler(repo)

	b := testBatch(1000)
	require.NoError(t, h.Handle(context.Background(), batchEvent(t, changefeed.ActionCreated, nil, b)))

	assert.Equal(t, types.NewQuantityFromFloat64(1000), repo.inventory)
}

func TestInventoryHandler_CorrectionMovesByQuantityDelta(t *testing.T) {
	repo := newMockAggregateRepo()
	h := NewInventoryHandler(repo)

	before := testBatch(1000)
	after := *before
	after.QuantityKg = types.NewQuantityFromFloat64(1200)

	require.NoError(t, h.Handle(context.Background(), batchEvent(t, changefeed.ActionUpdated, before, &after)))

	assert.Equal(t, types.NewQuantityFromFloat64(200), repo.inventory)
}

func TestInventoryHandler_SaleDebitNetsZeroOnBatchEvent(t *testing.T) {
	repo := newMockAggregateRepo()
	h := NewInventoryHandler(repo)

	// A sale debit changes remaining_kg but not quantity_kg. The inventory
	// movement comes from the sale entry event instead, so the batch event
	// must apply nothing.
	before := testBatch(1000)
	after := *before
	after.RemainingKg = types.NewQuantityFromFloat64(960)

	require.NoError(t, h.Handle(context.Background(), batchEvent(t, changefeed.ActionUpdated, before, &after)))

	assert.Equal(t, 0, repo.calls)
	assert.True(t, repo.inventory.IsZero())
}

func TestInventoryHandler_DeletedBatchRemovesStock(t *testing.T) {
	repo := newMockAggregateRepo()
	h := NewInventoryHandler(repo)

	b := testBatch(500)
	require.NoError(t, h.Handle(context.Background(), batchEvent(t, changefeed.ActionDeleted, b, nil)))

	assert.Equal(t, types.NewQuantityFromFloat64(-500), repo.inventory)
}

func TestInventoryHandler_ApprovedSaleConsumesStock(t *testing.T) {
	repo := newMockAggregateRepo()
	h := NewInventoryHandler(repo)

	before := saleEntry(entry.StatusPending, august, "2000", 40)
	after := *before
	after.Status = entry.StatusApproved

	require.NoError(t, h.Handle(context.Background(), entryEvent(t, changefeed.ActionUpdated, before, &after)))

	assert.Equal(t, types.NewQuantityFromFloat64(-40), repo.inventory)
}

func TestInventoryHandler_RejectionCreditsStockBack(t *testing.T) {
	repo := newMockAggregateRepo()
	h := NewInventoryHandler(repo)
	ctx := context.Background()

	pending := saleEntry(entry.StatusPending, august, "2000", 40)
	approved := *pending
	approved.Status = entry.StatusApproved
	rejected := *pending
	rejected.Status = entry.StatusRejected

	require.NoError(t, h.Handle(ctx, entryEvent(t, changefeed.ActionUpdated, pending, &approved)))
	require.NoError(t, h.Handle(ctx, entryEvent(t, changefeed.ActionUpdated, &approved, &rejected)))

	assert.True(t, repo.inventory.IsZero())
}

func TestInventoryHandler_ApprovedSaleEditAdjustsStock(t *testing.T) {
	repo := newMockAggregateRepo()
	h := NewInventoryHandler(repo)

	// 100 kg corrected down to 80 kg credits 20 kg back.
	before := saleEntry(entry.StatusApproved, august, "5000", 100)
	after := *before
	after.KgSold = types.NewQuantityFromFloat64(80)

	require.NoError(t, h.Handle(context.Background(), entryEvent(t, changefeed.ActionUpdated, before, &after)))

	assert.Equal(t, types.NewQuantityFromFloat64(20), repo.inventory)
}

func TestInventoryHandler_ExpensesNeverTouchStock(t *testing.T) {
	repo := newMockAggregateRepo()
	h := NewInventoryHandler(repo)

	before := expenseEntry(entry.StatusPending, august, "350")
	after := *before
	after.Status = entry.StatusApproved

	require.NoError(t, h.Handle(context.Background(), entryEvent(t, changefeed.ActionUpdated, before, &after)))

	assert.Equal(t, 0, repo.calls)
}

func TestInventoryHandler_IgnoresOtherCollections(t *testing.T) {
	repo := newMockAggregateRepo()
	h := NewInventoryHandler(repo)

	ev := &changefeed.Event{Collection: changefeed.CollectionDailySummaries, Action: changefeed.ActionUpdated}
	require.NoError(t, h.Handle(context.Background(), ev))
	assert.Equal(t, 0, repo.calls)
}
