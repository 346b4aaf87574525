package batch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasflow/internal/core/apperror"
	"gasflow/internal/core/id"
	"gasflow/internal/core/types"
)

func newTestBatch(quantityKg float64) *StockBatch {
	return NewStockBatch(
		id.New(),
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		"PetroSupply",
		types.NewQuantityFromFloat64(quantityKg),
		types.MustMoney("52.50"),
	)
}

func TestNewStockBatch(t *testing.T) {
	b := newTestBatch(1000)

	assert.Equal(t, b.QuantityKg, b.RemainingKg)
	assert.False(t, b.IsDepleted())
	assert.True(t, b.SoldKg().IsZero())
	assert.True(t, b.TotalCost.Equal(types.MustMoney("52500")), "got %s", b.TotalCost)
}

func TestStockBatch_SoldKg(t *testing.T) {
	b := newTestBatch(1000)
	b.RemainingKg = types.NewQuantityFromFloat64(400)

	assert.Equal(t, types.NewQuantityFromFloat64(600), b.SoldKg())
	assert.False(t, b.IsDepleted())

	b.RemainingKg = 0
	assert.True(t, b.IsDepleted())
}

func TestStockBatch_ApplyCorrection(t *testing.T) {
	t.Run("grow shifts remaining by delta", func(t *testing.T) {
		b := newTestBatch(1000)
		b.RemainingKg = types.NewQuantityFromFloat64(300) // 700 sold

		b.ApplyCorrection(Correction{
			QuantityKg: types.NewQuantityFromFloat64(1200),
			CostPerKg:  types.MustMoney("50"),
		})

		assert.Equal(t, types.NewQuantityFromFloat64(1200), b.QuantityKg)
		assert.Equal(t, types.NewQuantityFromFloat64(500), b.RemainingKg)
		assert.Equal(t, types.NewQuantityFromFloat64(700), b.SoldKg())
		assert.True(t, b.TotalCost.Equal(types.MustMoney("60000")), "got %s", b.TotalCost)
	})

	t.Run("shrink below sold clamps remaining at zero", func(t *testing.T) {
		b := newTestBatch(1000)
		b.RemainingKg = types.NewQuantityFromFloat64(300) // 700 sold

		b.ApplyCorrection(Correction{
			QuantityKg: types.NewQuantityFromFloat64(500),
			CostPerKg:  types.MustMoney("52.50"),
		})

		assert.Equal(t, types.NewQuantityFromFloat64(500), b.QuantityKg)
		assert.True(t, b.RemainingKg.IsZero())
	})

	t.Run("empty supplier keeps current", func(t *testing.T) {
		b := newTestBatch(100)
		b.ApplyCorrection(Correction{
			QuantityKg: b.QuantityKg,
			CostPerKg:  b.CostPerKg,
			Supplier:   "",
		})
		assert.Equal(t, "PetroSupply", b.Supplier)
	})
}

func TestStockBatch_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, newTestBatch(100).Validate(ctx))
	})

	tests := []struct {
		name      string
		mutate    func(*StockBatch)
		wantField string
	}{
		{"zero date", func(b *StockBatch) { b.PurchaseDate = time.Time{} }, "purchaseDate"},
		{"no supplier", func(b *StockBatch) { b.Supplier = "" }, "supplier"},
		{"zero quantity", func(b *StockBatch) { b.QuantityKg = 0 }, "quantityKg"},
		{"negative remaining", func(b *StockBatch) { b.RemainingKg = -1 }, "remainingKg"},
		{"remaining above quantity", func(b *StockBatch) { b.RemainingKg = b.QuantityKg + 1 }, "remainingKg"},
		{"negative cost", func(b *StockBatch) { b.CostPerKg = types.MustMoney("-1") }, "costPerKg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBatch(100)
			tt.mutate(b)

			err := b.Validate(ctx)
			require.Error(t, err)

			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.wantField, appErr.Details["field"])
		})
	}
}
