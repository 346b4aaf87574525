package batch

import (
	"context"
	"fmt"
	"time"

	"gasflow/internal/core/apperror"
	"gasflow/internal/core/id"
	"gasflow/internal/core/tx"
	"gasflow/internal/core/types"
	"gasflow/internal/domain"
	"gasflow/internal/domain/audit"
	"gasflow/internal/domain/changefeed"
	"gasflow/pkg/logger"
	"gasflow/pkg/numerator"
)

// debitAttempts bounds the allocation retry loop. Contention beyond this
// surfaces as CONCURRENT_MODIFICATION to the caller.
const debitAttempts = 3

// Service provides business operations for the stock batch ledger.
type Service struct {
	repo      Repository
	numerator *numerator.Service
	txManager tx.Manager
	feed      changefeed.Publisher
}

// NewService creates a new batch service.
func NewService(repo Repository, num *numerator.Service, txManager tx.Manager, feed changefeed.Publisher) *Service {
	return &Service{
		repo:      repo,
		numerator: num,
		txManager: txManager,
		feed:      feed,
	}
}

// Create records a gas purchase as a new batch.
// Remaining stock starts equal to the purchased quantity.
func (s *Service) Create(ctx context.Context, b *StockBatch) error {
	if err := b.Validate(ctx); err != nil {
		return err
	}

	if b.Number == "" {
		cfg := numerator.DefaultConfig("SB")
		number, err := s.numerator.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		b.Number = number
	}

	_ = audit.EnrichCreatedBy(ctx, b)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, b); err != nil {
			return fmt.Errorf("create batch: %w", err)
		}
		return s.feed.Publish(ctx, changefeed.Change{
			Collection: changefeed.CollectionStockBatches,
			DocumentID: b.ID,
			Action:     changefeed.ActionCreated,
			After:      b,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "stock batch created", "id", b.ID, "number", b.Number, "quantity_kg", b.QuantityKg)
	return nil
}

// GetByID retrieves a batch.
func (s *Service) GetByID(ctx context.Context, batchID id.ID) (*StockBatch, error) {
	return s.repo.GetByID(ctx, batchID)
}

// Correct adjusts quantity, cost or notes of an existing batch.
// The remaining stock shifts by the quantity delta so already-sold amounts
// stay accounted for.
func (s *Service) Correct(ctx context.Context, batchID id.ID, c Correction) (*StockBatch, error) {
	var updated *StockBatch

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByID(ctx, batchID)
		if err != nil {
			return err
		}

		before := *b

		b.ApplyCorrection(c)
		if err := b.Validate(ctx); err != nil {
			return err
		}

		_ = audit.EnrichUpdatedBy(ctx, b)

		if err := s.repo.Update(ctx, b); err != nil {
			return fmt.Errorf("update batch: %w", err)
		}

		if err := s.feed.Publish(ctx, changefeed.Change{
			Collection: changefeed.CollectionStockBatches,
			DocumentID: b.ID,
			Action:     changefeed.ActionUpdated,
			Before:     &before,
			After:      b,
		}); err != nil {
			return err
		}

		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock batch corrected", "id", batchID, "quantity_kg", c.QuantityKg)
	return updated, nil
}

// Delete soft-deletes a batch. Deleted batches keep their history but are
// excluded from allocation and from inventory totals.
func (s *Service) Delete(ctx context.Context, batchID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByID(ctx, batchID)
		if err != nil {
			return err
		}

		if err := s.repo.SetDeletionMark(ctx, batchID, true); err != nil {
			return fmt.Errorf("delete batch: %w", err)
		}

		return s.feed.Publish(ctx, changefeed.Change{
			Collection: changefeed.CollectionStockBatches,
			DocumentID: batchID,
			Action:     changefeed.ActionDeleted,
			Before:     b,
		})
	})
}

// List retrieves batches with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockBatch], error) {
	return s.repo.List(ctx, filter)
}

// AllocateAndDebit consumes kg from the oldest open batch.
//
// Allocation picks exactly one batch: the oldest one with any remaining
// stock. If that batch cannot cover the requested quantity the sale fails
// with QUANTITY_EXCEEDS_BATCH rather than spilling into the next batch.
//
// The debit is a conditional update on (version, remaining_kg). When a
// concurrent sale wins the race the allocation is retried against fresh
// state, a bounded number of times.
//
// MUST be called inside the sale's transaction so the batch debit and the
// sale entry commit atomically.
func (s *Service) AllocateAndDebit(ctx context.Context, kg types.Quantity) (*StockBatch, error) {
	if !kg.IsPositive() {
		return nil, apperror.NewValidation("sale quantity must be positive").
			WithDetail("field", "quantityKg")
	}

	for attempt := 0; attempt < debitAttempts; attempt++ {
		b, err := s.repo.GetOldestOpen(ctx)
		if err != nil {
			return nil, fmt.Errorf("find open batch: %w", err)
		}
		if b == nil {
			return nil, apperror.NewNoStockAvailable()
		}

		if kg > b.RemainingKg {
			return nil, apperror.NewQuantityExceedsBatch(b.ID.String(), kg.Float64(), b.RemainingKg.Float64())
		}

		before := *b

		ok, err := s.repo.DebitRemaining(ctx, b.ID, b.Version, kg)
		if err != nil {
			return nil, fmt.Errorf("debit batch: %w", err)
		}
		if !ok {
			// Lost the race, re-read and try again.
			logger.Debug(ctx, "batch debit conflict, retrying", "batch_id", b.ID, "attempt", attempt+1)
			continue
		}

		b.RemainingKg -= kg
		b.Touch()

		if err := s.feed.Publish(ctx, changefeed.Change{
			Collection: changefeed.CollectionStockBatches,
			DocumentID: b.ID,
			Action:     changefeed.ActionUpdated,
			Before:     &before,
			After:      b,
		}); err != nil {
			return nil, err
		}

		return b, nil
	}

	return nil, apperror.NewConcurrentModification("StockBatch", "oldest-open")
}
