package entry

import (
	"context"
	"fmt"
	"time"

	appctx "gasflow/internal/core/context"
	"gasflow/internal/core/id"
	"gasflow/internal/core/tenant"
	"gasflow/internal/core/tx"
	"gasflow/internal/core/types"
	"gasflow/internal/domain"
	"gasflow/internal/domain/audit"
	"gasflow/internal/domain/batch"
	"gasflow/internal/domain/changefeed"
	"gasflow/pkg/logger"
)

// Allocator consumes stock for a sale. Implemented by batch.Service.
type Allocator interface {
	AllocateAndDebit(ctx context.Context, kg types.Quantity) (*batch.StockBatch, error)
}

// SummaryGuard checks that a daily summary accepts new entries.
// Implemented by summary.Service.
type SummaryGuard interface {
	EnsureAcceptsEntries(ctx context.Context, summaryID id.ID) error
}

// Service provides business operations for data entries.
type Service struct {
	repo      Repository
	allocator Allocator
	guard     SummaryGuard
	txManager tx.Manager
	feed      changefeed.Publisher
}

// NewService creates a new entry service.
func NewService(repo Repository, allocator Allocator, guard SummaryGuard, txManager tx.Manager, feed changefeed.Publisher) *Service {
	return &Service{
		repo:      repo,
		allocator: allocator,
		guard:     guard,
		txManager: txManager,
		feed:      feed,
	}
}

// SaleInput describes a gas sale to record.
type SaleInput struct {
	SummaryID id.ID
	Branch    string
	Date      time.Time
	Revenue   types.Money
	KgSold    types.Quantity
}

// RecordSale logs a gas sale.
//
// The stock debit and the entry insert happen in one transaction: when
// allocation fails (no stock, quantity exceeds the open batch, or the debit
// race is lost repeatedly) nothing is persisted.
func (s *Service) RecordSale(ctx context.Context, in SaleInput) (*DataEntry, error) {
	tenantID, err := tenant.GetTenantID(ctx)
	if err != nil {
		return nil, err
	}

	e := NewSaleEntry(tenantID, in.SummaryID, in.Branch, in.Date, in.Revenue, in.KgSold)
	e.SubmittedBy = appctx.GetUserID(ctx)
	if err := e.Validate(ctx); err != nil {
		return nil, err
	}

	_ = audit.EnrichCreatedBy(ctx, e)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.guard.EnsureAcceptsEntries(ctx, in.SummaryID); err != nil {
			return err
		}

		b, err := s.allocator.AllocateAndDebit(ctx, in.KgSold)
		if err != nil {
			return err
		}
		e.BatchID = &b.ID

		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create sale entry: %w", err)
		}

		return s.feed.Publish(ctx, changefeed.Change{
			Collection: changefeed.CollectionDataEntries,
			DocumentID: e.ID,
			Action:     changefeed.ActionCreated,
			After:      e,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale recorded", "id", e.ID, "kg_sold", e.KgSold, "batch_id", e.BatchID)
	return e, nil
}

// ExpenseInput describes an expense to record.
type ExpenseInput struct {
	SummaryID   id.ID
	Branch      string
	Date        time.Time
	Amount      types.Money
	Category    string
	Description string
}

// RecordExpense logs an expense entry.
func (s *Service) RecordExpense(ctx context.Context, in ExpenseInput) (*DataEntry, error) {
	tenantID, err := tenant.GetTenantID(ctx)
	if err != nil {
		return nil, err
	}

	e := NewExpenseEntry(tenantID, in.SummaryID, in.Branch, in.Date, in.Amount, in.Category, in.Description)
	e.SubmittedBy = appctx.GetUserID(ctx)
	if err := e.Validate(ctx); err != nil {
		return nil, err
	}

	_ = audit.EnrichCreatedBy(ctx, e)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.guard.EnsureAcceptsEntries(ctx, in.SummaryID); err != nil {
			return err
		}

		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create expense entry: %w", err)
		}

		return s.feed.Publish(ctx, changefeed.Change{
			Collection: changefeed.CollectionDataEntries,
			DocumentID: e.ID,
			Action:     changefeed.ActionCreated,
			After:      e,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "expense recorded", "id", e.ID, "amount", e.Amount, "category", e.Category)
	return e, nil
}

// UpdateInput carries editable entry fields. Nil means keep current value.
type UpdateInput struct {
	Revenue     *types.Money
	KgSold      *types.Quantity
	Amount      *types.Money
	Category    *string
	Description *string
}

// Update edits an entry's figures. Works on entries in any status; the
// aggregate updaters decide from the before/after snapshots whether the
// edit changes any report. The consumed batch is not re-debited: stock
// corrections flow through the inventory aggregate instead.
func (s *Service) Update(ctx context.Context, entryID id.ID, in UpdateInput) (*DataEntry, error) {
	var updated *DataEntry

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.GetByID(ctx, entryID)
		if err != nil {
			return err
		}

		before := *e

		if in.Revenue != nil {
			e.Revenue = *in.Revenue
		}
		if in.KgSold != nil {
			e.KgSold = *in.KgSold
		}
		if in.Amount != nil {
			e.Amount = *in.Amount
		}
		if in.Category != nil {
			e.Category = *in.Category
		}
		if in.Description != nil {
			e.Description = *in.Description
		}

		if err := e.Validate(ctx); err != nil {
			return err
		}

		_ = audit.EnrichUpdatedBy(ctx, e)

		if err := s.repo.Update(ctx, e); err != nil {
			return fmt.Errorf("update entry: %w", err)
		}

		if err := s.feed.Publish(ctx, changefeed.Change{
			Collection: changefeed.CollectionDataEntries,
			DocumentID: e.ID,
			Action:     changefeed.ActionUpdated,
			Before:     &before,
			After:      e,
		}); err != nil {
			return err
		}

		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "entry updated", "id", entryID)
	return updated, nil
}

// Delete soft-deletes an entry and publishes the deleted event so aggregates
// can back out its contribution.
func (s *Service) Delete(ctx context.Context, entryID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.GetByID(ctx, entryID)
		if err != nil {
			return err
		}

		if err := s.repo.SetDeletionMark(ctx, entryID, true); err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}

		return s.feed.Publish(ctx, changefeed.Change{
			Collection: changefeed.CollectionDataEntries,
			DocumentID: entryID,
			Action:     changefeed.ActionDeleted,
			Before:     e,
		})
	})
}

// GetByID retrieves an entry.
func (s *Service) GetByID(ctx context.Context, entryID id.ID) (*DataEntry, error) {
	return s.repo.GetByID(ctx, entryID)
}

// List retrieves entries with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*DataEntry], error) {
	return s.repo.List(ctx, filter)
}

// ListBySummary retrieves all entries belonging to a daily summary.
func (s *Service) ListBySummary(ctx context.Context, summaryID id.ID) ([]*DataEntry, error) {
	return s.repo.ListBySummary(ctx, summaryID)
}
