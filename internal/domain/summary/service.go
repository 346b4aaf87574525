package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gasflow/internal/core/apperror"
	appctx "gasflow/internal/core/context"
	"gasflow/internal/core/id"
	"gasflow/internal/core/tenant"
	"gasflow/internal/core/tx"
	"gasflow/internal/domain"
	"gasflow/internal/domain/audit"
	"gasflow/internal/domain/changefeed"
	"gasflow/pkg/logger"
	"gasflow/pkg/numerator"
)

// Service provides business operations for daily summaries.
type Service struct {
	repo      Repository
	numerator *numerator.Service
	txManager tx.Manager
	feed      changefeed.Publisher
}

// NewService creates a new summary service.
func NewService(repo Repository, num *numerator.Service, txManager tx.Manager, feed changefeed.Publisher) *Service {
	return &Service{
		repo:      repo,
		numerator: num,
		txManager: txManager,
		feed:      feed,
	}
}

// StartInput describes a summary to open.
type StartInput struct {
	Branch      string
	Date        time.Time
	CashierName string
	Meters      json.RawMessage
}

// Start opens a daily summary, or returns the caller's existing in_progress
// summary for that branch and day. One open summary per cashier per day.
func (s *Service) Start(ctx context.Context, in StartInput) (*DailySummary, error) {
	tenantID, err := tenant.GetTenantID(ctx)
	if err != nil {
		return nil, err
	}

	userID := appctx.GetUserID(ctx)

	// Two Start calls at 08:00 and 14:30 are the same day; lookups and the
	// open-day unique index both key on the normalized date.
	day := DayOf(in.Date)

	existing, err := s.repo.GetOpenForDay(ctx, in.Branch, day, userID)
	if err != nil {
		return nil, fmt.Errorf("find open summary: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	d := NewDailySummary(tenantID, in.Branch, day, in.CashierName, userID)
	d.Meters = in.Meters
	if err := d.Validate(ctx); err != nil {
		return nil, err
	}

	cfg := numerator.DefaultConfig("DS")
	number, err := s.numerator.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}
	d.Number = number

	_ = audit.EnrichCreatedBy(ctx, d)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, d); err != nil {
			return fmt.Errorf("create summary: %w", err)
		}
		return s.feed.Publish(ctx, changefeed.Change{
			Collection: changefeed.CollectionDailySummaries,
			DocumentID: d.ID,
			Action:     changefeed.ActionCreated,
			After:      d,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "daily summary opened", "id", d.ID, "number", d.Number, "date", d.Date)
	return d, nil
}

// Finalize submits an in_progress summary for review.
func (s *Service) Finalize(ctx context.Context, summaryID id.ID) (*DailySummary, error) {
	var finalized *DailySummary

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		d, err := s.repo.GetByID(ctx, summaryID)
		if err != nil {
			return err
		}

		before := *d

		if err := d.Finalize(time.Now().UTC()); err != nil {
			return err
		}

		_ = audit.EnrichUpdatedBy(ctx, d)

		if err := s.repo.Update(ctx, d); err != nil {
			return fmt.Errorf("update summary: %w", err)
		}

		if err := s.feed.Publish(ctx, changefeed.Change{
			Collection: changefeed.CollectionDailySummaries,
			DocumentID: d.ID,
			Action:     changefeed.ActionUpdated,
			Before:     &before,
			After:      d,
		}); err != nil {
			return err
		}

		finalized = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "daily summary finalized", "id", summaryID)
	return finalized, nil
}

// ReviewInput carries the reviewer's decision.
type ReviewInput struct {
	Approve bool
	Note    string
}

// Review rules on a pending summary.
//
// Only the summary itself changes here. Transitioning the summary's pending
// entries is the fan-out handler's job: it reacts to the published update
// event, so the verdict reaches child entries even if the server dies right
// after this transaction commits.
func (s *Service) Review(ctx context.Context, summaryID id.ID, in ReviewInput) (*DailySummary, error) {
	reviewer := appctx.GetUserID(ctx)
	if reviewer == "" {
		return nil, apperror.NewUnauthorized("reviewer identity required")
	}

	verdict := StatusRejected
	if in.Approve {
		verdict = StatusApproved
	}

	var reviewed *DailySummary

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		d, err := s.repo.GetByID(ctx, summaryID)
		if err != nil {
			return err
		}

		before := *d

		if err := d.Review(verdict, reviewer, time.Now().UTC(), in.Note); err != nil {
			return err
		}

		_ = audit.EnrichUpdatedBy(ctx, d)

		if err := s.repo.Update(ctx, d); err != nil {
			return fmt.Errorf("update summary: %w", err)
		}

		if err := s.feed.Publish(ctx, changefeed.Change{
			Collection: changefeed.CollectionDailySummaries,
			DocumentID: d.ID,
			Action:     changefeed.ActionUpdated,
			Before:     &before,
			After:      d,
		}); err != nil {
			return err
		}

		reviewed = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "daily summary reviewed", "id", summaryID, "verdict", verdict, "reviewer", reviewer)
	return reviewed, nil
}

// EnsureAcceptsEntries implements entry.SummaryGuard.
func (s *Service) EnsureAcceptsEntries(ctx context.Context, summaryID id.ID) error {
	d, err := s.repo.GetByID(ctx, summaryID)
	if err != nil {
		return err
	}
	if !d.AcceptsEntries() {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "daily summary is no longer accepting entries").
			WithDetail("summary_id", summaryID.String()).
			WithDetail("status", string(d.Status))
	}
	return nil
}

// GetByID retrieves a summary.
func (s *Service) GetByID(ctx context.Context, summaryID id.ID) (*DailySummary, error) {
	return s.repo.GetByID(ctx, summaryID)
}

// List retrieves summaries with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*DailySummary], error) {
	return s.repo.List(ctx, filter)
}
