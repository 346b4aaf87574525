package aggregate

import (
	"context"
	"fmt"
	"time"

	"gasflow/internal/domain/changefeed"
	"gasflow/internal/domain/entry"
	"gasflow/internal/domain/summary"
	"gasflow/pkg/logger"
)

// FanoutHandler propagates a summary verdict to its pending entries.
//
// When a summary moves from pending to approved or rejected, every child
// entry still pending takes the same verdict, in the processing transaction.
// Each transitioned entry gets its own updated event so the monthly and
// inventory handlers pick the change up like any other status move. Entries
// already ruled on individually are left alone.
type FanoutHandler struct {
	entries entry.Repository
	feed    changefeed.Publisher
}

// NewFanoutHandler creates the review fan-out handler.
func NewFanoutHandler(entries entry.Repository, feed changefeed.Publisher) *FanoutHandler {
	return &FanoutHandler{entries: entries, feed: feed}
}

func (h *FanoutHandler) Name() string { return "review-fanout" }

// Handle implements changefeed.Handler for the daily_summaries collection.
func (h *FanoutHandler) Handle(ctx context.Context, event *changefeed.Event) error {
	if event.Collection != changefeed.CollectionDailySummaries || event.Action != changefeed.ActionUpdated {
		return nil
	}

	before, err := changefeed.DecodeSnapshot[summary.DailySummary](event.Before)
	if err != nil {
		return err
	}
	after, err := changefeed.DecodeSnapshot[summary.DailySummary](event.After)
	if err != nil {
		return err
	}

	if before == nil || after == nil || before.Status != summary.StatusPending || !after.IsTerminal() {
		return nil
	}

	verdict := entry.StatusRejected
	if after.Status == summary.StatusApproved {
		verdict = entry.StatusApproved
	}

	reviewedBy := ""
	if after.ReviewedBy != nil {
		reviewedBy = *after.ReviewedBy
	}
	reviewedAt := time.Now().UTC()
	if after.ReviewedAt != nil {
		reviewedAt = *after.ReviewedAt
	}

	transitioned, err := h.entries.TransitionPendingBySummary(ctx, after.ID, verdict, reviewedBy, reviewedAt)
	if err != nil {
		return fmt.Errorf("transition entries: %w", err)
	}

	for _, e := range transitioned {
		entryBefore := *e
		entryBefore.Status = entry.StatusPending
		entryBefore.ReviewedBy = nil
		entryBefore.ReviewedAt = nil
		entryBefore.Version = e.Version - 1

		if err := h.feed.Publish(ctx, changefeed.Change{
			Collection: changefeed.CollectionDataEntries,
			DocumentID: e.ID,
			Action:     changefeed.ActionUpdated,
			Before:     &entryBefore,
			After:      e,
		}); err != nil {
			return fmt.Errorf("publish entry transition: %w", err)
		}
	}

	logger.Info(ctx, "summary verdict fanned out",
		"summary_id", after.ID, "verdict", verdict, "entries", len(transitioned))
	return nil
}

var _ changefeed.Handler = (*FanoutHandler)(nil)
