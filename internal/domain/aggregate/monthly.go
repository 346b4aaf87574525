package aggregate

import (
	"context"
	"fmt"

	"gasflow/internal/domain/changefeed"
	"gasflow/internal/domain/entry"
	"gasflow/pkg/logger"
)

// MonthlyHandler folds data entry changes into monthly_reports.
//
// An entry contributes to its month only while it is approved and not
// deleted. The handler therefore compares the before and after snapshots:
// entering the approved set adds the after values, leaving it subtracts the
// before values, and an edit that stays approved applies the value
// difference. Everything else is a no-op, so a pending entry bouncing
// between statuses nets exactly one contribution.
type MonthlyHandler struct {
	repo Repository
}

// NewMonthlyHandler creates the monthly report updater.
func NewMonthlyHandler(repo Repository) *MonthlyHandler {
	return &MonthlyHandler{repo: repo}
}

func (h *MonthlyHandler) Name() string { return "monthly-report" }

// Handle implements changefeed.Handler for the data_entries collection.
func (h *MonthlyHandler) Handle(ctx context.Context, event *changefeed.Event) error {
	if event.Collection != changefeed.CollectionDataEntries {
		return nil
	}

	before, err := changefeed.DecodeSnapshot[entry.DataEntry](event.Before)
	if err != nil {
		return err
	}
	after, err := changefeed.DecodeSnapshot[entry.DataEntry](event.After)
	if err != nil {
		return err
	}

	// A date edit can move the contribution across months, so before and
	// after are bucketed independently.
	deltas := make(map[MonthKey]MonthlyDelta, 2)
	if d, ok := contribution(before); ok {
		key := KeyForDate(before.Date)
		deltas[key] = deltas[key].Add(d.Neg())
	}
	if d, ok := contribution(after); ok {
		key := KeyForDate(after.Date)
		deltas[key] = deltas[key].Add(d)
	}

	for key, delta := range deltas {
		if delta.IsZero() {
			continue
		}
		if err := h.repo.ApplyMonthlyDelta(ctx, key, delta); err != nil {
			return fmt.Errorf("apply monthly delta %d-%02d: %w", key.Year, key.Month, err)
		}
		logger.Debug(ctx, "monthly delta applied",
			"year", key.Year, "month", key.Month,
			"revenue", delta.Revenue, "expenses", delta.Expenses, "kg_sold", delta.KgSold)
	}

	return nil
}

// contribution returns what the snapshot adds to its month, and whether it
// counts at all.
func contribution(e *entry.DataEntry) (MonthlyDelta, bool) {
	if e == nil || !e.IsApproved() || e.DeletionMark {
		return MonthlyDelta{}, false
	}

	switch e.EntryType {
	case entry.TypeSale:
		return MonthlyDelta{Revenue: e.Revenue, KgSold: e.KgSold}, true
	case entry.TypeExpense:
		return MonthlyDelta{Expenses: e.Amount}, true
	default:
		return MonthlyDelta{}, false
	}
}

var _ changefeed.Handler = (*MonthlyHandler)(nil)
