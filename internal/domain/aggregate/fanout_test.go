package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasflow/internal/core/id"
	"gasflow/internal/core/types"
	"gasflow/internal/domain"
	"gasflow/internal/domain/changefeed"
	"gasflow/internal/domain/entry"
	"gasflow/internal/domain/summary"
)

// Mock objects

type fanoutEntryRepo struct {
	pending []*entry.DataEntry

	transitionCalls int
	lastSummaryID   id.ID
	lastStatus      entry.Status
}

func (m *fanoutEntryRepo) Create(ctx context.Context, e *entry.DataEntry) error { return nil }
func (m *fanoutEntryRepo) GetByID(ctx context.Context, entryID id.ID) (*entry.DataEntry, error) {
	return nil, nil
}
func (m *fanoutEntryRepo) Update(ctx context.Context, e *entry.DataEntry) error { return nil }
func (m *fanoutEntryRepo) SetDeletionMark(ctx context.Context, entryID id.ID, marked bool) error {
	return nil
}
func (m *fanoutEntryRepo) List(ctx context.Context, filter entry.ListFilter) (domain.ListResult[*entry.DataEntry], error) {
	return domain.ListResult[*entry.DataEntry]{}, nil
}
func (m *fanoutEntryRepo) ListBySummary(ctx context.Context, summaryID id.ID) ([]*entry.DataEntry, error) {
	return m.pending, nil
}

func (m *fanoutEntryRepo) TransitionPendingBySummary(ctx context.Context, summaryID id.ID, status entry.Status, reviewedBy string, reviewedAt time.Time) ([]*entry.DataEntry, error) {
	m.transitionCalls++
	m.lastSummaryID = summaryID
	m.lastStatus = status

	var out []*entry.DataEntry
	for _, e := range m.pending {
		if e.DailySummaryID != summaryID || e.Status != entry.StatusPending {
			continue
		}
		e.MarkReviewed(status, reviewedBy, reviewedAt)
		e.Version++
		out = append(out, e)
	}
	return out, nil
}

var _ entry.Repository = (*fanoutEntryRepo)(nil)

type fanoutPublisher struct {
	changes []changefeed.Change
}

func (p *fanoutPublisher) Publish(ctx context.Context, change changefeed.Change) error {
	p.changes = append(p.changes, change)
	return nil
}

func summaryEvent(t *testing.T, before, after *summary.DailySummary) *changefeed.Event {
	t.Helper()
	return &changefeed.Event{
		ID:         id.New(),
		TenantID:   id.New(),
		Collection: changefeed.CollectionDailySummaries,
		Action:     changefeed.ActionUpdated,
		Before:     mustJSON(t, before),
		After:      mustJSON(t, after),
	}
}

func reviewedSummary(t *testing.T, verdict summary.Status) (*summary.DailySummary, *summary.DailySummary) {
	t.Helper()
	d := summary.NewDailySummary(id.New(), "main", august, "Alice", "cashier-1")
	require.NoError(t, d.Finalize(august))

	before := *d
	require.NoError(t, d.Review(verdict, "reviewer-1", august.Add(time.Hour), "checked"))
	return &before, d
}

func pendingEntriesFor(summaryID id.ID, n int) []*entry.DataEntry {
	entries := make([]*entry.DataEntry, 0, n)
	for i := 0; i < n; i++ {
		e := entry.NewSaleEntry(id.New(), summaryID, "main", august,
			types.MustMoney("1000"), types.NewQuantityFromFloat64(10))
		entries = append(entries, e)
	}
	return entries
}

func TestFanoutHandler_ApprovalTransitionsPendingEntries(t *testing.T) {
	before, after := reviewedSummary(t, summary.StatusApproved)

	repo := &fanoutEntryRepo{pending: pendingEntriesFor(after.ID, 3)}
	feed := &fanoutPublisher{}
	h := NewFanoutHandler(repo, feed)

	require.NoError(t, h.Handle(context.Background(), summaryEvent(t, before, after)))

	assert.Equal(t, 1, repo.transitionCalls)
	assert.Equal(t, after.ID, repo.lastSummaryID)
	assert.Equal(t, entry.StatusApproved, repo.lastStatus)

	// One updated event per transitioned entry, so the monthly and inventory
	// handlers see each status move.
	require.Len(t, feed.changes, 3)
	for _, c := range feed.changes {
		assert.Equal(t, changefeed.CollectionDataEntries, c.Collection)
		assert.Equal(t, changefeed.ActionUpdated, c.Action)

		b, ok := c.Before.(*entry.DataEntry)
		require.True(t, ok)
		assert.Equal(t, entry.StatusPending, b.Status)

		a, ok := c.After.(*entry.DataEntry)
		require.True(t, ok)
		assert.Equal(t, entry.StatusApproved, a.Status)
		assert.Equal(t, b.Version+1, a.Version)
	}
}

func TestFanoutHandler_RejectionPropagates(t *testing.T) {
	before, after := reviewedSummary(t, summary.StatusRejected)

	repo := &fanoutEntryRepo{pending: pendingEntriesFor(after.ID, 2)}
	feed := &fanoutPublisher{}
	h := NewFanoutHandler(repo, feed)

	require.NoError(t, h.Handle(context.Background(), summaryEvent(t, before, after)))

	assert.Equal(t, entry.StatusRejected, repo.lastStatus)
	assert.Len(t, feed.changes, 2)
}

func TestFanoutHandler_IgnoresNonVerdictUpdates(t *testing.T) {
	repo := &fanoutEntryRepo{}
	h := NewFanoutHandler(repo, &fanoutPublisher{})
	ctx := context.Background()

	// in_progress -> pending is not a verdict.
	d := summary.NewDailySummary(id.New(), "main", august, "Alice", "cashier-1")
	before := *d
	require.NoError(t, d.Finalize(august))
	require.NoError(t, h.Handle(ctx, summaryEvent(t, &before, d)))

	// Created events carry no before snapshot.
	created := &changefeed.Event{
		Collection: changefeed.CollectionDailySummaries,
		Action:     changefeed.ActionCreated,
		After:      mustJSON(t, d),
	}
	require.NoError(t, h.Handle(ctx, created))

	// Other collections pass through untouched.
	other := &changefeed.Event{Collection: changefeed.CollectionDataEntries, Action: changefeed.ActionUpdated}
	require.NoError(t, h.Handle(ctx, other))

	assert.Equal(t, 0, repo.transitionCalls)
}

func TestFanoutHandler_NoPendingEntriesIsNoop(t *testing.T) {
	before, after := reviewedSummary(t, summary.StatusApproved)

	repo := &fanoutEntryRepo{}
	feed := &fanoutPublisher{}
	h := NewFanoutHandler(repo, feed)

	require.NoError(t, h.Handle(context.Background(), summaryEvent(t, before, after)))

	assert.Equal(t, 1, repo.transitionCalls)
	assert.Empty(t, feed.changes)
}
