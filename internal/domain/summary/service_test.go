package summary

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasflow/internal/core/apperror"
	appctx "gasflow/internal/core/context"
	"gasflow/internal/core/id"
	"gasflow/internal/core/tenant"
	"gasflow/internal/domain"
	"gasflow/internal/domain/changefeed"
	"gasflow/pkg/numerator"
)

// Mock objects

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type capturePublisher struct {
	changes []changefeed.Change
}

func (p *capturePublisher) Publish(ctx context.Context, change changefeed.Change) error {
	p.changes = append(p.changes, change)
	return nil
}

type mockSummaryRepo struct {
	summaries []*DailySummary
	created   []*DailySummary
	updated   []*DailySummary
}

func (m *mockSummaryRepo) Create(ctx context.Context, d *DailySummary) error {
	m.created = append(m.created, d)
	m.summaries = append(m.summaries, d)
	return nil
}

func (m *mockSummaryRepo) GetByID(ctx context.Context, summaryID id.ID) (*DailySummary, error) {
	for _, d := range m.summaries {
		if d.ID == summaryID {
			return d, nil
		}
	}
	return nil, apperror.NewNotFound("daily_summaries", summaryID.String())
}

func (m *mockSummaryRepo) GetOpenForDay(ctx context.Context, branch string, date time.Time, submittedBy string) (*DailySummary, error) {
	for _, d := range m.summaries {
		if d.Branch == branch && d.Date.Equal(date) && d.SubmittedBy == submittedBy && d.Status == StatusInProgress {
			return d, nil
		}
	}
	return nil, nil
}

func (m *mockSummaryRepo) Update(ctx context.Context, d *DailySummary) error {
	m.updated = append(m.updated, d)
	return nil
}

func (m *mockSummaryRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*DailySummary], error) {
	return domain.ListResult[*DailySummary]{Items: m.summaries, TotalCount: int64(len(m.summaries))}, nil
}

var _ Repository = (*mockSummaryRepo)(nil)

// seqRow feeds the numerator mock.
type seqRow struct {
	val int64
}

func (r *seqRow) Scan(dest ...any) error {
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = r.val
		}
	}
	return nil
}

type seqQuerier struct {
	current int64
}

func (q *seqQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.current++
	return &seqRow{val: q.current}
}

func testContext(userID string) context.Context {
	ctx := tenant.WithTenant(context.Background(), &tenant.Tenant{
		ID:     id.New(),
		Slug:   "demo",
		Status: tenant.StatusActive,
	})
	return appctx.WithUser(ctx, &appctx.UserContext{UserID: userID, Role: "cashier"})
}

func newSummaryService(repo *mockSummaryRepo) (*Service, *capturePublisher) {
	feed := &capturePublisher{}
	num := numerator.New(&seqQuerier{})
	return NewService(repo, num, &fakeTxManager{}, feed), feed
}

func TestStart_OpensSummaryWithNumber(t *testing.T) {
	ctx := testContext("cashier-1")
	repo := &mockSummaryRepo{}
	svc, feed := newSummaryService(repo)

	d, err := svc.Start(ctx, StartInput{
		Branch:      "main",
		Date:        time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		CashierName: "Alice",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusInProgress, d.Status)
	assert.Equal(t, "cashier-1", d.SubmittedBy)
	assert.Contains(t, d.Number, "DS-")

	require.Len(t, repo.created, 1)
	require.Len(t, feed.changes, 1)
	assert.Equal(t, changefeed.CollectionDailySummaries, feed.changes[0].Collection)
	assert.Equal(t, changefeed.ActionCreated, feed.changes[0].Action)
}

func TestStart_ReturnsExistingOpenSummary(t *testing.T) {
	ctx := testContext("cashier-1")
	repo := &mockSummaryRepo{}
	svc, feed := newSummaryService(repo)

	in := StartInput{
		Branch:      "main",
		Date:        time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		CashierName: "Alice",
	}

	first, err := svc.Start(ctx, in)
	require.NoError(t, err)

	second, err := svc.Start(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.created, 1)
	assert.Len(t, feed.changes, 1)
}

func TestStart_SameDayDifferentTimesShareOneSummary(t *testing.T) {
	ctx := testContext("cashier-1")
	repo := &mockSummaryRepo{}
	svc, feed := newSummaryService(repo)

	morning, err := svc.Start(ctx, StartInput{
		Branch:      "main",
		Date:        time.Date(2026, 8, 10, 8, 0, 0, 0, time.UTC),
		CashierName: "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), morning.Date)

	afternoon, err := svc.Start(ctx, StartInput{
		Branch:      "main",
		Date:        time.Date(2026, 8, 10, 14, 30, 0, 0, time.UTC),
		CashierName: "Alice",
	})
	require.NoError(t, err)

	assert.Equal(t, morning.ID, afternoon.ID)
	assert.Len(t, repo.created, 1)
	assert.Len(t, feed.changes, 1)
}

func TestFinalize_PublishesUpdate(t *testing.T) {
	ctx := testContext("cashier-1")
	repo := &mockSummaryRepo{}
	svc, feed := newSummaryService(repo)

	d, err := svc.Start(ctx, StartInput{
		Branch:      "main",
		Date:        time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		CashierName: "Alice",
	})
	require.NoError(t, err)

	finalized, err := svc.Finalize(ctx, d.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, finalized.Status)
	require.Len(t, feed.changes, 2)

	update := feed.changes[1]
	assert.Equal(t, changefeed.ActionUpdated, update.Action)
	before, ok := update.Before.(*DailySummary)
	require.True(t, ok)
	assert.Equal(t, StatusInProgress, before.Status)
}

func TestReview_RecordsVerdict(t *testing.T) {
	cashierCtx := testContext("cashier-1")
	repo := &mockSummaryRepo{}
	svc, feed := newSummaryService(repo)

	d, err := svc.Start(cashierCtx, StartInput{
		Branch:      "main",
		Date:        time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		CashierName: "Alice",
	})
	require.NoError(t, err)

	_, err = svc.Finalize(cashierCtx, d.ID)
	require.NoError(t, err)

	reviewerCtx := tenant.WithTenant(context.Background(), tenant.GetTenant(cashierCtx))
	reviewerCtx = appctx.WithUser(reviewerCtx, &appctx.UserContext{UserID: "reviewer-1", Role: "reviewer"})

	reviewed, err := svc.Review(reviewerCtx, d.ID, ReviewInput{Approve: false, Note: "meters missing"})
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, "reviewer-1", *reviewed.ReviewedBy)
	assert.Equal(t, "meters missing", reviewed.ReviewNote)

	// Only the summary event; fanning the verdict out to entries is the
	// changefeed handler's job.
	require.Len(t, feed.changes, 3)
	assert.Equal(t, changefeed.CollectionDailySummaries, feed.changes[2].Collection)
}

func TestReview_RequiresReviewerIdentity(t *testing.T) {
	repo := &mockSummaryRepo{}
	svc, _ := newSummaryService(repo)

	ctx := tenant.WithTenant(context.Background(), &tenant.Tenant{ID: id.New(), Status: tenant.StatusActive})

	_, err := svc.Review(ctx, id.New(), ReviewInput{Approve: true})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestReview_TerminalSummaryFails(t *testing.T) {
	ctx := testContext("reviewer-1")
	repo := &mockSummaryRepo{}
	svc, _ := newSummaryService(repo)

	d, err := svc.Start(ctx, StartInput{
		Branch:      "main",
		Date:        time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		CashierName: "Alice",
	})
	require.NoError(t, err)
	_, err = svc.Finalize(ctx, d.ID)
	require.NoError(t, err)
	_, err = svc.Review(ctx, d.ID, ReviewInput{Approve: true})
	require.NoError(t, err)

	_, err = svc.Review(ctx, d.ID, ReviewInput{Approve: false})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
}

func TestEnsureAcceptsEntries(t *testing.T) {
	ctx := testContext("cashier-1")
	repo := &mockSummaryRepo{}
	svc, _ := newSummaryService(repo)

	d, err := svc.Start(ctx, StartInput{
		Branch:      "main",
		Date:        time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		CashierName: "Alice",
	})
	require.NoError(t, err)

	require.NoError(t, svc.EnsureAcceptsEntries(ctx, d.ID))

	_, err = svc.Finalize(ctx, d.ID)
	require.NoError(t, err)

	err = svc.EnsureAcceptsEntries(ctx, d.ID)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
	assert.Equal(t, string(StatusPending), appErr.Details["status"])
}
