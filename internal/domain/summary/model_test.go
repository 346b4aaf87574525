package summary

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasflow/internal/core/apperror"
	"gasflow/internal/core/id"
)

func newTestSummary() *DailySummary {
	return NewDailySummary(
		id.New(),
		"main",
		time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		"Alice",
		"user-1",
	)
}

func TestDayOf(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			"midnight passes through",
			time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			"time of day is dropped",
			time.Date(2026, 8, 10, 14, 30, 12, 999, time.UTC),
			time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			"offset zones convert to the UTC day",
			time.Date(2026, 8, 10, 2, 0, 0, 0, time.FixedZone("UTC+5", 5*3600)),
			time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DayOf(tt.in))
		})
	}
}

func TestNewDailySummary_NormalizesDate(t *testing.T) {
	d := NewDailySummary(id.New(), "main",
		time.Date(2026, 8, 10, 9, 45, 0, 0, time.UTC), "Alice", "user-1")

	assert.Equal(t, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), d.Date)
}

func TestDailySummary_Lifecycle(t *testing.T) {
	d := newTestSummary()
	now := time.Now().UTC()

	assert.Equal(t, StatusInProgress, d.Status)
	assert.True(t, d.AcceptsEntries())
	assert.False(t, d.IsTerminal())

	require.NoError(t, d.Finalize(now))
	assert.Equal(t, StatusPending, d.Status)
	assert.False(t, d.AcceptsEntries())
	require.NotNil(t, d.SubmittedAt)

	require.NoError(t, d.Review(StatusApproved, "reviewer-1", now, "looks good"))
	assert.Equal(t, StatusApproved, d.Status)
	assert.True(t, d.IsTerminal())
	require.NotNil(t, d.ReviewedBy)
	assert.Equal(t, "reviewer-1", *d.ReviewedBy)
	assert.Equal(t, "looks good", d.ReviewNote)
}

func TestDailySummary_FinalizeRequiresInProgress(t *testing.T) {
	now := time.Now().UTC()

	for _, status := range []Status{StatusPending, StatusApproved, StatusRejected} {
		d := newTestSummary()
		d.Status = status

		err := d.Finalize(now)
		require.Error(t, err, "finalize from %s", status)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
	}
}

func TestDailySummary_ReviewRequiresPending(t *testing.T) {
	now := time.Now().UTC()

	// In-progress summaries must be finalized first.
	d := newTestSummary()
	err := d.Review(StatusApproved, "reviewer-1", now, "")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
}

func TestDailySummary_ReReviewFails(t *testing.T) {
	now := time.Now().UTC()

	d := newTestSummary()
	require.NoError(t, d.Finalize(now))
	require.NoError(t, d.Review(StatusRejected, "reviewer-1", now, "meters missing"))

	// Approved and rejected are terminal; a second verdict fails instead of
	// rewriting history.
	err := d.Review(StatusApproved, "reviewer-2", now, "")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
	assert.Equal(t, string(StatusRejected), appErr.Details["from"])

	assert.Equal(t, StatusRejected, d.Status)
	assert.Equal(t, "reviewer-1", *d.ReviewedBy)
}

func TestDailySummary_ReviewVerdictValidated(t *testing.T) {
	d := newTestSummary()
	require.NoError(t, d.Finalize(time.Now().UTC()))

	err := d.Review(StatusInProgress, "reviewer-1", time.Now().UTC(), "")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestDailySummary_Validate(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, newTestSummary().Validate(ctx))

	d := newTestSummary()
	d.CashierName = ""
	err := d.Validate(ctx)
	require.Error(t, err)

	d = newTestSummary()
	d.Status = Status("bogus")
	err = d.Validate(ctx)
	require.Error(t, err)
}
