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
	"gasflow/internal/domain"
	"gasflow/internal/domain/changefeed"
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

type mockRepo struct {
	batches []*StockBatch // ordered oldest first

	// failDebits makes the first N DebitRemaining calls lose the race
	failDebits int

	created     []*StockBatch
	debitCalls  int
	oldestCalls int
}

func (m *mockRepo) Create(ctx context.Context, b *StockBatch) error {
	m.created = append(m.created, b)
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, batchID id.ID) (*StockBatch, error) {
	for _, b := range m.batches {
		if b.ID == batchID {
			return b, nil
		}
	}
	return nil, apperror.NewNotFound("stock_batches", batchID.String())
}

func (m *mockRepo) GetByNumber(ctx context.Context, number string) (*StockBatch, error) {
	for _, b := range m.batches {
		if b.Number == number {
			return b, nil
		}
	}
	return nil, apperror.NewNotFound("stock_batches", number)
}

func (m *mockRepo) Update(ctx context.Context, b *StockBatch) error { return nil }

func (m *mockRepo) SetDeletionMark(ctx context.Context, batchID id.ID, marked bool) error {
	return nil
}

func (m *mockRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockBatch], error) {
	return domain.ListResult[*StockBatch]{Items: m.batches, TotalCount: int64(len(m.batches))}, nil
}

func (m *mockRepo) GetOldestOpen(ctx context.Context) (*StockBatch, error) {
	m.oldestCalls++
	for _, b := range m.batches {
		if b.RemainingKg.IsPositive() && !b.DeletionMark {
			// Callers mutate the returned batch; hand out a copy like a real scan would.
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) DebitRemaining(ctx context.Context, batchID id.ID, version int, kg types.Quantity) (bool, error) {
	m.debitCalls++
	if m.failDebits > 0 {
		m.failDebits--
		return false, nil
	}
	for _, b := range m.batches {
		if b.ID == batchID && b.Version == version && b.RemainingKg >= kg {
			b.RemainingKg -= kg
			b.Version++
			return true, nil
		}
	}
	return false, nil
}

var _ Repository = (*mockRepo)(nil)

func openBatch(kg float64) *StockBatch {
	b := NewStockBatch(
		id.New(),
		time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		"PetroSupply",
		types.NewQuantityFromFloat64(kg),
		types.MustMoney("50"),
	)
	b.Number = "SB-2026-00001"
	return b
}

func newTestService(repo *mockRepo) (*Service, *capturePublisher) {
	feed := &capturePublisher{}
	return NewService(repo, nil, &fakeTxManager{}, feed), feed
}

func TestAllocateAndDebit_Success(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepo{batches: []*StockBatch{openBatch(100)}}
	svc, feed := newTestService(repo)

	b, err := svc.AllocateAndDebit(ctx, types.NewQuantityFromFloat64(40))
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantityFromFloat64(60), b.RemainingKg)
	assert.Equal(t, 1, repo.debitCalls)

	require.Len(t, feed.changes, 1)
	assert.Equal(t, changefeed.CollectionStockBatches, feed.changes[0].Collection)
	assert.Equal(t, changefeed.ActionUpdated, feed.changes[0].Action)
}

func TestAllocateAndDebit_SkipsDepletedBatch(t *testing.T) {
	ctx := context.Background()
	depleted := openBatch(100)
	depleted.RemainingKg = 0
	next := openBatch(200)
	next.Number = "SB-2026-00002"

	repo := &mockRepo{batches: []*StockBatch{depleted, next}}
	svc, _ := newTestService(repo)

	b, err := svc.AllocateAndDebit(ctx, types.NewQuantityFromFloat64(50))
	require.NoError(t, err)
	assert.Equal(t, next.ID, b.ID)
}

func TestAllocateAndDebit_NoStock(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepo{}
	svc, feed := newTestService(repo)

	_, err := svc.AllocateAndDebit(ctx, types.NewQuantityFromFloat64(10))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNoStockAvailable, appErr.Code)
	assert.Empty(t, feed.changes)
}

func TestAllocateAndDebit_QuantityExceedsBatch(t *testing.T) {
	ctx := context.Background()
	b := openBatch(100)
	b.RemainingKg = types.NewQuantityFromFloat64(30)
	repo := &mockRepo{batches: []*StockBatch{b}}
	svc, feed := newTestService(repo)

	// 50 kg requested, only 30 left in the oldest batch. No spill into a
	// second batch, the sale fails.
	_, err := svc.AllocateAndDebit(ctx, types.NewQuantityFromFloat64(50))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeQuantityExceedsBatch, appErr.Code)
	assert.Equal(t, float64(50), appErr.Details["requested_kg"])
	assert.Equal(t, float64(30), appErr.Details["remaining_kg"])

	assert.Equal(t, 0, repo.debitCalls)
	assert.Empty(t, feed.changes)
}

func TestAllocateAndDebit_NonPositiveQuantity(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(&mockRepo{batches: []*StockBatch{openBatch(100)}})

	for _, kg := range []types.Quantity{0, types.NewQuantityFromFloat64(-5)} {
		_, err := svc.AllocateAndDebit(ctx, kg)
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	}
}

func TestAllocateAndDebit_RetriesLostRace(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepo{batches: []*StockBatch{openBatch(100)}, failDebits: 1}
	svc, _ := newTestService(repo)

	b, err := svc.AllocateAndDebit(ctx, types.NewQuantityFromFloat64(10))
	require.NoError(t, err)

	assert.Equal(t, 2, repo.debitCalls)
	assert.Equal(t, 2, repo.oldestCalls)
	assert.Equal(t, types.NewQuantityFromFloat64(90), b.RemainingKg)
}

func TestAllocateAndDebit_GivesUpAfterRetries(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepo{batches: []*StockBatch{openBatch(100)}, failDebits: debitAttempts}
	svc, feed := newTestService(repo)

	_, err := svc.AllocateAndDebit(ctx, types.NewQuantityFromFloat64(10))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConcurrentModification, appErr.Code)
	assert.Equal(t, debitAttempts, repo.debitCalls)
	assert.Empty(t, feed.changes)
}

func TestCreate_PublishesCreatedEvent(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepo{}
	svc, feed := newTestService(repo)

	b := openBatch(500)
	require.NoError(t, svc.Create(ctx, b))

	require.Len(t, repo.created, 1)
	require.Len(t, feed.changes, 1)
	assert.Equal(t, changefeed.ActionCreated, feed.changes[0].Action)
	assert.Equal(t, b.ID, feed.changes[0].DocumentID)
	assert.Nil(t, feed.changes[0].Before)
}

func TestCreate_RejectsInvalidBatch(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepo{}
	svc, feed := newTestService(repo)

	b := openBatch(500)
	b.Supplier = ""

	err := svc.Create(ctx, b)
	require.Error(t, err)
	assert.Empty(t, repo.created)
	assert.Empty(t, feed.changes)
}

func TestCorrect_ShiftsRemaining(t *testing.T) {
	ctx := context.Background()
	b := openBatch(1000)
	b.RemainingKg = types.NewQuantityFromFloat64(300)
	repo := &mockRepo{batches: []*StockBatch{b}}
	svc, feed := newTestService(repo)

	updated, err := svc.Correct(ctx, b.ID, Correction{
		QuantityKg: types.NewQuantityFromFloat64(1200),
		CostPerKg:  types.MustMoney("48"),
	})
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantityFromFloat64(500), updated.RemainingKg)
	require.Len(t, feed.changes, 1)
	assert.Equal(t, changefeed.ActionUpdated, feed.changes[0].Action)
	assert.NotNil(t, feed.changes[0].Before)
}
