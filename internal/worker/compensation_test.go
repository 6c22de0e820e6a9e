package worker

import (
	"context"
	"testing"
	"time"

	"bookstore-orders/internal/domain"
	"bookstore-orders/internal/infrastructure/mock"
	"bookstore-orders/internal/logger"
	"bookstore-orders/internal/repo"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setup(t *testing.T) (*mock.Store, repo.CompensationRepo, *CompensationWorker) {
	t.Helper()
	store := mock.NewStore()
	store.Put(domain.Item{ID: "E112", UnitPrice: decimal.NewFromInt(20)}, 8)
	pending := repo.NewMemoryCompensationRepo()
	w := NewCompensationWorker(pending, store, Options{
		Interval: 5 * time.Millisecond,
		Logger:   logger.Discard(),
	})
	return store, pending, w
}

func record(t *testing.T, r repo.CompensationRepo, itemID string, qty int) {
	t.Helper()
	require.NoError(t, r.Record(context.Background(), &domain.Compensation{
		SagaID:   uuid.New(),
		UserID:   1,
		ItemID:   itemID,
		Quantity: qty,
	}))
}

func TestProcessAppliesPendingRestocks(t *testing.T) {
	ctx := context.Background()
	store, pending, w := setup(t)
	record(t, pending, "E112", 2)

	applied, err := w.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Equal(t, 10, store.Stock("E112"))

	left, err := pending.FindPending(ctx, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, left)

	applied, err = w.Process(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied)
	assert.Equal(t, 10, store.Stock("E112"))
}

func TestProcessKeepsFailingRestockPending(t *testing.T) {
	ctx := context.Background()
	store, pending, w := setup(t)
	record(t, pending, "E112", 2)
	store.FailNext(mock.OpRestock, 1, nil)

	applied, err := w.Process(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied)
	assert.Equal(t, 8, store.Stock("E112"))

	left, err := pending.FindPending(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, 1, left[0].Attempts)
	assert.NotEmpty(t, left[0].LastError)

	applied, err = w.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Equal(t, 10, store.Stock("E112"))
}

func TestRunDrainsAndStops(t *testing.T) {
	store, pending, w := setup(t)
	record(t, pending, "E112", 1)
	record(t, pending, "E112", 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.Stock("E112") == 10 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
