package service

import (
	"context"
	"testing"
	"time"

	"bookstore-orders/internal/domain"
	"bookstore-orders/internal/repo"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingOrder(userID int64) *domain.Order {
	now := time.Now().UTC()
	return &domain.Order{
		UserID:      userID,
		OrderDate:   now,
		UpdatedAt:   now,
		Status:      domain.OrderPending,
		TotalAmount: decimal.NewFromInt(20),
		Lines:       []domain.OrderLine{{ItemID: "E112", Quantity: 1, UnitPrice: decimal.NewFromInt(20)}},
	}
}

func TestOrderLedgerTransitions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		path  []domain.OrderStatus
		next  domain.OrderStatus
		valid bool
	}{
		{"pending to shipped", nil, domain.OrderShipped, true},
		{"pending to cancelled", nil, domain.OrderCancelled, true},
		{"pending to delivered", nil, domain.OrderDelivered, false},
		{"pending to pending", nil, domain.OrderPending, false},
		{"shipped to delivered", []domain.OrderStatus{domain.OrderShipped}, domain.OrderDelivered, true},
		{"shipped to returned", []domain.OrderStatus{domain.OrderShipped}, domain.OrderReturned, true},
		{"shipped to cancelled", []domain.OrderStatus{domain.OrderShipped}, domain.OrderCancelled, false},
		{"delivered to returned", []domain.OrderStatus{domain.OrderShipped, domain.OrderDelivered}, domain.OrderReturned, true},
		{"delivered to shipped", []domain.OrderStatus{domain.OrderShipped, domain.OrderDelivered}, domain.OrderShipped, false},
		{"cancelled is terminal", []domain.OrderStatus{domain.OrderCancelled}, domain.OrderPending, false},
		{"returned is terminal", []domain.OrderStatus{domain.OrderShipped, domain.OrderReturned}, domain.OrderDelivered, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := NewOrderLedger(repo.NewMemoryOrderRepo(), true)
			order, err := ledger.Save(ctx, pendingOrder(1))
			require.NoError(t, err)
			for _, st := range tt.path {
				_, err := ledger.UpdateStatus(ctx, order.ID, st)
				require.NoError(t, err)
			}

			got, err := ledger.UpdateStatus(ctx, order.ID, tt.next)
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, tt.next, got.Status)
				return
			}
			var te *domain.TransitionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.next, te.To)

			stored, err := ledger.FindById(ctx, order.ID)
			require.NoError(t, err)
			assert.NotEqual(t, tt.next, stored.Status)
		})
	}
}

func TestOrderLedgerWithoutEnforcement(t *testing.T) {
	ctx := context.Background()
	ledger := NewOrderLedger(repo.NewMemoryOrderRepo(), false)
	order, err := ledger.Save(ctx, pendingOrder(1))
	require.NoError(t, err)

	for _, st := range []domain.OrderStatus{domain.OrderCancelled, domain.OrderPending, domain.OrderPending, domain.OrderDelivered} {
		got, err := ledger.UpdateStatus(ctx, order.ID, st)
		require.NoError(t, err)
		assert.Equal(t, st, got.Status)
	}
}

func TestOrderLedgerLookups(t *testing.T) {
	ctx := context.Background()
	ledger := NewOrderLedger(repo.NewMemoryOrderRepo(), true)

	a, err := ledger.Save(ctx, pendingOrder(1))
	require.NoError(t, err)
	b, err := ledger.Save(ctx, pendingOrder(1))
	require.NoError(t, err)
	_, err = ledger.Save(ctx, pendingOrder(2))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	orders, err := ledger.FindByUserId(ctx, 1)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, a.ID, orders[0].ID)
	assert.Equal(t, b.ID, orders[1].ID)

	none, err := ledger.FindByUserId(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = ledger.FindById(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = ledger.UpdateStatus(ctx, 999, domain.OrderShipped)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = ledger.Save(ctx, nil)
	assert.Error(t, err)
}
