package mock

import (
	"context"
	"errors"
	"testing"

	"bookstore-orders/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecrementIsAllOrNothing(t *testing.T) {
	s := NewStore()
	s.Put(domain.Item{ID: "a", UnitPrice: decimal.NewFromInt(1)}, 2)
	s.Put(domain.Item{ID: "b", UnitPrice: decimal.NewFromInt(1)}, 1)
	ctx := context.Background()

	err := s.Decrement(ctx, []string{"a", "b"}, []int{1, 2})
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "b", ise.ItemID)
	assert.Equal(t, 2, s.Stock("a"))
	assert.Empty(t, s.Movements())

	require.NoError(t, s.Decrement(ctx, []string{"a", "b"}, []int{1, 1}))
	assert.Equal(t, 1, s.Stock("a"))
	assert.Zero(t, s.Stock("b"))

	err = s.Decrement(ctx, []string{"a", "a"}, []int{1, 1})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.ErrorIs(t, s.Decrement(ctx, []string{"zz"}, []int{1}), domain.ErrItemNotFound)
}

func TestScriptedFailures(t *testing.T) {
	s := NewStore()
	s.Put(domain.Item{ID: "a"}, 1)
	ctx := context.Background()

	custom := errors.New("catalog exploded")
	s.FailNext(OpGetItem, 2, custom)

	_, err := s.GetItem(ctx, "a")
	assert.ErrorIs(t, err, custom)
	_, err = s.GetItem(ctx, "a")
	assert.ErrorIs(t, err, custom)
	_, err = s.GetItem(ctx, "a")
	assert.NoError(t, err)

	s.SetFailRate(1)
	_, err = s.GetAvailableQuantity(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrBoundaryUnavailable)
	s.SetFailRate(0)
}

func TestUsers(t *testing.T) {
	u := NewUsers(domain.User{ID: 1, Name: "Ada"})
	u.Put(domain.User{ID: 2, Name: "Linus"})

	got, err := u.GetUser(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Linus", got.Name)

	_, err = u.GetUser(context.Background(), 3)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
