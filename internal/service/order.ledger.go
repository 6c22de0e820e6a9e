package service

import (
	"context"
	"errors"

	"bookstore-orders/internal/domain"
	"bookstore-orders/internal/repo"
)

// OrderLedger owns persistence and the status lifecycle of orders.
type OrderLedger struct {
	repo    repo.OrderRepo
	enforce bool
}

// NewOrderLedger builds a ledger. With enforce off any status may follow any other.
func NewOrderLedger(r repo.OrderRepo, enforce bool) *OrderLedger {
	return &OrderLedger{repo: r, enforce: enforce}
}

// Save inserts a new order (ID zero) or writes back the status of an existing one.
func (l *OrderLedger) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("nil order")
	}
	if err := l.repo.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (l *OrderLedger) FindById(ctx context.Context, orderID int64) (*domain.Order, error) {
	return l.repo.FindById(ctx, orderID)
}

func (l *OrderLedger) FindByUserId(ctx context.Context, userID int64) ([]domain.Order, error) {
	return l.repo.FindByUserId(ctx, userID)
}

func (l *OrderLedger) UpdateStatus(ctx context.Context, orderID int64, next domain.OrderStatus) (*domain.Order, error) {
	var guard domain.TransitionGuard
	if l.enforce {
		guard = domain.StrictTransitions
	}
	return l.repo.UpdateStatus(ctx, orderID, next, guard)
}
