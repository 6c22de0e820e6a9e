package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderShipped   OrderStatus = "Shipped"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
	OrderReturned  OrderStatus = "Returned"
)

var allStatuses = []OrderStatus{OrderPending, OrderShipped, OrderDelivered, OrderCancelled, OrderReturned}

// validTransitions lists the statuses reachable from each status.
// Cancelled and Returned are terminal.
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderShipped, OrderCancelled},
	OrderShipped:   {OrderDelivered, OrderReturned},
	OrderDelivered: {OrderReturned},
	OrderCancelled: {},
	OrderReturned:  {},
}

// ParseOrderStatus accepts any casing of a known status name.
func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range allStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, s)
}

func (s OrderStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionGuard decides whether an order may move from one status to another.
type TransitionGuard func(from, to OrderStatus) error

// StrictTransitions enforces the transition table.
func StrictTransitions(from, to OrderStatus) error {
	if !from.CanTransitionTo(to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

type OrderLine struct {
	ItemID    string          `json:"itemId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID          int64           `json:"orderId"`
	OrderDate   time.Time       `json:"orderDate"`
	UserID      int64           `json:"userId"`
	Lines       []OrderLine     `json:"lines"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      OrderStatus     `json:"status"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
