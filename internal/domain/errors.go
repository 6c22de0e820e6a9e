package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrItemNotFound        = errors.New("item not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrBoundaryUnavailable = errors.New("boundary unavailable")
)

type InsufficientStockError struct {
	ItemID    string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: requested %d, available %d", e.ItemID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// BoundaryError reports a failed call to an external collaborator.
// Timeout separates a deadline from a transport or server failure.
type BoundaryError struct {
	Boundary string
	Op       string
	Timeout  bool
	Err      error
}

func (e *BoundaryError) Error() string {
	kind := "unavailable"
	if e.Timeout {
		kind = "timed out"
	}
	return fmt.Sprintf("%s %s %s: %v", e.Boundary, e.Op, kind, e.Err)
}

func (e *BoundaryError) Unwrap() error { return e.Err }

func (e *BoundaryError) Is(target error) bool {
	return target == ErrBoundaryUnavailable
}

func NewBoundaryError(boundary, op string, err error) *BoundaryError {
	return &BoundaryError{
		Boundary: boundary,
		Op:       op,
		Timeout:  isTimeout(err),
		Err:      err,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// IsBoundaryTimeout reports whether err came from a boundary call that hit its deadline.
func IsBoundaryTimeout(err error) bool {
	var be *BoundaryError
	return errors.As(err, &be) && be.Timeout
}
