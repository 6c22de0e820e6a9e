package repo

import (
	"context"
	"sync"

	"bookstore-orders/internal/domain"
)

// CartRepo holds one cart per user. Lines keep insertion order.
type CartRepo interface {
	AddLine(ctx context.Context, userID int64, line domain.CartLine) ([]domain.CartLine, error)
	GetLines(ctx context.Context, userID int64) ([]domain.CartLine, error)
	Clear(ctx context.Context, userID int64) error
}

type userCart struct {
	mu    sync.Mutex
	lines []domain.CartLine
}

type memoryCartRepo struct {
	mu    sync.Mutex
	carts map[int64]*userCart
	merge bool
}

// NewMemoryCartRepo keeps carts in process memory. With merge set, re-adding an
// item replaces its line with one carrying the summed quantity instead of
// appending a second line.
func NewMemoryCartRepo(merge bool) CartRepo {
	return &memoryCartRepo{carts: make(map[int64]*userCart), merge: merge}
}

func (r *memoryCartRepo) cart(userID int64, create bool) *userCart {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[userID]
	if !ok && create {
		c = &userCart{}
		r.carts[userID] = c
	}
	return c
}

func (r *memoryCartRepo) AddLine(ctx context.Context, userID int64, line domain.CartLine) ([]domain.CartLine, error) {
	c := r.cart(userID, true)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = appendLine(c.lines, line, r.merge)
	return copyLines(c.lines), nil
}

func (r *memoryCartRepo) GetLines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	c := r.cart(userID, false)
	if c == nil {
		return []domain.CartLine{}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return copyLines(c.lines), nil
}

func (r *memoryCartRepo) Clear(ctx context.Context, userID int64) error {
	c := r.cart(userID, false)
	if c == nil {
		return nil
	}

	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
	return nil
}

// appendLine never mutates an existing line; a merge swaps in a new value.
func appendLine(lines []domain.CartLine, line domain.CartLine, merge bool) []domain.CartLine {
	if merge {
		for i, l := range lines {
			if l.ItemID == line.ItemID {
				out := copyLines(lines)
				out[i] = domain.CartLine{ItemID: l.ItemID, Quantity: l.Quantity + line.Quantity}
				return out
			}
		}
	}
	return append(lines, line)
}

func copyLines(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out
}
