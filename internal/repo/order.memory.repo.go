package repo

import (
	"context"
	"sync"
	"time"

	"bookstore-orders/internal/domain"
)

type memoryOrderRepo struct {
	mu     sync.RWMutex
	nextID int64
	orders map[int64]*domain.Order
	byUser map[int64][]int64
}

func NewMemoryOrderRepo() OrderRepo {
	return &memoryOrderRepo{
		orders: make(map[int64]*domain.Order),
		byUser: make(map[int64][]int64),
	}
}

func (r *memoryOrderRepo) Save(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == 0 {
		r.nextID++
		order.ID = r.nextID
		stored := cloneOrder(*order)
		r.orders[order.ID] = &stored
		r.byUser[order.UserID] = append(r.byUser[order.UserID], order.ID)
		return nil
	}

	stored, ok := r.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	stored.Status = order.Status
	stored.UpdatedAt = order.UpdatedAt
	return nil
}

func (r *memoryOrderRepo) FindById(ctx context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	out := cloneOrder(*stored)
	return &out, nil
}

func (r *memoryOrderRepo) FindByUserId(ctx context.Context, userID int64) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byUser[userID]
	out := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneOrder(*r.orders[id]))
	}
	return out, nil
}

func (r *memoryOrderRepo) UpdateStatus(ctx context.Context, id int64, next domain.OrderStatus, guard domain.TransitionGuard) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if guard != nil {
		if err := guard(stored.Status, next); err != nil {
			return nil, err
		}
	}
	stored.Status = next
	stored.UpdatedAt = time.Now().UTC()

	out := cloneOrder(*stored)
	return &out, nil
}

func cloneOrder(o domain.Order) domain.Order {
	lines := make([]domain.OrderLine, len(o.Lines))
	copy(lines, o.Lines)
	o.Lines = lines
	return o
}
