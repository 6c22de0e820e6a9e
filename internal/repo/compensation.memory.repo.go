package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"bookstore-orders/internal/domain"

	"github.com/google/uuid"
)

type memoryCompensationRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*domain.Compensation
}

func NewMemoryCompensationRepo() CompensationRepo {
	return &memoryCompensationRepo{rows: make(map[uuid.UUID]*domain.Compensation)}
}

func (r *memoryCompensationRepo) Record(ctx context.Context, c *domain.Compensation) error {
	prepareCompensation(c)
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *c
	r.rows[c.ID] = &stored
	return nil
}

func (r *memoryCompensationRepo) FindPending(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Compensation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	var out []domain.Compensation
	for _, c := range r.rows {
		if c.Status == domain.CompensationPending && !c.CreatedAt.After(cutoff) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryCompensationRepo) MarkDone(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.rows[id]; ok {
		c.Status = domain.CompensationDone
		c.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *memoryCompensationRepo) MarkAttempt(ctx context.Context, id uuid.UUID, lastErr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.rows[id]; ok {
		c.Attempts++
		c.LastError = lastErr
		c.UpdatedAt = time.Now().UTC()
	}
	return nil
}
