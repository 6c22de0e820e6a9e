package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bookstore-orders/internal/domain"
	"bookstore-orders/internal/metrics"
	"bookstore-orders/internal/repo"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// placement records the decrements applied so far in one PlaceOrder call.
type placement struct {
	id      uuid.UUID
	userID  int64
	applied []domain.CartLine
}

func newPlacement(userID int64) *placement {
	return &placement{id: uuid.New(), userID: userID}
}

func (p *placement) decremented(line domain.CartLine) {
	p.applied = append(p.applied, line)
}

// compensator restocks decrements of a failed placement, newest first.
// Restocks that keep failing go to the compensation ledger for the worker.
type compensator struct {
	inventory  Inventory
	pending    repo.CompensationRepo
	maxRetries uint64
	interval   time.Duration
	log        *slog.Logger
	metrics    *metrics.Metrics
}

func (c *compensator) unwind(ctx context.Context, p *placement) {
	// The caller's request may already be cancelled; restocking must still run.
	ctx = context.WithoutCancel(ctx)

	for i := len(p.applied) - 1; i >= 0; i-- {
		line := p.applied[i]
		err := c.restock(ctx, line)
		if err == nil {
			c.metrics.Compensations.WithLabelValues("applied").Inc()
			c.log.Info("restocked after failed placement",
				slog.String("saga_id", p.id.String()),
				slog.Int64("user_id", p.userID),
				slog.String("item_id", line.ItemID),
				slog.Int("quantity", line.Quantity),
			)
			continue
		}

		c.metrics.Compensations.WithLabelValues("deferred").Inc()
		c.log.Error("restock failed, deferring to worker",
			slog.String("saga_id", p.id.String()),
			slog.String("item_id", line.ItemID),
			slog.Any("err", err),
		)
		rec := &domain.Compensation{
			SagaID:    p.id,
			UserID:    p.userID,
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			Attempts:  1,
			LastError: err.Error(),
		}
		if err := c.pending.Record(ctx, rec); err != nil {
			c.log.Error("could not record pending restock",
				slog.String("saga_id", p.id.String()),
				slog.String("item_id", line.ItemID),
				slog.Any("err", err),
			)
		}
	}
}

func (c *compensator) restock(ctx context.Context, line domain.CartLine) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.interval
	b.MaxInterval = 20 * c.interval

	op := func() error {
		err := c.inventory.Restock(ctx, []string{line.ItemID}, []int{line.Quantity})
		if err != nil && !errors.Is(err, domain.ErrBoundaryUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx))
}
