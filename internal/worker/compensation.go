package worker

import (
	"context"
	"log/slog"
	"time"

	"bookstore-orders/internal/domain"
	"bookstore-orders/internal/metrics"
	"bookstore-orders/internal/repo"
)

type Restocker interface {
	Restock(ctx context.Context, itemIDs []string, quantities []int) error
}

// CompensationWorker retries restocks that a failed placement could not apply
// in-call. The compensation ledger is the source of truth for what is owed.
type CompensationWorker struct {
	repo      repo.CompensationRepo
	inventory Restocker
	interval  time.Duration
	olderThan time.Duration
	batch     int
	log       *slog.Logger
	metrics   *metrics.Metrics
}

type Options struct {
	Interval  time.Duration
	OlderThan time.Duration
	BatchSize int
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

func NewCompensationWorker(r repo.CompensationRepo, inventory Restocker, opts Options) *CompensationWorker {
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNop()
	}
	return &CompensationWorker{
		repo:      r,
		inventory: inventory,
		interval:  opts.Interval,
		olderThan: opts.OlderThan,
		batch:     opts.BatchSize,
		log:       opts.Logger.With(slog.String("component", "compensation_worker")),
		metrics:   opts.Metrics,
	}
}

func (w *CompensationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("compensation worker started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("compensation worker stopped")
			return
		case <-ticker.C:
			if _, err := w.Process(ctx); err != nil {
				w.log.Error("compensation pass failed", slog.Any("err", err))
			}
		}
	}
}

// Process runs one pass and reports how many restocks were applied.
func (w *CompensationWorker) Process(ctx context.Context) (int, error) {
	pending, err := w.repo.FindPending(ctx, w.olderThan, w.batch)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	w.log.Info("retrying pending restocks", slog.Int("count", len(pending)))

	applied := 0
	for _, c := range pending {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		if err := w.apply(ctx, c); err != nil {
			w.metrics.Compensations.WithLabelValues("retry_failed").Inc()
			w.log.Warn("restock still failing",
				slog.String("compensation_id", c.ID.String()),
				slog.String("item_id", c.ItemID),
				slog.Int("attempts", c.Attempts+1),
				slog.Bool("timeout", domain.IsBoundaryTimeout(err)),
				slog.Any("err", err),
			)
			if err := w.repo.MarkAttempt(ctx, c.ID, err.Error()); err != nil {
				return applied, err
			}
			continue
		}

		if err := w.repo.MarkDone(ctx, c.ID); err != nil {
			return applied, err
		}
		applied++
		w.metrics.Compensations.WithLabelValues("recovered").Inc()
		w.log.Info("pending restock applied",
			slog.String("compensation_id", c.ID.String()),
			slog.String("saga_id", c.SagaID.String()),
			slog.String("item_id", c.ItemID),
			slog.Int("quantity", c.Quantity),
		)
	}
	return applied, nil
}

func (w *CompensationWorker) apply(ctx context.Context, c domain.Compensation) error {
	return w.inventory.Restock(ctx, []string{c.ItemID}, []int{c.Quantity})
}
