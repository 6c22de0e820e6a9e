package repo

import (
	"context"
	"database/sql"
	"time"

	"bookstore-orders/internal/domain"

	"github.com/google/uuid"
)

type CompensationRepo interface {
	Record(ctx context.Context, c *domain.Compensation) error
	// FindPending returns pending compensations created before now-olderThan, oldest first.
	FindPending(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Compensation, error)
	MarkDone(ctx context.Context, id uuid.UUID) error
	MarkAttempt(ctx context.Context, id uuid.UUID, lastErr string) error
}

type compensationRepo struct {
	db *sql.DB
}

func NewCompensationRepo(db *sql.DB) CompensationRepo {
	return &compensationRepo{db: db}
}

func (r *compensationRepo) Record(ctx context.Context, c *domain.Compensation) error {
	prepareCompensation(c)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO compensations (id, saga_id, user_id, item_id, quantity, status, attempts, last_error, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.SagaID, c.UserID, c.ItemID, c.Quantity, c.Status, c.Attempts, c.LastError, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *compensationRepo) FindPending(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Compensation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, saga_id, user_id, item_id, quantity, status, attempts, last_error, created_at, updated_at
		 FROM compensations
		 WHERE status = $1 AND created_at <= $2
		 ORDER BY created_at
		 LIMIT $3`,
		domain.CompensationPending, time.Now().UTC().Add(-olderThan), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Compensation
	for rows.Next() {
		var c domain.Compensation
		if err := rows.Scan(
			&c.ID,
			&c.SagaID,
			&c.UserID,
			&c.ItemID,
			&c.Quantity,
			&c.Status,
			&c.Attempts,
			&c.LastError,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *compensationRepo) MarkDone(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE compensations SET status = $1, updated_at = now() WHERE id = $2",
		domain.CompensationDone, id,
	)
	return err
}

func (r *compensationRepo) MarkAttempt(ctx context.Context, id uuid.UUID, lastErr string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE compensations SET attempts = attempts + 1, last_error = $1, updated_at = now() WHERE id = $2",
		lastErr, id,
	)
	return err
}

func prepareCompensation(c *domain.Compensation) {
	now := time.Now().UTC()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = domain.CompensationPending
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}
