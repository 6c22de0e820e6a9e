package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT      NOT NULL,
		order_date   TIMESTAMPTZ NOT NULL,
		total_amount NUMERIC     NOT NULL,
		status       TEXT        NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_user_id_idx ON orders (user_id, id)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		order_id   BIGINT        NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		position   INT           NOT NULL,
		item_id    TEXT          NOT NULL,
		quantity   INT           NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC       NOT NULL,
		PRIMARY KEY (order_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS compensations (
		id         UUID PRIMARY KEY,
		saga_id    UUID        NOT NULL,
		user_id    BIGINT      NOT NULL,
		item_id    TEXT        NOT NULL,
		quantity   INT         NOT NULL,
		status     TEXT        NOT NULL,
		attempts   INT         NOT NULL DEFAULT 0,
		last_error TEXT        NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS compensations_pending_idx ON compensations (status, created_at)`,
	// Catalog prices carry arbitrary scale; a fixed scale would round lines and totals apart.
	`ALTER TABLE orders ALTER COLUMN total_amount TYPE NUMERIC`,
	`ALTER TABLE order_lines ALTER COLUMN unit_price TYPE NUMERIC`,
}

// Migrate creates the ledger tables when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
