package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookstore-orders/internal/domain"

	"github.com/shopspring/decimal"
)

type OrderRepo interface {
	// Save inserts the order when its ID is zero, assigning a fresh ID;
	// otherwise it updates the status of the stored order.
	Save(ctx context.Context, order *domain.Order) error
	FindById(ctx context.Context, id int64) (*domain.Order, error)
	FindByUserId(ctx context.Context, userID int64) ([]domain.Order, error)
	// UpdateStatus reads, checks and writes under one lock. A nil guard allows any transition.
	UpdateStatus(ctx context.Context, id int64, next domain.OrderStatus, guard domain.TransitionGuard) (*domain.Order, error)
}

type orderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepo {
	return &orderRepo{db: db}
}

const selectOrders = `
	SELECT o.id, o.user_id, o.order_date, o.total_amount, o.status, o.updated_at,
	       l.item_id, l.quantity, l.unit_price
	FROM orders o
	LEFT JOIN order_lines l ON l.order_id = o.id`

func (r *orderRepo) Save(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if order.ID == 0 {
		if err := r.insert(ctx, tx, order); err != nil {
			return err
		}
	} else {
		res, err := tx.ExecContext(ctx,
			"UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3",
			order.Status, order.UpdatedAt, order.ID,
		)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrOrderNotFound
		}
	}

	return tx.Commit()
}

func (r *orderRepo) insert(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	err := tx.QueryRowContext(ctx,
		"INSERT INTO orders (user_id, order_date, total_amount, status, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		order.UserID, order.OrderDate, order.TotalAmount, order.Status, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, line := range order.Lines {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO order_lines (order_id, position, item_id, quantity, unit_price) VALUES ($1, $2, $3, $4, $5)",
			order.ID, i, line.ItemID, line.Quantity, line.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order line %d: %w", i, err)
		}
	}
	return nil
}

func (r *orderRepo) FindById(ctx context.Context, id int64) (*domain.Order, error) {
	orders, err := r.query(ctx, r.db, selectOrders+" WHERE o.id = $1 ORDER BY l.position", id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.ErrOrderNotFound
	}
	return &orders[0], nil
}

func (r *orderRepo) FindByUserId(ctx context.Context, userID int64) ([]domain.Order, error) {
	return r.query(ctx, r.db, selectOrders+" WHERE o.user_id = $1 ORDER BY o.id, l.position", userID)
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id int64, next domain.OrderStatus, guard domain.TransitionGuard) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var current domain.OrderStatus
	err = tx.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = $1 FOR UPDATE", id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if guard != nil {
		if err := guard(current, next); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3",
		next, time.Now().UTC(), id,
	); err != nil {
		return nil, err
	}

	orders, err := r.query(ctx, tx, selectOrders+" WHERE o.id = $1 ORDER BY l.position", id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// query folds the joined rows back into orders, keeping row order.
func (r *orderRepo) query(ctx context.Context, q querier, stmt string, args ...any) ([]domain.Order, error) {
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	index := make(map[int64]int)

	for rows.Next() {
		var (
			o         domain.Order
			itemID    sql.NullString
			quantity  sql.NullInt64
			unitPrice decimal.NullDecimal
		)
		if err := rows.Scan(
			&o.ID,
			&o.UserID,
			&o.OrderDate,
			&o.TotalAmount,
			&o.Status,
			&o.UpdatedAt,
			&itemID,
			&quantity,
			&unitPrice,
		); err != nil {
			return nil, err
		}

		i, seen := index[o.ID]
		if !seen {
			o.Lines = []domain.OrderLine{}
			orders = append(orders, o)
			i = len(orders) - 1
			index[o.ID] = i
		}
		if itemID.Valid {
			orders[i].Lines = append(orders[i].Lines, domain.OrderLine{
				ItemID:    itemID.String,
				Quantity:  int(quantity.Int64),
				UnitPrice: unitPrice.Decimal,
			})
		}
	}
	return orders, rows.Err()
}
