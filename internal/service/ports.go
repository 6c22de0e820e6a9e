package service

import (
	"context"

	"bookstore-orders/internal/domain"
)

type UserDirectory interface {
	GetUser(ctx context.Context, userID int64) (domain.User, error)
}

type Catalog interface {
	GetItem(ctx context.Context, itemID string) (domain.Item, error)
	GetAvailableQuantity(ctx context.Context, itemID string) (int, error)
}

// Inventory applies stock movements as parallel arrays. There is no
// prepare/commit: a returned error means the movement may or may not have landed.
type Inventory interface {
	Decrement(ctx context.Context, itemIDs []string, quantities []int) error
	Restock(ctx context.Context, itemIDs []string, quantities []int) error
}
