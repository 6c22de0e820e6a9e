package service

import (
	"context"
	"fmt"
	"strings"

	"bookstore-orders/internal/domain"
)

// StockValidator answers whether an item exists and has enough units right now.
// The answer is advisory: nothing is reserved, so two callers can both see the
// same stock before either decrements it.
type StockValidator struct {
	catalog Catalog
}

func NewStockValidator(catalog Catalog) *StockValidator {
	return &StockValidator{catalog: catalog}
}

func (v *StockValidator) CheckAvailability(ctx context.Context, itemID string, quantity int) (domain.ItemSnapshot, error) {
	if strings.TrimSpace(itemID) == "" {
		return domain.ItemSnapshot{}, fmt.Errorf("%w: item id is required", domain.ErrInvalidInput)
	}
	if quantity <= 0 {
		return domain.ItemSnapshot{}, fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrInvalidInput, quantity)
	}

	item, err := v.catalog.GetItem(ctx, itemID)
	if err != nil {
		return domain.ItemSnapshot{}, err
	}

	available, err := v.catalog.GetAvailableQuantity(ctx, itemID)
	if err != nil {
		return domain.ItemSnapshot{}, err
	}

	if available < quantity {
		return domain.ItemSnapshot{}, &domain.InsufficientStockError{
			ItemID:    itemID,
			Requested: quantity,
			Available: available,
		}
	}

	return domain.ItemSnapshot{
		ItemID:            item.ID,
		Title:             item.Title,
		UnitPrice:         item.UnitPrice,
		AvailableQuantity: available,
	}, nil
}
