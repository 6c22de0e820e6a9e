package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"bookstore-orders/internal/domain"
	"bookstore-orders/internal/infrastructure/boundary"
)

type Client struct {
	caller *boundary.Caller
}

func NewClient(caller *boundary.Caller) *Client {
	return &Client{caller: caller}
}

func (c *Client) GetItem(ctx context.Context, itemID string) (domain.Item, error) {
	var item domain.Item
	err := c.caller.Do(ctx, "get_item", http.MethodGet, "/items/"+url.PathEscape(itemID), nil, &item)
	if errors.Is(err, boundary.ErrNotFound) {
		return domain.Item{}, fmt.Errorf("item %s: %w", itemID, domain.ErrItemNotFound)
	}
	if err != nil {
		return domain.Item{}, err
	}
	return item, nil
}

type quantityResponse struct {
	Available int `json:"available"`
}

func (c *Client) GetAvailableQuantity(ctx context.Context, itemID string) (int, error) {
	var resp quantityResponse
	err := c.caller.Do(ctx, "get_available_quantity", http.MethodGet, "/items/"+url.PathEscape(itemID)+"/quantity", nil, &resp)
	if errors.Is(err, boundary.ErrNotFound) {
		return 0, fmt.Errorf("item %s: %w", itemID, domain.ErrItemNotFound)
	}
	if err != nil {
		return 0, err
	}
	if resp.Available < 0 {
		resp.Available = 0
	}
	return resp.Available, nil
}
