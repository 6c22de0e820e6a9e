package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"bookstore-orders/internal/domain"
	"bookstore-orders/internal/infrastructure/boundary"
)

// MovementRequest is the wire shape: two parallel arrays.
type MovementRequest struct {
	ItemIDs    []string `json:"itemIds"`
	Quantities []int    `json:"quantities"`
}

type Client struct {
	caller *boundary.Caller
}

func NewClient(caller *boundary.Caller) *Client {
	return &Client{caller: caller}
}

func (c *Client) Decrement(ctx context.Context, itemIDs []string, quantities []int) error {
	if len(itemIDs) != len(quantities) {
		return fmt.Errorf("inventory: %d item ids but %d quantities", len(itemIDs), len(quantities))
	}
	err := c.caller.Do(ctx, "decrement", http.MethodPost, "/inventory/decrement",
		MovementRequest{ItemIDs: itemIDs, Quantities: quantities}, nil)
	return mapMovementError(err)
}

func (c *Client) Restock(ctx context.Context, itemIDs []string, quantities []int) error {
	if len(itemIDs) != len(quantities) {
		return fmt.Errorf("inventory: %d item ids but %d quantities", len(itemIDs), len(quantities))
	}
	err := c.caller.Do(ctx, "restock", http.MethodPost, "/inventory/restock",
		MovementRequest{ItemIDs: itemIDs, Quantities: quantities}, nil)
	return mapMovementError(err)
}

// mapMovementError turns the service's authoritative refusals into domain errors.
// Anything else stays a boundary failure: the movement may or may not have landed.
func mapMovementError(err error) error {
	if errors.Is(err, boundary.ErrNotFound) {
		return fmt.Errorf("inventory: %w", domain.ErrItemNotFound)
	}
	var se *boundary.StatusError
	if errors.As(err, &se) && se.Status == http.StatusConflict {
		var body conflictResponse
		if json.Unmarshal([]byte(se.Body), &body) == nil && body.Available != nil {
			return fmt.Errorf("inventory: %w", &domain.InsufficientStockError{
				ItemID:    body.ItemID,
				Requested: body.Requested,
				Available: *body.Available,
			})
		}
		return fmt.Errorf("inventory: %s: %w", se.Body, domain.ErrInsufficientStock)
	}
	return err
}

// conflictResponse is the 409 body for a refused movement.
type conflictResponse struct {
	Error     string `json:"error"`
	ItemID    string `json:"itemId"`
	Requested int    `json:"requested"`
	Available *int   `json:"available"`
}
