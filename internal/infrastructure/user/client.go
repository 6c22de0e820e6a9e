package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"bookstore-orders/internal/domain"
	"bookstore-orders/internal/infrastructure/boundary"
)

type Directory struct {
	caller *boundary.Caller
}

func NewDirectory(caller *boundary.Caller) *Directory {
	return &Directory{caller: caller}
}

func (d *Directory) GetUser(ctx context.Context, userID int64) (domain.User, error) {
	var u domain.User
	err := d.caller.Do(ctx, "get_user", http.MethodGet, fmt.Sprintf("/users/%d", userID), nil, &u)
	if errors.Is(err, boundary.ErrNotFound) {
		return domain.User{}, fmt.Errorf("user %d: %w", userID, domain.ErrUserNotFound)
	}
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}
