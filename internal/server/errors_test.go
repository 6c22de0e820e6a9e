package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"bookstore-orders/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{fmt.Errorf("user 1: %w", domain.ErrUserNotFound), CodeUserNotFound, http.StatusNotFound},
		{&domain.InsufficientStockError{ItemID: "E112"}, CodeInsufficientStock, http.StatusConflict},
		{&domain.TransitionError{From: domain.OrderCancelled, To: domain.OrderShipped}, CodeInvalidTransition, http.StatusConflict},
		{domain.NewBoundaryError("catalog", "get_item", errors.New("refused")), CodeBoundaryUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		code, status := classify(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
		assert.Equal(t, tt.status, status, tt.err.Error())
	}
}
