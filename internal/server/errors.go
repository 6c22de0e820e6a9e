package server

import (
	"errors"
	"net/http"

	"bookstore-orders/internal/domain"

	"github.com/gin-gonic/gin"
)

// Stable error codes returned in the response body.
const (
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeItemNotFound        = "ITEM_NOT_FOUND"
	CodeOrderNotFound       = "ORDER_NOT_FOUND"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeEmptyCart           = "EMPTY_CART"
	CodeInvalidArgument     = "INVALID_ARGUMENT"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeBoundaryUnavailable = "BOUNDARY_UNAVAILABLE"
	CodeInternal            = "INTERNAL"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Available *int   `json:"available,omitempty"`
}

type mapping struct {
	target error
	code   string
	status int
}

var errorTable = []mapping{
	{domain.ErrUserNotFound, CodeUserNotFound, http.StatusNotFound},
	{domain.ErrItemNotFound, CodeItemNotFound, http.StatusNotFound},
	{domain.ErrOrderNotFound, CodeOrderNotFound, http.StatusNotFound},
	{domain.ErrInsufficientStock, CodeInsufficientStock, http.StatusConflict},
	{domain.ErrEmptyCart, CodeEmptyCart, http.StatusBadRequest},
	{domain.ErrInvalidInput, CodeInvalidArgument, http.StatusBadRequest},
	{domain.ErrInvalidTransition, CodeInvalidTransition, http.StatusConflict},
	{domain.ErrBoundaryUnavailable, CodeBoundaryUnavailable, http.StatusServiceUnavailable},
}

func classify(err error) (code string, status int) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.code, m.status
		}
	}
	return CodeInternal, http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	code, status := classify(err)
	writeErrorStatus(c, err, code, status)
}

// writePlacementError reports every business rejection of a placement as 400;
// only an unreachable collaborator is a 503.
func writePlacementError(c *gin.Context, err error) {
	code, status := classify(err)
	if status != http.StatusServiceUnavailable && status != http.StatusInternalServerError {
		status = http.StatusBadRequest
	}
	writeErrorStatus(c, err, code, status)
}

func writeErrorStatus(c *gin.Context, err error, code string, status int) {
	body := errorBody{Code: code, Message: err.Error()}
	var ise *domain.InsufficientStockError
	if errors.As(err, &ise) {
		available := ise.Available
		body.Available = &available
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}
