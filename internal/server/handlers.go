package server

import (
	"fmt"
	"net/http"
	"strconv"

	"bookstore-orders/internal/domain"

	"github.com/gin-gonic/gin"
)

type addToCartRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type cartResponse struct {
	UserID int64             `json:"userId"`
	Lines  []domain.CartLine `json:"lines"`
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		writeError(c, fmt.Errorf("%s %q: %w", name, c.Param(name), domain.ErrInvalidInput))
		return 0, false
	}
	return id, true
}

func (s *Server) addToCart(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("decode body: %v: %w", err, domain.ErrInvalidInput))
		return
	}

	lines, err := s.orders.AddToCart(c.Request.Context(), userID, req.ItemID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cartResponse{UserID: userID, Lines: lines})
}

func (s *Server) getCart(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}
	lines, err := s.orders.GetCart(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{UserID: userID, Lines: lines})
}

func (s *Server) clearCart(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}
	if err := s.orders.ClearCart(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) placeOrder(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}

	order, replayed, err := s.orders.PlaceOrderOnce(c.Request.Context(), userID, c.GetHeader("Idempotency-Key"))
	if err != nil {
		writePlacementError(c, err)
		return
	}
	if replayed {
		c.JSON(http.StatusOK, order)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *Server) ordersByUser(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}
	orders, err := s.orders.OrdersByUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) getOrder(c *gin.Context) {
	orderID, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	order, err := s.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) orderItems(c *gin.Context) {
	orderID, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	items, err := s.orders.OrderItems(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) updateStatus(c *gin.Context) {
	orderID, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("decode body: %v: %w", err, domain.ErrInvalidInput))
		return
	}
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	order, err := s.orders.UpdateOrderStatus(c.Request.Context(), orderID, status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
