package mock

import (
	"errors"
	"net/http"
	"strconv"

	"bookstore-orders/internal/domain"
	"bookstore-orders/internal/infrastructure/inventory"

	"github.com/gin-gonic/gin"
)

// Handler serves the fakes over the same HTTP contract the real boundary
// clients speak, so the clients can be exercised end to end.
func Handler(users *Users, store *Store) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/users/:id", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		u, err := users.GetUser(c.Request.Context(), id)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	})

	r.GET("/items/:id", func(c *gin.Context) {
		item, err := store.GetItem(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	})

	r.GET("/items/:id/quantity", func(c *gin.Context) {
		n, err := store.GetAvailableQuantity(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"available": n})
	})

	movement := func(apply func(*gin.Context, inventory.MovementRequest) error) gin.HandlerFunc {
		return func(c *gin.Context) {
			var req inventory.MovementRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := apply(c, req); err != nil {
				writeErr(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		}
	}
	r.POST("/inventory/decrement", movement(func(c *gin.Context, req inventory.MovementRequest) error {
		return store.Decrement(c.Request.Context(), req.ItemIDs, req.Quantities)
	}))
	r.POST("/inventory/restock", movement(func(c *gin.Context, req inventory.MovementRequest) error {
		return store.Restock(c.Request.Context(), req.ItemIDs, req.Quantities)
	}))

	return r
}

func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		body := gin.H{"error": err.Error()}
		var ise *domain.InsufficientStockError
		if errors.As(err, &ise) {
			body["itemId"] = ise.ItemID
			body["requested"] = ise.Requested
			body["available"] = ise.Available
		}
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, domain.ErrBoundaryUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
