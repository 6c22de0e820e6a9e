package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bookstore-orders/internal/database"
	"bookstore-orders/internal/metrics"
	"bookstore-orders/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Server struct {
	orders  *service.OrderService
	db      database.Service
	log     *slog.Logger
	metrics *metrics.Metrics
	origins []string
}

type Options struct {
	// DB is optional; without it /healthz reports the in-memory ledger.
	DB          database.Service
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	CORSOrigins []string
}

func New(orders *service.OrderService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNop()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Server{
		orders:  orders,
		db:      opts.DB,
		log:     opts.Logger,
		metrics: opts.Metrics,
		origins: opts.CORSOrigins,
	}
}

func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(s.log), instrument(s.metrics))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(s.origins) == 1 && s.origins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.origins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	users := r.Group("/users/:userId")
	users.POST("/cart", s.addToCart)
	users.GET("/cart", s.getCart)
	users.DELETE("/cart", s.clearCart)
	users.POST("/orders", s.placeOrder)
	users.GET("/orders", s.ordersByUser)

	orders := r.Group("/orders/:orderId")
	orders.GET("", s.getOrder)
	orders.GET("/items", s.orderItems)
	orders.PUT("/status", s.updateStatus)

	return r
}

// ListenAndServe serves until ctx is cancelled, then drains for up to grace.
func (s *Server) ListenAndServe(ctx context.Context, port int, grace time.Duration) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) health(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "up", "ledger": "memory"})
		return
	}
	stats := s.db.Health(c.Request.Context())
	if stats["status"] != "up" {
		c.JSON(http.StatusServiceUnavailable, stats)
		return
	}
	c.JSON(http.StatusOK, stats)
}
