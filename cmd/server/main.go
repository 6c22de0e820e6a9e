package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookstore-orders/internal/config"
	"bookstore-orders/internal/database"
	"bookstore-orders/internal/domain"
	"bookstore-orders/internal/infrastructure/boundary"
	"bookstore-orders/internal/infrastructure/catalog"
	"bookstore-orders/internal/infrastructure/inventory"
	"bookstore-orders/internal/infrastructure/mock"
	"bookstore-orders/internal/infrastructure/user"
	"bookstore-orders/internal/logger"
	"bookstore-orders/internal/metrics"
	"bookstore-orders/internal/repo"
	"bookstore-orders/internal/server"
	"bookstore-orders/internal/service"
	"bookstore-orders/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service: "bookstore-orders",
		Env:     cfg.Server.Env,
		Level:   cfg.Server.LogLevel,
	})
	if cfg.Server.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var (
		db            database.Service
		orderRepo     repo.OrderRepo
		compensations repo.CompensationRepo
	)
	if dsn := cfg.Database.DSN(); dsn != "" {
		var err error
		db, err = database.NewPostgres(ctx, dsn)
		if err != nil {
			return err
		}
		defer db.Close()
		orderRepo = repo.NewOrderRepo(db.DB())
		compensations = repo.NewCompensationRepo(db.DB())
		log.Info("order ledger on postgres")
	} else {
		orderRepo = repo.NewMemoryOrderRepo()
		compensations = repo.NewMemoryCompensationRepo()
		log.Warn("DATABASE_URL not set, order ledger is in memory")
	}

	var carts repo.CartRepo
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		carts = repo.NewRedisCartRepo(rdb, cfg.Policy.MergeDuplicateLines)
		log.Info("carts on redis", slog.String("addr", cfg.Redis.Addr))
	} else {
		carts = repo.NewMemoryCartRepo(cfg.Policy.MergeDuplicateLines)
	}

	users, cat, inv := boundaries(cfg.Boundaries, m, log)

	orders := service.NewOrderService(service.Deps{
		Users:         users,
		Catalog:       cat,
		Inventory:     inv,
		Carts:         carts,
		Ledger:        service.NewOrderLedger(orderRepo, cfg.Policy.EnforceTransitions),
		Compensations: compensations,
		Logger:        log,
		Metrics:       m,
	}, service.Options{
		Policy: service.Policy{
			RejectEmptyCart:     cfg.Policy.RejectEmptyCart,
			CompensateOnFailure: cfg.Policy.CompensateOnFailure,
		},
		OrderItemsConcurrency: cfg.Boundaries.OrderItemsWorkers,
		CompensationRetries:   cfg.Compensation.MaxRetries,
	})

	w := worker.NewCompensationWorker(compensations, inv, worker.Options{
		Interval:  cfg.Compensation.Interval,
		OlderThan: cfg.Compensation.OlderThan,
		BatchSize: cfg.Compensation.BatchSize,
		Logger:    log,
		Metrics:   m,
	})
	go w.Run(ctx)

	srv := server.New(orders, server.Options{
		DB:          db,
		Logger:      log,
		Metrics:     m,
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	return srv.ListenAndServe(ctx, cfg.Server.Port, 10*time.Second)
}

// boundaries returns HTTP clients for every configured collaborator and
// in-process fakes for the rest.
func boundaries(cfg config.BoundaryConfig, m *metrics.Metrics, log *slog.Logger) (service.UserDirectory, service.Catalog, service.Inventory) {
	var (
		users service.UserDirectory
		cat   service.Catalog
		inv   service.Inventory
	)

	store := demoStore()
	if cfg.UserBaseURL != "" {
		users = user.NewDirectory(boundary.NewCaller("users", cfg.UserBaseURL, cfg.Timeout, m))
	} else {
		users = mock.NewUsers(
			domain.User{ID: 1, Name: "Ada", Email: "ada@example.com", Role: "customer"},
			domain.User{ID: 2, Name: "Linus", Email: "linus@example.com", Role: "customer"},
		)
		log.Warn("USER_BASE_URL not set, using in-process users")
	}
	if cfg.CatalogBaseURL != "" {
		cat = catalog.NewClient(boundary.NewCaller("catalog", cfg.CatalogBaseURL, cfg.Timeout, m))
	} else {
		cat = store
		log.Warn("CATALOG_BASE_URL not set, using in-process catalog")
	}
	if cfg.InventoryBaseURL != "" {
		inv = inventory.NewClient(boundary.NewCaller("inventory", cfg.InventoryBaseURL, cfg.Timeout, m))
	} else {
		inv = store
		log.Warn("INVENTORY_BASE_URL not set, using in-process inventory")
	}
	return users, cat, inv
}

func demoStore() *mock.Store {
	s := mock.NewStore()
	s.Put(domain.Item{ID: "go-prog", Title: "The Go Programming Language", UnitPrice: decimal.RequireFromString("34.99")}, 20)
	s.Put(domain.Item{ID: "ddia", Title: "Designing Data-Intensive Applications", UnitPrice: decimal.RequireFromString("42.50")}, 10)
	s.Put(domain.Item{ID: "sicp", Title: "Structure and Interpretation of Computer Programs", UnitPrice: decimal.RequireFromString("55.00")}, 5)
	return s
}
