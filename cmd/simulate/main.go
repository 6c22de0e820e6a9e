package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"time"

	"bookstore-orders/internal/domain"
	"bookstore-orders/internal/infrastructure/mock"
	"bookstore-orders/internal/logger"
	"bookstore-orders/internal/repo"
	"bookstore-orders/internal/service"
	"bookstore-orders/internal/worker"

	"github.com/shopspring/decimal"
)

// simulate drives several users through add-to-cart and placement against
// in-process fakes with injected faults, then lets the compensation worker
// drain whatever restocks could not be applied in-call.
func main() {
	rounds := flag.Int("rounds", 20, "placements to attempt")
	failRate := flag.Float64("fail-rate", 0.15, "fraction of boundary calls that fail")
	baseline := flag.Bool("baseline", false, "run without compensation or empty-cart rejection")
	flag.Parse()

	ctx := context.Background()
	log := logger.New(logger.Options{Service: "bookstore-simulate", Env: "sim", Level: "warn"})

	users := mock.NewUsers(
		domain.User{ID: 1, Name: "Ada"},
		domain.User{ID: 2, Name: "Linus"},
		domain.User{ID: 3, Name: "Grace"},
	)
	store := mock.NewStore()
	store.Put(domain.Item{ID: "go-prog", Title: "The Go Programming Language", UnitPrice: decimal.RequireFromString("34.99")}, 40)
	store.Put(domain.Item{ID: "ddia", Title: "Designing Data-Intensive Applications", UnitPrice: decimal.RequireFromString("42.50")}, 40)
	store.Put(domain.Item{ID: "sicp", Title: "Structure and Interpretation of Computer Programs", UnitPrice: decimal.RequireFromString("55.00")}, 40)
	initial := totalStock(store)

	compensations := repo.NewMemoryCompensationRepo()
	orderRepo := repo.NewMemoryOrderRepo()

	policy := service.HardenedPolicy()
	if *baseline {
		policy = service.Policy{}
	}
	orders := service.NewOrderService(service.Deps{
		Users:         users,
		Catalog:       store,
		Inventory:     store,
		Carts:         repo.NewMemoryCartRepo(false),
		Ledger:        service.NewOrderLedger(orderRepo, true),
		Compensations: compensations,
		Logger:        log,
	}, service.Options{Policy: policy, CompensationRetries: 1, CompensationInterval: 10 * time.Millisecond})

	fmt.Printf("--- STARTING SIMULATION (%d PLACEMENTS, fail rate %.2f) ---\n", *rounds, *failRate)

	placed := 0
	for i := 0; i < *rounds; i++ {
		userID := int64(i%3 + 1)

		store.SetFailRate(0)
		for _, id := range []string{"go-prog", "ddia", "sicp"} {
			if _, err := orders.AddToCart(ctx, userID, id, 1); err != nil {
				fmt.Printf("[%d] add %s failed: %v\n", i+1, id, err)
			}
		}

		store.SetFailRate(*failRate)
		fmt.Printf("[%d] user %d placing ... ", i+1, userID)
		order, err := orders.PlaceOrder(ctx, userID)
		if err != nil {
			fmt.Printf("FAILED: %v\n", err)
			_ = orders.ClearCart(ctx, userID)
		} else {
			placed++
			fmt.Printf("SUCCESS order %d total %s\n", order.ID, order.TotalAmount.StringFixed(2))
		}
		fmt.Printf("    -> stock drift: %d\n", drift(store, orderRepo, initial))
	}

	store.SetFailRate(0)
	pending, _ := compensations.FindPending(ctx, 0, 0)
	fmt.Printf("--- %d placed, %d restocks pending ---\n", placed, len(pending))

	w := worker.NewCompensationWorker(compensations, store, worker.Options{Logger: log})
	if _, err := w.Process(ctx); err != nil {
		log.Error("compensation pass failed", slog.Any("err", err))
	}
	fmt.Printf("--- after compensation worker: stock drift %d ---\n", drift(store, orderRepo, initial))
}

func totalStock(s *mock.Store) int {
	return s.Stock("go-prog") + s.Stock("ddia") + s.Stock("sicp")
}

// drift is stock that left the shelf without landing in any order.
func drift(s *mock.Store, orders repo.OrderRepo, initial int) int {
	ctx := context.Background()
	sold := 0
	for userID := int64(1); userID <= 3; userID++ {
		list, _ := orders.FindByUserId(ctx, userID)
		for _, o := range list {
			for _, l := range o.Lines {
				sold += l.Quantity
			}
		}
	}
	return initial - totalStock(s) - sold
}
