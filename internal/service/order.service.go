package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bookstore-orders/internal/domain"
	"bookstore-orders/internal/metrics"
	"bookstore-orders/internal/repo"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Policy controls placement edge cases. With the zero value an empty cart
// places an empty order and applied decrements are never rolled back.
type Policy struct {
	RejectEmptyCart     bool
	CompensateOnFailure bool
}

// HardenedPolicy rejects empty carts and restocks on failure.
func HardenedPolicy() Policy {
	return Policy{RejectEmptyCart: true, CompensateOnFailure: true}
}

type Deps struct {
	Users         UserDirectory
	Catalog       Catalog
	Inventory     Inventory
	Carts         repo.CartRepo
	Ledger        *OrderLedger
	Compensations repo.CompensationRepo
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
}

type Options struct {
	Policy Policy
	// OrderItemsConcurrency bounds catalog lookups in OrderItems.
	OrderItemsConcurrency int
	// CompensationRetries and CompensationInterval shape the in-call restock backoff.
	CompensationRetries  uint64
	CompensationInterval time.Duration
	// IdempotencyTTL and IdempotencyMaxKeys bound the keys PlaceOrderOnce remembers.
	IdempotencyTTL     time.Duration
	IdempotencyMaxKeys int
	Now                func() time.Time
}

type OrderService struct {
	users     UserDirectory
	catalog   Catalog
	inventory Inventory
	validator *StockValidator
	carts     repo.CartRepo
	ledger    *OrderLedger
	comp      *compensator
	log       *slog.Logger
	metrics   *metrics.Metrics

	policy          Policy
	itemsConcurrent int
	now             func() time.Time
	locks           *userLocks

	idem *idempotencyKeys
}

func NewOrderService(deps Deps, opts Options) *OrderService {
	if opts.OrderItemsConcurrency <= 0 {
		opts.OrderItemsConcurrency = 8
	}
	if opts.CompensationInterval <= 0 {
		opts.CompensationInterval = 50 * time.Millisecond
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	if opts.IdempotencyMaxKeys <= 0 {
		opts.IdempotencyMaxKeys = 10000
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}
	if deps.Compensations == nil {
		deps.Compensations = repo.NewMemoryCompensationRepo()
	}

	return &OrderService{
		users:     deps.Users,
		catalog:   deps.Catalog,
		inventory: deps.Inventory,
		validator: NewStockValidator(deps.Catalog),
		carts:     deps.Carts,
		ledger:    deps.Ledger,
		comp: &compensator{
			inventory:  deps.Inventory,
			pending:    deps.Compensations,
			maxRetries: opts.CompensationRetries,
			interval:   opts.CompensationInterval,
			log:        deps.Logger,
			metrics:    deps.Metrics,
		},
		log:             deps.Logger,
		metrics:         deps.Metrics,
		policy:          opts.Policy,
		itemsConcurrent: opts.OrderItemsConcurrency,
		now:             opts.Now,
		locks:           newUserLocks(),
		idem:            newIdempotencyKeys(opts.IdempotencyTTL, opts.IdempotencyMaxKeys),
	}
}

func (s *OrderService) AddToCart(ctx context.Context, userID int64, itemID string, quantity int) ([]domain.CartLine, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if _, err := s.resolveUser(ctx, userID); err != nil {
		return nil, err
	}

	if _, err := s.validator.CheckAvailability(ctx, itemID, quantity); err != nil {
		s.logBoundary("stock check failed", err, slog.Int64("user_id", userID), slog.String("item_id", itemID))
		return nil, err
	}

	return s.carts.AddLine(ctx, userID, domain.CartLine{ItemID: itemID, Quantity: quantity})
}

// GetCart never fails for a user without a cart and does not consult the user directory.
func (s *OrderService) GetCart(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	return s.carts.GetLines(ctx, userID)
}

func (s *OrderService) ClearCart(ctx context.Context, userID int64) error {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.carts.Clear(ctx, userID)
}

func (s *OrderService) PlaceOrder(ctx context.Context, userID int64) (*domain.Order, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.placeOrder(ctx, userID)
}

// PlaceOrderOnce behaves like PlaceOrder, except that a repeated key for the same
// user returns the order created by the first call. replayed reports that case.
func (s *OrderService) PlaceOrderOnce(ctx context.Context, userID int64, key string) (order *domain.Order, replayed bool, err error) {
	if key == "" {
		order, err = s.PlaceOrder(ctx, userID)
		return order, false, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	k := idemKey{userID: userID, key: key}
	if orderID, seen := s.idem.lookup(k, s.now()); seen {
		order, err = s.ledger.FindById(ctx, orderID)
		return order, true, err
	}

	order, err = s.placeOrder(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	s.idem.remember(k, order.ID, s.now())
	return order, false, nil
}

// placeOrder walks the cart once, in order: re-validate, price, decrement.
// The first failing line aborts the walk. Decrements already applied are
// restocked only when the policy asks for it.
func (s *OrderService) placeOrder(ctx context.Context, userID int64) (*domain.Order, error) {
	if _, err := s.resolveUser(ctx, userID); err != nil {
		s.metrics.OrdersFailed.WithLabelValues("user").Inc()
		return nil, err
	}

	lines, err := s.carts.GetLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 && s.policy.RejectEmptyCart {
		s.metrics.OrdersFailed.WithLabelValues("empty_cart").Inc()
		return nil, domain.ErrEmptyCart
	}

	p := newPlacement(userID)
	total := decimal.Zero
	orderLines := make([]domain.OrderLine, 0, len(lines))

	for i, line := range lines {
		snap, err := s.validator.CheckAvailability(ctx, line.ItemID, line.Quantity)
		if err != nil {
			return nil, s.abort(ctx, p, "validate", i, line, err)
		}

		orderLine := domain.OrderLine{ItemID: line.ItemID, Quantity: line.Quantity, UnitPrice: snap.UnitPrice}
		total = total.Add(orderLine.Subtotal())

		if err := s.inventory.Decrement(ctx, []string{line.ItemID}, []int{line.Quantity}); err != nil {
			return nil, s.abort(ctx, p, "decrement", i, line, err)
		}
		p.decremented(line)
		orderLines = append(orderLines, orderLine)
	}

	now := s.now().UTC()
	order := &domain.Order{
		OrderDate:   now,
		UserID:      userID,
		Lines:       orderLines,
		TotalAmount: total,
		Status:      domain.OrderPending,
		UpdatedAt:   now,
	}

	if _, err := s.ledger.Save(ctx, order); err != nil {
		return nil, s.abort(ctx, p, "persist", len(lines), domain.CartLine{}, fmt.Errorf("save order: %w", err))
	}

	// The order exists now. A failed clear must not make the caller retry and
	// place it twice, so it is logged and swallowed.
	if err := s.carts.Clear(ctx, userID); err != nil {
		s.log.Error("order placed but cart not cleared",
			slog.Int64("user_id", userID),
			slog.Int64("order_id", order.ID),
			slog.Any("err", err),
		)
	}

	s.metrics.OrdersPlaced.Inc()
	s.log.Info("order placed",
		slog.String("saga_id", p.id.String()),
		slog.Int64("user_id", userID),
		slog.Int64("order_id", order.ID),
		slog.Int("lines", len(orderLines)),
		slog.String("total", order.TotalAmount.StringFixed(2)),
	)
	return order, nil
}

func (s *OrderService) abort(ctx context.Context, p *placement, step string, index int, line domain.CartLine, err error) error {
	s.metrics.OrdersFailed.WithLabelValues(step).Inc()
	s.logBoundary("placement aborted", err,
		slog.String("saga_id", p.id.String()),
		slog.Int64("user_id", p.userID),
		slog.String("step", step),
		slog.Int("line", index),
		slog.String("item_id", line.ItemID),
		slog.Int("decrements_applied", len(p.applied)),
	)

	if len(p.applied) > 0 {
		if s.policy.CompensateOnFailure {
			s.comp.unwind(ctx, p)
		} else {
			s.log.Warn("decrements left applied after failed placement",
				slog.String("saga_id", p.id.String()),
				slog.Int("decrements_applied", len(p.applied)),
			)
		}
	}
	return err
}

func (s *OrderService) resolveUser(ctx context.Context, userID int64) (domain.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		s.logBoundary("user lookup failed", err, slog.Int64("user_id", userID))
		return domain.User{}, err
	}
	return u, nil
}

// logBoundary keeps a timed-out collaborator apart from an authoritative answer.
func (s *OrderService) logBoundary(msg string, err error, attrs ...any) {
	attrs = append(attrs, slog.Any("err", err), slog.Bool("timeout", domain.IsBoundaryTimeout(err)))
	if errors.Is(err, domain.ErrBoundaryUnavailable) {
		s.log.Warn(msg, attrs...)
		return
	}
	s.log.Info(msg, attrs...)
}

func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.ledger.FindById(ctx, orderID)
}

func (s *OrderService) OrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	return s.ledger.FindByUserId(ctx, userID)
}

func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (*domain.Order, error) {
	order, err := s.ledger.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}
	s.log.Info("order status updated", slog.Int64("order_id", orderID), slog.String("status", string(status)))
	return order, nil
}

// OrderItems resolves every line of an order through the catalog, in line order.
func (s *OrderService) OrderItems(ctx context.Context, orderID int64) ([]domain.Item, error) {
	order, err := s.ledger.FindById(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.Item, len(order.Lines))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.itemsConcurrent)

	for i, line := range order.Lines {
		g.Go(func() error {
			item, err := s.catalog.GetItem(ctx, line.ItemID)
			if err != nil {
				return fmt.Errorf("resolve item %s: %w", line.ItemID, err)
			}
			items[i] = item
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}
