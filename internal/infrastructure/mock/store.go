package mock

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"bookstore-orders/internal/domain"

	"github.com/shopspring/decimal"
)

// Operation names used for fault injection and the movement log.
const (
	OpGetUser     = "get_user"
	OpGetItem     = "get_item"
	OpGetQuantity = "get_available_quantity"
	OpDecrement   = "decrement"
	OpRestock     = "restock"
)

var errInjected = errors.New("injected failure")

type Movement struct {
	Op       string
	ItemID   string
	Quantity int
}

type fault struct {
	remaining int
	err       error
}

// faults is embedded by every fake: latency, a random failure rate and
// scripted failures for the next n calls of an operation.
type faults struct {
	fmu      sync.Mutex
	latency  time.Duration
	failRate float64
	scripted map[string]*fault
}

func (f *faults) SetLatency(d time.Duration) {
	f.fmu.Lock()
	f.latency = d
	f.fmu.Unlock()
}

// SetFailRate makes a fraction of all calls fail as if the network dropped them.
func (f *faults) SetFailRate(rate float64) {
	f.fmu.Lock()
	f.failRate = rate
	f.fmu.Unlock()
}

// FailNext makes the next n calls of op return err (a transport failure when err is nil).
func (f *faults) FailNext(op string, n int, err error) {
	f.fmu.Lock()
	defer f.fmu.Unlock()
	if f.scripted == nil {
		f.scripted = make(map[string]*fault)
	}
	f.scripted[op] = &fault{remaining: n, err: err}
}

func (f *faults) before(ctx context.Context, boundary, op string) error {
	f.fmu.Lock()
	latency, rate := f.latency, f.failRate
	var scripted error
	if sf, ok := f.scripted[op]; ok && sf.remaining > 0 {
		sf.remaining--
		scripted = sf.err
		if scripted == nil {
			scripted = domain.NewBoundaryError(boundary, op, errInjected)
		}
	}
	f.fmu.Unlock()

	if latency > 0 {
		t := time.NewTimer(latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return domain.NewBoundaryError(boundary, op, ctx.Err())
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return domain.NewBoundaryError(boundary, op, err)
	}
	if scripted != nil {
		return scripted
	}
	if rate > 0 && rand.Float64() < rate {
		return domain.NewBoundaryError(boundary, op, errInjected)
	}
	return nil
}

// Store fakes the catalog and the inventory service over one stock table.
type Store struct {
	faults

	mu        sync.RWMutex
	items     map[string]domain.Item
	stock     map[string]int
	movements []Movement
}

func NewStore() *Store {
	return &Store{
		items: make(map[string]domain.Item),
		stock: make(map[string]int),
	}
}

func (s *Store) Put(item domain.Item, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
	s.stock[item.ID] = stock
}

func (s *Store) SetStock(itemID string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stock[itemID] = stock
}

func (s *Store) SetPrice(itemID string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.items[itemID]
	item.UnitPrice = price
	s.items[itemID] = item
}

func (s *Store) Remove(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, itemID)
	delete(s.stock, itemID)
}

func (s *Store) Stock(itemID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stock[itemID]
}

// Movements returns every applied decrement and restock in call order.
func (s *Store) Movements() []Movement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Movement, len(s.movements))
	copy(out, s.movements)
	return out
}

func (s *Store) GetItem(ctx context.Context, itemID string) (domain.Item, error) {
	if err := s.before(ctx, "catalog", OpGetItem); err != nil {
		return domain.Item{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	if !ok {
		return domain.Item{}, fmt.Errorf("item %s: %w", itemID, domain.ErrItemNotFound)
	}
	return item, nil
}

func (s *Store) GetAvailableQuantity(ctx context.Context, itemID string) (int, error) {
	if err := s.before(ctx, "catalog", OpGetQuantity); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.items[itemID]; !ok {
		return 0, fmt.Errorf("item %s: %w", itemID, domain.ErrItemNotFound)
	}
	return s.stock[itemID], nil
}

// Decrement applies all movements or none.
func (s *Store) Decrement(ctx context.Context, itemIDs []string, quantities []int) error {
	if err := s.before(ctx, "inventory", OpDecrement); err != nil {
		return err
	}
	if len(itemIDs) != len(quantities) {
		return fmt.Errorf("inventory: %d item ids but %d quantities", len(itemIDs), len(quantities))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	need := make(map[string]int)
	for i, id := range itemIDs {
		if _, ok := s.items[id]; !ok {
			return fmt.Errorf("item %s: %w", id, domain.ErrItemNotFound)
		}
		need[id] += quantities[i]
	}
	for id, q := range need {
		if s.stock[id] < q {
			return &domain.InsufficientStockError{ItemID: id, Requested: q, Available: s.stock[id]}
		}
	}
	for i, id := range itemIDs {
		s.stock[id] -= quantities[i]
		s.movements = append(s.movements, Movement{Op: OpDecrement, ItemID: id, Quantity: quantities[i]})
	}
	return nil
}

func (s *Store) Restock(ctx context.Context, itemIDs []string, quantities []int) error {
	if err := s.before(ctx, "inventory", OpRestock); err != nil {
		return err
	}
	if len(itemIDs) != len(quantities) {
		return fmt.Errorf("inventory: %d item ids but %d quantities", len(itemIDs), len(quantities))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range itemIDs {
		s.stock[id] += quantities[i]
		s.movements = append(s.movements, Movement{Op: OpRestock, ItemID: id, Quantity: quantities[i]})
	}
	return nil
}

type Users struct {
	faults

	mu    sync.RWMutex
	users map[int64]domain.User
}

func NewUsers(users ...domain.User) *Users {
	u := &Users{users: make(map[int64]domain.User)}
	for _, user := range users {
		u.users[user.ID] = user
	}
	return u
}

func (u *Users) Put(user domain.User) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.users[user.ID] = user
}

func (u *Users) GetUser(ctx context.Context, userID int64) (domain.User, error) {
	if err := u.before(ctx, "users", OpGetUser); err != nil {
		return domain.User{}, err
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	user, ok := u.users[userID]
	if !ok {
		return domain.User{}, fmt.Errorf("user %d: %w", userID, domain.ErrUserNotFound)
	}
	return user, nil
}
