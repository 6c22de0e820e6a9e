package service

import (
	"sync"
	"time"
)

type idemKey struct {
	userID int64
	key    string
}

type idemEntry struct {
	orderID int64
	at      time.Time
}

// idempotencyKeys remembers which order a (user, key) pair produced. Entries
// expire after ttl and the oldest are dropped once more than max are held.
type idempotencyKeys struct {
	mu      sync.Mutex
	entries map[idemKey]idemEntry
	ttl     time.Duration
	max     int
}

func newIdempotencyKeys(ttl time.Duration, max int) *idempotencyKeys {
	return &idempotencyKeys{entries: make(map[idemKey]idemEntry), ttl: ttl, max: max}
}

func (k *idempotencyKeys) lookup(key idemKey, now time.Time) (int64, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.entries[key]
	if !ok {
		return 0, false
	}
	if now.Sub(e.at) >= k.ttl {
		delete(k.entries, key)
		return 0, false
	}
	return e.orderID, true
}

func (k *idempotencyKeys) remember(key idemKey, orderID int64, now time.Time) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.entries[key] = idemEntry{orderID: orderID, at: now}
	if len(k.entries) <= k.max {
		return
	}

	for key, e := range k.entries {
		if now.Sub(e.at) >= k.ttl {
			delete(k.entries, key)
		}
	}
	for len(k.entries) > k.max {
		var (
			oldest   idemKey
			oldestAt time.Time
			first    = true
		)
		for key, e := range k.entries {
			if first || e.at.Before(oldestAt) {
				oldest, oldestAt, first = key, e.at, false
			}
		}
		delete(k.entries, oldest)
	}
}

func (k *idempotencyKeys) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
