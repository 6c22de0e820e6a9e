package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bookstore-orders/internal/domain"

	"github.com/redis/go-redis/v9"
)

const maxWatchRetries = 10

type redisCartRepo struct {
	rdb   *redis.Client
	merge bool
}

// NewRedisCartRepo stores each cart as a Redis list of JSON lines under cart:{userID}.
func NewRedisCartRepo(rdb *redis.Client, merge bool) CartRepo {
	return &redisCartRepo{rdb: rdb, merge: merge}
}

func cartKey(userID int64) string {
	return fmt.Sprintf("cart:%d", userID)
}

func (r *redisCartRepo) AddLine(ctx context.Context, userID int64, line domain.CartLine) ([]domain.CartLine, error) {
	if r.merge {
		return r.addMerged(ctx, userID, line)
	}

	data, err := json.Marshal(line)
	if err != nil {
		return nil, err
	}

	key := cartKey(userID)
	var rng *redis.StringSliceCmd
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		rng = pipe.LRange(ctx, key, 0, -1)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decodeLines(rng.Val())
}

// addMerged rewrites the whole list inside an optimistic WATCH transaction.
func (r *redisCartRepo) addMerged(ctx context.Context, userID int64, line domain.CartLine) ([]domain.CartLine, error) {
	key := cartKey(userID)
	var result []domain.CartLine

	txf := func(tx *redis.Tx) error {
		raw, err := tx.LRange(ctx, key, 0, -1).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		current, err := decodeLines(raw)
		if err != nil {
			return err
		}
		next := appendLine(current, line, true)

		values := make([]any, 0, len(next))
		for _, l := range next {
			data, err := json.Marshal(l)
			if err != nil {
				return err
			}
			values = append(values, data)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.RPush(ctx, key, values...)
			return nil
		})
		if err == nil {
			result = next
		}
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("cart %d: too much contention", userID)
}

func (r *redisCartRepo) GetLines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	raw, err := r.rdb.LRange(ctx, cartKey(userID), 0, -1).Result()
	if errors.Is(err, redis.Nil) {
		return []domain.CartLine{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeLines(raw)
}

func (r *redisCartRepo) Clear(ctx context.Context, userID int64) error {
	return r.rdb.Del(ctx, cartKey(userID)).Err()
}

func decodeLines(raw []string) ([]domain.CartLine, error) {
	out := make([]domain.CartLine, 0, len(raw))
	for _, s := range raw {
		var l domain.CartLine
		if err := json.Unmarshal([]byte(s), &l); err != nil {
			return nil, fmt.Errorf("decode cart line: %w", err)
		}
		out = append(out, l)
	}
	return out, nil
}
