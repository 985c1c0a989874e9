// Package cache holds the Redis backed helpers: the public raffle detail
// cache and the daily attempt counters of scheduled jobs.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
)

func raffleKey(slug string) string {
	return "raffle:detail:" + slug
}

type RaffleCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRaffleCache(rdb *redis.Client, ttl time.Duration) *RaffleCache {
	return &RaffleCache{
		rdb: rdb,
		ttl: ttl,
	}
}

func (c *RaffleCache) Get(ctx context.Context, slug string) (domain.Raffle, bool, error) {
	raw, err := c.rdb.Get(ctx, raffleKey(slug)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Raffle{}, false, nil
		}

		return domain.Raffle{}, false, fmt.Errorf("c.rdb.Get -> %w", err)
	}

	var raffle domain.Raffle
	if err = json.Unmarshal(raw, &raffle); err != nil {
		return domain.Raffle{}, false, fmt.Errorf("json.Unmarshal -> %w", err)
	}

	return raffle, true, nil
}

func (c *RaffleCache) Set(ctx context.Context, raffle domain.Raffle) error {
	raw, err := json.Marshal(raffle)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	if err = c.rdb.Set(ctx, raffleKey(raffle.Slug), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("c.rdb.Set -> %w", err)
	}

	return nil
}

func (c *RaffleCache) Invalidate(ctx context.Context, slug string) error {
	if err := c.rdb.Del(ctx, raffleKey(slug)).Err(); err != nil {
		return fmt.Errorf("c.rdb.Del -> %w", err)
	}

	return nil
}

// AttemptCounter stores how many times a job ran on a given day.
type AttemptCounter struct {
	rdb *redis.Client
}

func NewAttemptCounter(rdb *redis.Client) *AttemptCounter {
	return &AttemptCounter{
		rdb: rdb,
	}
}

func (c *AttemptCounter) Get(ctx context.Context, key string) (int, error) {
	raw, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}

		return 0, fmt.Errorf("c.rdb.Get -> %w", err)
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("strconv.Atoi -> %w", err)
	}

	return n, nil
}

func (c *AttemptCounter) Set(ctx context.Context, key string, n int, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, n, ttl).Err(); err != nil {
		return fmt.Errorf("c.rdb.Set -> %w", err)
	}

	return nil
}
