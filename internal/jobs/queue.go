// Package jobs runs delayed and periodic background work. Delayed jobs live
// in a Redis sorted set scored by their due time.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const delayedKey = "jobs:delayed"

type Kind string

const KindReapParticipation Kind = "reap_participation"

type Job struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	EntityID uint   `json:"entity_id"`
}

type Queue struct {
	rdb *redis.Client
	key string
}

func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{
		rdb: rdb,
		key: delayedKey,
	}
}

func (q *Queue) Enqueue(ctx context.Context, job Job, due time.Time) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	err = q.rdb.ZAdd(ctx, q.key, redis.Z{Score: float64(due.Unix()), Member: raw}).Err()
	if err != nil {
		return fmt.Errorf("q.rdb.ZAdd -> %w", err)
	}

	return nil
}

// ScheduleReap enqueues the expiration check of a participation.
func (q *Queue) ScheduleReap(ctx context.Context, participationID uint, due time.Time) error {
	return q.Enqueue(ctx, Job{Kind: KindReapParticipation, EntityID: participationID}, due)
}

// ClaimDue removes and returns up to limit jobs due at now. A job is returned
// to exactly one caller: only the worker whose ZREM succeeds owns it.
func (q *Queue) ClaimDue(ctx context.Context, now time.Time, limit int64) ([]Job, error) {
	members, err := q.rdb.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("q.rdb.ZRangeByScore -> %w", err)
	}

	claimed := make([]Job, 0, len(members))
	for _, m := range members {
		removed, err := q.rdb.ZRem(ctx, q.key, m).Result()
		if err != nil {
			return claimed, fmt.Errorf("q.rdb.ZRem -> %w", err)
		}
		if removed == 0 {
			continue
		}

		var job Job
		if err = json.Unmarshal([]byte(m), &job); err != nil {
			return claimed, fmt.Errorf("json.Unmarshal -> %w", err)
		}
		claimed = append(claimed, job)
	}

	return claimed, nil
}

func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.rdb.ZCard(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("q.rdb.ZCard -> %w", err)
	}

	return n, nil
}
