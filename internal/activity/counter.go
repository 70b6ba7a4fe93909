// Package activity exposes the eligible pull request counts collected by the
// contribution ingestion pipeline. The pipeline writes per-participant
// counters to Redis; this package only reads them.
package activity

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Counter reports how many eligible pull requests a participant has.
type Counter interface {
	EligibleCount(ctx context.Context, participantID int64) (int, error)
}

// Reader is the read-only slice of the Redis client the counter needs.
type Reader interface {
	Get(ctx context.Context, key string) (string, error)
}

// RedisCounter reads counters maintained by the ingestion pipeline. A missing
// key means no eligible contributions have been recorded yet.
type RedisCounter struct {
	store Reader
}

func NewRedisCounter(store Reader) *RedisCounter {
	return &RedisCounter{store: store}
}

func (c *RedisCounter) EligibleCount(ctx context.Context, participantID int64) (int, error) {
	value, err := c.store.Get(ctx, counterKey(participantID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}

		return 0, fmt.Errorf("read eligible count for participant %d: %w", participantID, err)
	}

	count, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse eligible count for participant %d: %w", participantID, err)
	}

	return count, nil
}

// StaticCounter always reports the same count. Used in development
// environments without the ingestion pipeline.
type StaticCounter int

func (c StaticCounter) EligibleCount(context.Context, int64) (int, error) {
	return int(c), nil
}

func counterKey(participantID int64) string {
	return fmt.Sprintf("participant:eligible_prs:%d", participantID)
}
