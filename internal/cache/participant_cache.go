// Package cache provides Redis-backed caching for participant records.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/contribfest/participation/internal/domain"
)

// DefaultTTL bounds how long a cached participant may go unrefreshed.
const DefaultTTL = 15 * time.Minute

// Store is the slice of the Redis client the cache needs. Both the plain and
// the metrics-instrumented clients satisfy it.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Cache stores participant records in Redis keyed by participant id.
type Cache struct {
	store Store
	ttl   time.Duration
}

// NewCache constructs a participant cache backed by the provided store.
func NewCache(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Cache{store: store, ttl: ttl}
}

// Get fetches a cached participant if it exists. A miss returns (nil, nil).
func (c *Cache) Get(ctx context.Context, id int64) (*domain.Participant, error) {
	if c == nil || c.store == nil {
		return nil, nil
	}

	data, err := c.store.Get(ctx, cacheKey(id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached participant: %w", err)
	}

	var p domain.Participant
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("decode cached participant: %w", err)
	}

	return &p, nil
}

// Set stores the participant in cache for the configured TTL.
func (c *Cache) Set(ctx context.Context, p *domain.Participant) error {
	if c == nil || c.store == nil || p == nil {
		return nil
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode participant for cache: %w", err)
	}

	if err := c.store.Set(ctx, cacheKey(p.ID), payload, c.ttl); err != nil {
		return fmt.Errorf("set cached participant: %w", err)
	}

	return nil
}

// Invalidate removes the cached entry if it exists.
func (c *Cache) Invalidate(ctx context.Context, id int64) error {
	if c == nil || c.store == nil {
		return nil
	}

	if err := c.store.Delete(ctx, cacheKey(id)); err != nil {
		return fmt.Errorf("delete cached participant: %w", err)
	}

	return nil
}

func cacheKey(id int64) string {
	return fmt.Sprintf("participant:%d", id)
}
