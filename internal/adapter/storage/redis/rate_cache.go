package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vaultmarket/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

const rateCacheKey = "rates:snapshot"

// RateCache implements ports.RateCache: a short-lived cache of the exchange
// rate snapshot so every settlement attempt does not hit the rate store.
type RateCache struct {
	client *goredis.Client
}

// NewRateCache creates a Redis-backed rate snapshot cache.
func NewRateCache(client *goredis.Client) *RateCache {
	return &RateCache{client: client}
}

// Get retrieves the cached rate snapshot.
// Returns nil, nil if no snapshot is cached.
func (c *RateCache) Get(ctx context.Context) (*domain.RateSet, error) {
	val, err := c.client.Get(ctx, rateCacheKey).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis rate cache get: %w", err)
	}

	rates := &domain.RateSet{}
	if err := json.Unmarshal(val, rates); err != nil {
		return nil, fmt.Errorf("unmarshal cached rates: %w", err)
	}
	return rates, nil
}

// Set stores a rate snapshot with TTL.
func (c *RateCache) Set(ctx context.Context, rates *domain.RateSet, ttl time.Duration) error {
	val, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("marshal rates: %w", err)
	}
	if err := c.client.Set(ctx, rateCacheKey, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis rate cache set: %w", err)
	}
	return nil
}
