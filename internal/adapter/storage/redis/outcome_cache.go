package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"offline-pay/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// OutcomeCache implements ports.OutcomeCache using Redis. Cached per-nonce
// reconciliation outcomes answer duplicate submissions without touching the
// database.
type OutcomeCache struct {
	client *goredis.Client
	prefix string
}

// NewOutcomeCache creates a new Redis-backed outcome cache.
func NewOutcomeCache(client *goredis.Client) *OutcomeCache {
	return &OutcomeCache{
		client: client,
		prefix: "outcome:",
	}
}

// Get retrieves a cached outcome by nonce. Returns nil, nil if absent.
func (c *OutcomeCache) Get(ctx context.Context, nonce string) (*domain.SyncResult, error) {
	val, err := c.client.Get(ctx, c.prefix+nonce).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis outcome get: %w", err)
	}

	var result domain.SyncResult
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, fmt.Errorf("redis outcome decode: %w", err)
	}
	return &result, nil
}

// Set stores an outcome with TTL.
func (c *OutcomeCache) Set(ctx context.Context, nonce string, result domain.SyncResult, ttl time.Duration) error {
	val, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("redis outcome encode: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+nonce, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis outcome set: %w", err)
	}
	return nil
}
