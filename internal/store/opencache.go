package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sportlines/oddsfeed/pkg/models"
)

// OpenKeyCache remembers (eventid, oddid) keys already captured in the
// opening-odds table so repeat runs can skip them before the batched SQL
// existence check. Entries are written through after each successful pass.
type OpenKeyCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewOpenKeyCache creates a cache over an existing Redis client
func NewOpenKeyCache(redisClient *redis.Client, ttl time.Duration) *OpenKeyCache {
	return &OpenKeyCache{
		redis: redisClient,
		ttl:   ttl,
	}
}

// FilterSeen returns the quotes whose keys are not in the cache. A cache
// miss is never authoritative; the caller still consults the database.
func (c *OpenKeyCache) FilterSeen(ctx context.Context, quotes []models.OddsQuote) ([]models.OddsQuote, error) {
	if len(quotes) == 0 {
		return nil, nil
	}

	keys := make([]string, len(quotes))
	for i, q := range quotes {
		keys[i] = c.buildKey(q.EventID, q.OddID)
	}

	cached, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	unseen := make([]models.OddsQuote, 0, len(quotes))
	for i, q := range quotes {
		if cached[i] == nil {
			unseen = append(unseen, q)
		}
	}
	return unseen, nil
}

// MarkSeen records the quotes' keys with the configured TTL
func (c *OpenKeyCache) MarkSeen(ctx context.Context, quotes []models.OddsQuote) error {
	if len(quotes) == 0 {
		return nil
	}

	pipe := c.redis.Pipeline()
	for _, q := range quotes {
		pipe.Set(ctx, c.buildKey(q.EventID, q.OddID), "1", c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline exec: %w", err)
	}
	return nil
}

// buildKey formats the cache key for one quote.
// Format: odds:open:{eventid}:{oddid}
func (c *OpenKeyCache) buildKey(eventID, oddID string) string {
	return fmt.Sprintf("odds:open:%s:%s", eventID, oddID)
}
