// Package cache holds the read-through product cache backed by Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"fashionhub/internal/models"

	"github.com/redis/go-redis/v9"
)

const productKeyPrefix = "product:"

// ProductCache stores product documents by ID.
type ProductCache interface {
	Get(ctx context.Context, id string) (*models.Product, bool)
	Set(ctx context.Context, product *models.Product)
	Invalidate(ctx context.Context, ids ...string)
}

// RedisProductCache is a ProductCache on a Redis client. Cache failures are
// logged and treated as misses.
type RedisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisProductCache creates a cache whose entries expire after ttl.
func NewRedisProductCache(client *redis.Client, ttl time.Duration) *RedisProductCache {
	return &RedisProductCache{client: client, ttl: ttl}
}

// Get implements ProductCache.
func (c *RedisProductCache) Get(ctx context.Context, id string) (*models.Product, bool) {
	data, err := c.client.Get(ctx, productKeyPrefix+id).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("product cache read failed", "product_id", id, "error", err)
		}
		return nil, false
	}
	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, false
	}
	// Version is not serialized, so a cached copy must never feed a stock write.
	return &product, true
}

// Set implements ProductCache.
func (c *RedisProductCache) Set(ctx context.Context, product *models.Product) {
	data, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, productKeyPrefix+product.ID, data, c.ttl).Err(); err != nil {
		slog.Warn("product cache write failed", "product_id", product.ID, "error", err)
	}
}

// Invalidate implements ProductCache.
func (c *RedisProductCache) Invalidate(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKeyPrefix + id
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("product cache invalidation failed", "error", err)
	}
}

// Ping checks the Redis connection.
func (c *RedisProductCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
