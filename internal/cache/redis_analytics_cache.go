package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// AnalyticsCache is a short-TTL read-through cache for computed analytics
// payloads. A miss or a cache failure always falls back to recomputation, so
// it never affects correctness.
//
//go:generate mockery --name AnalyticsCache --output ./mocks --outpkg mocks --case=underscore
type AnalyticsCache interface {
	// Get returns the cached payload or (nil, nil) on a miss.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte) error
}

// Compile-time check to ensure implementation satisfies the interface.
var _ AnalyticsCache = (*redisAnalyticsCache)(nil)

type redisAnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisAnalyticsCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) AnalyticsCache {
	return &redisAnalyticsCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisAnalyticsCache"),
	}
}

func (c *redisAnalyticsCache) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		c.logger.Warn("Analytics cache read failed", zap.Error(err), zap.String("key", key))
		return nil, err
	}
	c.logger.Debug("Analytics cache hit", zap.String("key", key))
	return payload, nil
}

func (c *redisAnalyticsCache) Set(ctx context.Context, key string, payload []byte) error {
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("Analytics cache write failed", zap.Error(err), zap.String("key", key))
		return err
	}
	return nil
}
