package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/consently/consent-management-api/internal/models"
)

const keyPrefix = "consently:widget-config:"

// kvStore is the part of the go-redis client the cache uses
type kvStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisCache shares widget configs across server instances. Redis errors degrade to
// cache misses so a Redis outage never fails a request.
type RedisCache struct {
	client kvStore
	ttl    time.Duration
	logger *logrus.Logger
}

// NewRedisCache creates a Redis-backed cache
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// Get retrieves a config; misses and errors both report false
func (c *RedisCache) Get(ctx context.Context, widgetID string) (*models.PublicWidgetConfig, bool) {
	data, err := c.client.Get(ctx, keyPrefix+widgetID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("widgetId", widgetID).Warn("Widget config cache read failed")
		}
		return nil, false
	}

	var cfg models.PublicWidgetConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		c.logger.WithError(err).WithField("widgetId", widgetID).Warn("Discarding undecodable cached widget config")
		c.Delete(ctx, widgetID)
		return nil, false
	}
	return &cfg, true
}

// Set stores a config with the cache TTL
func (c *RedisCache) Set(ctx context.Context, widgetID string, cfg *models.PublicWidgetConfig) {
	data, err := json.Marshal(cfg)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to encode widget config for cache")
		return
	}
	if err := c.client.Set(ctx, keyPrefix+widgetID, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("widgetId", widgetID).Warn("Widget config cache write failed")
	}
}

// Delete removes a config
func (c *RedisCache) Delete(ctx context.Context, widgetID string) {
	if err := c.client.Del(ctx, keyPrefix+widgetID).Err(); err != nil {
		c.logger.WithError(err).WithField("widgetId", widgetID).Warn("Widget config cache delete failed")
	}
}
