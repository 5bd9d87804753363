// Package redisclient wraps the go-redis client shared by the widget config cache and
// the consent event stream.
package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/consently/consent-management-api/internal/config"
)

// Client is a connected go-redis client
type Client struct {
	client *redis.Client
}

// NewClient creates and connects a new Client
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{client: rdb}, nil
}

// Redis returns the underlying go-redis client
func (c *Client) Redis() *redis.Client {
	return c.client
}

// Close gracefully closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}
