// Package cache holds the public widget configuration cache. Widget configs are read on
// every page view that embeds the widget and change rarely.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/consently/consent-management-api/internal/models"
)

// WidgetConfigCache caches public widget configs by widget id
type WidgetConfigCache interface {
	Get(ctx context.Context, widgetID string) (*models.PublicWidgetConfig, bool)
	Set(ctx context.Context, widgetID string, cfg *models.PublicWidgetConfig)
	Delete(ctx context.Context, widgetID string)
}

// NoopCache never stores anything
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*models.PublicWidgetConfig, bool) { return nil, false }
func (NoopCache) Set(context.Context, string, *models.PublicWidgetConfig)        {}
func (NoopCache) Delete(context.Context, string)                                {}

type cacheItem struct {
	value      *models.PublicWidgetConfig
	expiration time.Time
}

// MemoryCache is a TTL map guarded by a RWMutex
type MemoryCache struct {
	items map[string]cacheItem
	mutex sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryCache creates a new cache with a TTL (time-to-live)
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		items: make(map[string]cacheItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get retrieves an unexpired config
func (c *MemoryCache) Get(_ context.Context, widgetID string) (*models.PublicWidgetConfig, bool) {
	c.mutex.RLock()
	item, found := c.items[widgetID]
	c.mutex.RUnlock()

	if !found {
		return nil, false
	}
	if !c.now().Before(item.expiration) {
		c.mutex.Lock()
		delete(c.items, widgetID)
		c.mutex.Unlock()
		return nil, false
	}
	return item.value, true
}

// Set adds a config to the cache
func (c *MemoryCache) Set(_ context.Context, widgetID string, cfg *models.PublicWidgetConfig) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[widgetID] = cacheItem{value: cfg, expiration: c.now().Add(c.ttl)}
}

// Delete removes a config from the cache
func (c *MemoryCache) Delete(_ context.Context, widgetID string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, widgetID)
}
