package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consently/consent-management-api/internal/models"
)

func sampleConfig() *models.PublicWidgetConfig {
	return &models.PublicWidgetConfig{
		WidgetID:        "w1",
		Title:           "Privacy",
		Theme:           models.JSON(`{"primaryColor":"#111"}`),
		ConsentDuration: 30,
		Activities:      []models.ProcessingActivity{{ID: "act1", Name: "Marketing", DataAttributes: models.StringList{"email"}}},
	}
}

func TestMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := NewMemoryCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Set(ctx, "w1", sampleConfig())
	got, ok := c.Get(ctx, "w1")
	require.True(t, ok)
	assert.Equal(t, "Privacy", got.Title)

	c.now = func() time.Time { return now.Add(time.Minute) }
	_, ok = c.Get(ctx, "w1")
	assert.False(t, ok)
}

func TestMemoryCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	c.Set(ctx, "w1", sampleConfig())
	c.Delete(ctx, "w1")

	_, ok := c.Get(ctx, "w1")
	assert.False(t, ok)
}

type fakeKV struct {
	data   map[string]string
	ttl    time.Duration
	getErr error
}

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeKV) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestRedisCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := &fakeKV{data: map[string]string{}}
	c := &RedisCache{client: kv, ttl: 5 * time.Minute, logger: logrus.New()}

	_, ok := c.Get(ctx, "w1")
	assert.False(t, ok)

	c.Set(ctx, "w1", sampleConfig())
	assert.Equal(t, 5*time.Minute, kv.ttl)
	assert.Contains(t, kv.data, "consently:widget-config:w1")

	got, ok := c.Get(ctx, "w1")
	require.True(t, ok)
	assert.Equal(t, []string{"act1"}, got.ActivityIDs())
	assert.JSONEq(t, `{"primaryColor":"#111"}`, string(got.Theme))

	c.Delete(ctx, "w1")
	assert.Empty(t, kv.data)
}

func TestRedisCache_ErrorsAreMisses(t *testing.T) {
	kv := &fakeKV{data: map[string]string{}, getErr: errors.New("connection refused")}
	c := &RedisCache{client: kv, ttl: time.Minute, logger: logrus.New()}

	_, ok := c.Get(context.Background(), "w1")
	assert.False(t, ok)
}

func TestRedisCache_CorruptEntryIsDropped(t *testing.T) {
	kv := &fakeKV{data: map[string]string{"consently:widget-config:w1": "{broken"}}
	c := &RedisCache{client: kv, ttl: time.Minute, logger: logrus.New()}

	_, ok := c.Get(context.Background(), "w1")
	assert.False(t, ok)
	assert.Empty(t, kv.data)
}
