package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// streamAdder is the part of the go-redis client the publisher uses
type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamPublisher appends events to a Redis stream with XADD
type RedisStreamPublisher struct {
	client     streamAdder
	streamName string
}

// NewRedisStreamPublisher creates a publisher writing to streamName
func NewRedisStreamPublisher(client *redis.Client, streamName string) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, streamName: streamName}
}

// Publish adds the event to the stream; Redis assigns the entry id
func (p *RedisStreamPublisher) Publish(ctx context.Context, event *ConsentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal consent event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.streamName,
		Values: map[string]interface{}{
			"type":      event.Type,
			"widgetId":  event.WidgetID,
			"visitorId": event.VisitorID,
			"payload":   string(payload),
		},
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to XADD to stream %s: %w", p.streamName, err)
	}
	return nil
}

// Close is a no-op; the shared Redis client is closed by its owner
func (p *RedisStreamPublisher) Close() error { return nil }
