package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/coursetutor/tutor-backend/internal/logger"
)

// DefaultChannel is the Redis Pub/Sub channel shared by every server process.
const DefaultChannel = "tutor:active-module"

// RedisBridge publishes events through Redis and replays everything received
// on the channel into a local Hub, so every process sees every change once.
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
	log     *logger.Logger
}

func NewRedisBridge(client *redis.Client, hub *Hub, log *logger.Logger) *RedisBridge {
	return &RedisBridge{client: client, channel: DefaultChannel, hub: hub, log: log}
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}
	return client, nil
}

func (b *RedisBridge) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Run forwards channel messages into the hub until ctx is done.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}
	b.log.Info("Subscribed to active module channel", "channel", b.channel)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn("Dropping malformed active module event", "error", err)
				continue
			}
			_ = b.hub.Publish(ctx, ev)
		}
	}
}
