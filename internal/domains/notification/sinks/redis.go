// Package sinks holds the built-in notification sink implementations.
// Real SMS and email transports live outside this repo and plug in through
// the notification.Sink interface.
package sinks

import (
	"context"
	"fmt"

	"github.com/go-redis/redis"
	"github.com/google/uuid"
	"github.com/xpanvictor/chrono/internal/domains/task"
)

// RedisSink publishes payloads to per-user pub/sub channels. Connected
// clients (web, mobile) subscribe to receive in_app and push notifications.
type RedisSink struct {
	client *redis.Client
}

// NewRedisSink creates a RedisSink.
func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client}
}

// Send implements notification.Sink.
func (s *RedisSink) Send(_ context.Context, ch task.Channel, userID uuid.UUID, payload string) error {
	topic := fmt.Sprintf("chrono:notify:%s:%s", ch, userID)
	if err := s.client.Publish(topic, payload).Err(); err != nil {
		return fmt.Errorf("redis publish to %s failed: %w", topic, err)
	}
	return nil
}
