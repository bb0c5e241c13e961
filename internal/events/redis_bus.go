package events

import (
	"context"
	"encoding/json"
	"fmt"

	"reactivate/api/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBus publishes over Redis pub/sub so every API instance sees every
// completion.
type RedisBus struct {
	rdb        *redis.Client
	channel    string
	logger     *zap.Logger
	instanceID string
}

var _ Bus = (*RedisBus)(nil)

func NewRedisBus(rdb *redis.Client, logger *zap.Logger) *RedisBus {
	return &RedisBus{
		rdb:        rdb,
		channel:    ChannelChallengeCompleted,
		logger:     logger,
		instanceID: uuid.New().String()[:8],
	}
}

func (b *RedisBus) Publish(ctx context.Context, event models.CompletionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal completion event: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", b.channel, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, handle func(models.CompletionEvent)) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	// wait for the subscription to be confirmed before reading
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	ch := sub.Channel()

	b.logger.Info("subscribed to completion events",
		zap.String("channel", b.channel),
		zap.String("instance", b.instanceID))

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event models.CompletionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("invalid completion event payload", zap.Error(err))
				continue
			}
			handle(event)
		}
	}
}
