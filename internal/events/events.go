package events

import (
	"context"
	"sync"

	"reactivate/api/internal/models"

	"go.uber.org/zap"
)

// ChannelChallengeCompleted carries models.CompletionEvent as JSON.
const ChannelChallengeCompleted = "challenge_completed"

// Bus delivers completion events to subscribers. Subscribe blocks until ctx
// is done.
type Bus interface {
	Publish(ctx context.Context, event models.CompletionEvent) error
	Subscribe(ctx context.Context, handle func(models.CompletionEvent)) error
}

const localBuffer = 32

// LocalBus fans events out inside one process. Used when Redis is off.
type LocalBus struct {
	mu     sync.RWMutex
	subs   map[chan models.CompletionEvent]struct{}
	logger *zap.Logger
}

var _ Bus = (*LocalBus)(nil)

func NewLocalBus(logger *zap.Logger) *LocalBus {
	return &LocalBus{
		subs:   make(map[chan models.CompletionEvent]struct{}),
		logger: logger,
	}
}

// Publish never blocks the request path; a subscriber that falls behind
// loses events.
func (b *LocalBus) Publish(_ context.Context, event models.CompletionEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn("dropping completion event for slow subscriber",
				zap.String("userId", event.UserID),
				zap.String("challengeId", event.ChallengeID))
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, handle func(models.CompletionEvent)) error {
	ch := make(chan models.CompletionEvent, localBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-ch:
			handle(ev)
		}
	}
}

// Subscribers reports the number of active subscriptions.
func (b *LocalBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
