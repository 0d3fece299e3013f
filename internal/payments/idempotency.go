package payments

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const webhookProvider = "stripe"

type eventStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	WebhookEventKey(provider, eventID string) string
}

// EventGuard remembers processed webhook event ids.
type EventGuard struct {
	store eventStore
	ttl   time.Duration
}

func NewEventGuard(store eventStore, ttl time.Duration) (*EventGuard, error) {
	if store == nil {
		return nil, errors.New("event store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &EventGuard{store: store, ttl: ttl}, nil
}

// CheckAndMark reports whether eventID was already seen, marking it otherwise.
func (g *EventGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	set, err := g.store.SetNX(ctx, g.store.WebhookEventKey(webhookProvider, eventID), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set webhook event key: %w", err)
	}
	return !set, nil
}

// Release forgets eventID so a failed delivery can be retried.
func (g *EventGuard) Release(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.store.WebhookEventKey(webhookProvider, eventID))
}
