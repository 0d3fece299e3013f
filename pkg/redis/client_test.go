package redis_test

import (
	"context"
	"testing"
	"time"

	redisclient "github.com/marketly/marketly-backend/pkg/redis"
	"github.com/marketly/marketly-backend/pkg/redis/redistest"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	client, fake := redistest.NewClient()

	allowed, count, err := client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 1 {
		t.Fatalf("expected allowed on first request, count=%d", count)
	}
	if fake.TTLs["mk:rate_limit:test-scope"] != time.Second {
		t.Fatalf("expected expire on first increment, got %v", fake.TTLs)
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestSetNXAndGet(t *testing.T) {
	ctx := context.Background()
	client, _ := redistest.NewClient()

	ok, err := client.SetNX(ctx, "k", "v1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first SetNX to win, ok=%v err=%v", ok, err)
	}
	ok, _ = client.SetNX(ctx, "k", "v2", time.Minute)
	if ok {
		t.Fatalf("expected second SetNX to lose")
	}
	got, err := client.Get(ctx, "k")
	if err != nil || got != "v1" {
		t.Fatalf("expected v1, got %q (%v)", got, err)
	}

	if err := client.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := client.Get(ctx, "k"); !redisclient.IsNil(err) {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &redisclient.Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "mk:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.RateLimitKey("scope"); got != "mk:rate_limit:scope" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.AccessSessionKey("jti"); got != "mk:session:access:jti" {
		t.Fatalf("unexpected session key %s", got)
	}
	if got := client.WebhookEventKey("stripe", " evt_1 "); got != "mk:webhook:stripe:evt_1" {
		t.Fatalf("unexpected webhook key %s", got)
	}
	if got := client.IdempotencyKey("scope", ""); got != "mk:idempotency:scope" {
		t.Fatalf("expected empty parts skipped, got %s", got)
	}
}

func TestZeroClientReturnsNotInitialized(t *testing.T) {
	var client *redisclient.Client
	if err := client.Ping(context.Background()); err != redisclient.ErrNotInitialized {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}
