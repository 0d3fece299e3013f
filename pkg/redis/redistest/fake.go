// Package redistest provides an in-memory stand-in for the redis commands the API uses.
package redistest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	redisclient "github.com/marketly/marketly-backend/pkg/redis"
)

// Fake is safe for concurrent use. TTLs are recorded, never enforced.
type Fake struct {
	mu   sync.Mutex
	data map[string]string
	incr map[string]int64
	TTLs map[string]time.Duration
}

func NewFake() *Fake {
	return &Fake{
		data: map[string]string{},
		incr: map[string]int64{},
		TTLs: map[string]time.Duration{},
	}
}

// NewClient returns a redis client wired to a fresh fake.
func NewClient() (*redisclient.Client, *Fake) {
	fake := NewFake()
	return redisclient.NewWithCmdable(fake), fake
}

func (f *Fake) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.data))
	for k := range f.data {
		out = append(out, k)
	}
	return out
}

func (f *Fake) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *Fake) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = toString(value)
	f.TTLs[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *Fake) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *Fake) SetNX(_ context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = toString(value)
	f.TTLs[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *Fake) Incr(_ context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incr[key]++
	return redis.NewIntResult(f.incr[key], nil)
}

func (f *Fake) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TTLs[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *Fake) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			removed++
		}
		delete(f.data, key)
		delete(f.incr, key)
	}
	return redis.NewIntResult(removed, nil)
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
