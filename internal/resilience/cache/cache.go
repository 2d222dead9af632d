// Package cache memoizes idempotent reads keyed by call signature, with a
// per-call time-to-live.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Entry is a cached value and the time it was computed.
type Entry struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
}

// Backend stores entries. Set replaces any entry under the same key as a
// whole; readers never observe a partially written entry.
type Backend interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, key string) error
}

// TTLCache is safe for concurrent use. Concurrent misses on the same key may
// each run compute; the last writer wins.
type TTLCache struct {
	backend Backend
	now     func() time.Time
	log     *slog.Logger
	onHit   func(key string)
	onMiss  func(key string)
}

// Option customizes a TTLCache.
type Option func(*TTLCache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *TTLCache) { c.now = now }
}

// WithLogger sets the logger used for backend failures.
func WithLogger(log *slog.Logger) Option {
	return func(c *TTLCache) { c.log = log }
}

// WithObserver registers hit/miss callbacks.
func WithObserver(onHit, onMiss func(key string)) Option {
	return func(c *TTLCache) {
		c.onHit = onHit
		c.onMiss = onMiss
	}
}

// New creates a cache on top of backend.
func New(backend Backend, opts ...Option) *TTLCache {
	c := &TTLCache{
		backend: backend,
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds a call signature from an operation name and its arguments.
func Key(op string, args ...any) string {
	if len(args) == 0 {
		return op
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, op)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, ":")
}

// GetOrCompute returns the cached value for key if it is younger than ttl,
// otherwise runs compute and stores its result. Errors from compute are
// returned as-is and never cached. A ttl <= 0 disables caching.
func GetOrCompute[T any](
	ctx context.Context,
	c *TTLCache,
	key string,
	ttl time.Duration,
	compute func(ctx context.Context) (T, error),
) (T, error) {
	if c == nil || ttl <= 0 {
		return compute(ctx)
	}

	if v, ok := lookup[T](ctx, c, key, ttl); ok {
		if c.onHit != nil {
			c.onHit(key)
		}
		return v, nil
	}
	if c.onMiss != nil {
		c.onMiss(key)
	}

	v, err := compute(ctx)
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("Cache encode failed", "key", key, "error", err)
		return v, nil
	}
	entry := Entry{Key: key, Value: data, CreatedAt: c.now()}
	if err := c.backend.Set(ctx, entry); err != nil {
		c.log.Warn("Cache write failed", "key", key, "error", err)
		return v, nil
	}

	// Hand back the stored form so a miss and later hits decode identical bytes.
	var stored T
	if err := json.Unmarshal(data, &stored); err != nil {
		return v, nil
	}
	return stored, nil
}

func lookup[T any](ctx context.Context, c *TTLCache, key string, ttl time.Duration) (T, bool) {
	var zero T

	entry, found, err := c.backend.Get(ctx, key)
	if err != nil {
		c.log.Warn("Cache read failed", "key", key, "error", err)
		return zero, false
	}
	if !found {
		return zero, false
	}

	if c.now().Sub(entry.CreatedAt) >= ttl {
		// Lazy pruning: expired entries are dropped when looked up.
		if err := c.backend.Delete(ctx, key); err != nil {
			c.log.Debug("Cache prune failed", "key", key, "error", err)
		}
		return zero, false
	}

	var v T
	if err := json.Unmarshal(entry.Value, &v); err != nil {
		c.log.Warn("Cache decode failed", "key", key, "error", err)
		return zero, false
	}
	c.log.Debug("Cache hit", "key", key, "age", c.now().Sub(entry.CreatedAt))
	return v, true
}
