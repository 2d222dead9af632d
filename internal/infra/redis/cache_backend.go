package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/weatherwatch/internal/resilience/cache"
)

const (
	defaultKeyPrefix = "weatherwatch:cache:"
	// DefaultRetention outlives the longest query TTL.
	DefaultRetention = 10 * time.Minute
)

// CacheBackend stores query cache entries in Redis so every API replica
// sees the same values. Freshness is decided by the cache from CreatedAt;
// retention only bounds how long stale keys linger.
type CacheBackend struct {
	rdb       *redis.Client
	prefix    string
	retention time.Duration
}

// NewCacheBackend creates a Redis-backed cache backend.
func NewCacheBackend(client *Client, prefix string, retention time.Duration) *CacheBackend {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &CacheBackend{
		rdb:       client.rdb,
		prefix:    prefix,
		retention: retention,
	}
}

func (b *CacheBackend) key(k string) string {
	return b.prefix + k
}

// Get loads an entry. A missing key is not an error.
func (b *CacheBackend) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	data, err := b.rdb.Get(ctx, b.key(key)).Bytes()
	if err == redis.Nil {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("get failed: %w", err)
	}

	var entry cache.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return cache.Entry{}, false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return entry, true, nil
}

// Set replaces the entry under entry.Key.
func (b *CacheBackend) Set(ctx context.Context, entry cache.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := b.rdb.Set(ctx, b.key(entry.Key), data, b.retention).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// Delete removes the entry under key.
func (b *CacheBackend) Delete(ctx context.Context, key string) error {
	return b.rdb.Del(ctx, b.key(key)).Err()
}
