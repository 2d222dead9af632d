package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/weatherwatch/internal/resilience/cache"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(Config{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(Config{URL: "not-a-url"})
	assert.Error(t, err)
}

func TestCacheBackend_RoundTrip(t *testing.T) {
	client, mr := newTestClient(t)
	backend := NewCacheBackend(client, "", time.Hour)
	ctx := context.Background()

	_, found, err := backend.Get(ctx, "average_day")
	require.NoError(t, err)
	assert.False(t, found)

	created := time.Unix(1_700_000_000, 0).UTC()
	require.NoError(t, backend.Set(ctx, cache.Entry{
		Key:       "average_day",
		Value:     json.RawMessage(`21.5`),
		CreatedAt: created,
	}))
	assert.True(t, mr.Exists("weatherwatch:cache:average_day"))
	assert.Equal(t, time.Hour, mr.TTL("weatherwatch:cache:average_day"))

	entry, found, err := backend.Get(ctx, "average_day")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `21.5`, string(entry.Value))
	assert.True(t, created.Equal(entry.CreatedAt))

	require.NoError(t, backend.Delete(ctx, "average_day"))
	_, found, err = backend.Get(ctx, "average_day")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheBackend_ZeroRetentionExpires(t *testing.T) {
	client, mr := newTestClient(t)
	backend := NewCacheBackend(client, "", 0)

	require.NoError(t, backend.Set(context.Background(), cache.Entry{
		Key:       "average_week",
		Value:     json.RawMessage(`19.25`),
		CreatedAt: time.Now(),
	}))
	assert.Equal(t, DefaultRetention, mr.TTL("weatherwatch:cache:average_week"))

	mr.FastForward(DefaultRetention)
	assert.False(t, mr.Exists("weatherwatch:cache:average_week"))
}

func TestCacheBackend_CorruptEntry(t *testing.T) {
	client, mr := newTestClient(t)
	backend := NewCacheBackend(client, "test:", 0)
	require.NoError(t, mr.Set("test:current", "{not json"))

	_, found, err := backend.Get(context.Background(), "current")
	assert.Error(t, err)
	assert.False(t, found)
}

func TestCacheBackend_WithTTLCache(t *testing.T) {
	client, _ := newTestClient(t)
	c := cache.New(NewCacheBackend(client, "", 0))
	ctx := context.Background()

	calls := 0
	compute := func(ctx context.Context) (float64, error) {
		calls++
		return 19.75, nil
	}

	v1, err := cache.GetOrCompute(ctx, c, "average_week", time.Minute, compute)
	require.NoError(t, err)
	v2, err := cache.GetOrCompute(ctx, c, "average_week", time.Minute, compute)
	require.NoError(t, err)

	assert.Equal(t, 19.75, v1)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, calls)
}

func TestClient_Health(t *testing.T) {
	client, _ := newTestClient(t)
	assert.NoError(t, client.Health(context.Background()))
}
