package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestGetOrCompute_HitWithinTTL(t *testing.T) {
	clock := newFakeClock()
	c := New(NewMemoryBackend(), WithClock(clock.Now))
	ctx := context.Background()

	calls := 0
	compute := func(ctx context.Context) (float64, error) {
		calls++
		return 21.5, nil
	}

	v1, err := GetOrCompute(ctx, c, "avg:day", time.Minute, compute)
	require.NoError(t, err)
	clock.Advance(59 * time.Second)
	v2, err := GetOrCompute(ctx, c, "avg:day", time.Minute, compute)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, v1, v2)
}

func TestGetOrCompute_RecomputesAfterTTL(t *testing.T) {
	clock := newFakeClock()
	c := New(NewMemoryBackend(), WithClock(clock.Now))
	ctx := context.Background()

	calls := 0
	compute := func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	}

	_, _ = GetOrCompute(ctx, c, "k", time.Minute, compute)
	clock.Advance(time.Minute)
	v, err := GetOrCompute(ctx, c, "k", time.Minute, compute)

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, v)
}

func TestGetOrCompute_OneEntryPerKey(t *testing.T) {
	clock := newFakeClock()
	backend := NewMemoryBackend()
	c := New(backend, WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := GetOrCompute(ctx, c, "k", time.Second, func(ctx context.Context) (int, error) {
			return i, nil
		})
		require.NoError(t, err)
		clock.Advance(2 * time.Second)
	}
	_, _ = GetOrCompute(ctx, c, "other", time.Second, func(ctx context.Context) (int, error) {
		return 0, nil
	})

	assert.Equal(t, 2, backend.Len())
}

func TestGetOrCompute_ErrorsAreNotCached(t *testing.T) {
	c := New(NewMemoryBackend())
	ctx := context.Background()
	errBoom := errors.New("boom")

	_, err := GetOrCompute(ctx, c, "k", time.Minute, func(ctx context.Context) (int, error) {
		return 0, errBoom
	})
	require.ErrorIs(t, err, errBoom)

	calls := 0
	v, err := GetOrCompute(ctx, c, "k", time.Minute, func(ctx context.Context) (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, calls)
}

func TestGetOrCompute_ExpiredEntryPrunedOnLookup(t *testing.T) {
	clock := newFakeClock()
	backend := NewMemoryBackend()
	c := New(backend, WithClock(clock.Now))
	ctx := context.Background()

	_, _ = GetOrCompute(ctx, c, "k", time.Second, func(ctx context.Context) (int, error) { return 1, nil })
	clock.Advance(time.Minute)

	_, err := GetOrCompute(ctx, c, "k", time.Second, func(ctx context.Context) (int, error) {
		return 0, errors.New("still failing")
	})
	require.Error(t, err)
	assert.Equal(t, 0, backend.Len())
}

func TestGetOrCompute_ZeroTTLBypassesCache(t *testing.T) {
	backend := NewMemoryBackend()
	c := New(backend)

	calls := 0
	for i := 0; i < 3; i++ {
		_, err := GetOrCompute(context.Background(), c, "current", 0, func(ctx context.Context) (int, error) {
			calls++
			return calls, nil
		})
		require.NoError(t, err)
	}

	assert.Equal(t, 3, calls)
	assert.Equal(t, 0, backend.Len())
}

func TestGetOrCompute_ConcurrentMissesMayRecompute(t *testing.T) {
	c := New(NewMemoryBackend())
	var calls atomic.Int32
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			v, err := GetOrCompute(context.Background(), c, "k", time.Minute, func(ctx context.Context) (int, error) {
				calls.Add(1)
				time.Sleep(5 * time.Millisecond)
				return 3, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 3, v)
		}()
	}
	close(start)
	wg.Wait()

	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	assert.LessOrEqual(t, calls.Load(), int32(8))
}

type failingBackend struct{}

func (failingBackend) Get(ctx context.Context, key string) (Entry, bool, error) {
	return Entry{}, false, errors.New("backend down")
}
func (failingBackend) Set(ctx context.Context, entry Entry) error  { return errors.New("backend down") }
func (failingBackend) Delete(ctx context.Context, key string) error { return nil }

func TestGetOrCompute_BackendFailureDegradesToMiss(t *testing.T) {
	c := New(failingBackend{})

	v, err := GetOrCompute(context.Background(), c, "k", time.Minute, func(ctx context.Context) (string, error) {
		return "fresh", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestGetOrCompute_Observer(t *testing.T) {
	var hits, misses int
	c := New(NewMemoryBackend(), WithObserver(
		func(string) { hits++ },
		func(string) { misses++ },
	))

	for i := 0; i < 3; i++ {
		_, _ = GetOrCompute(context.Background(), c, "k", time.Minute, func(ctx context.Context) (int, error) {
			return 1, nil
		})
	}

	assert.Equal(t, 2, hits)
	assert.Equal(t, 1, misses)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "current", Key("current"))
	assert.Equal(t, "average:day", Key("average", "day"))
	assert.Equal(t, "op:1:true", Key("op", 1, true))
}
