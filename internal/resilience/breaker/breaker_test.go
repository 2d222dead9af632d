package breaker

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("upstream failed")

func fail() (int, error)    { return 0, errBoom }
func succeed() (int, error) { return 1, nil }

func trip(t *testing.T, b *Breaker[int], n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := b.Execute(fail)
		require.ErrorIs(t, err, errBoom)
	}
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b := New[int]("test", Config{FailureThreshold: 3, ResetTimeout: time.Minute})

	trip(t, b, 2)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, uint32(2), b.Counts().ConsecutiveFailures)

	trip(t, b, 1)
	assert.Equal(t, StateOpen, b.State())

	invoked := false
	_, err := b.Execute(func() (int, error) {
		invoked = true
		return 1, nil
	})
	assert.False(t, invoked, "open breaker must not invoke the operation")
	assert.ErrorIs(t, err, ErrOpen)

	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, "test", openErr.Name)
}

func TestBreaker_SuccessResetsConsecutiveFailures(t *testing.T) {
	b := New[int]("test", Config{FailureThreshold: 2, ResetTimeout: time.Minute})

	trip(t, b, 1)
	_, err := b.Execute(succeed)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), b.Counts().ConsecutiveFailures)

	trip(t, b, 1)
	assert.Equal(t, StateClosed, b.State(), "non-consecutive failures must not open the breaker")
}

func TestBreaker_HalfOpenProbeSuccessCloses(t *testing.T) {
	b := New[int]("test", Config{FailureThreshold: 1, ResetTimeout: 50 * time.Millisecond})
	trip(t, b, 1)
	require.Equal(t, StateOpen, b.State())

	time.Sleep(80 * time.Millisecond)

	v, err := b.Execute(succeed)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, uint32(0), b.Counts().ConsecutiveFailures)
}

func TestBreaker_HalfOpenProbeFailureReopens(t *testing.T) {
	b := New[int]("test", Config{FailureThreshold: 1, ResetTimeout: 100 * time.Millisecond})
	trip(t, b, 1)

	time.Sleep(120 * time.Millisecond)

	_, err := b.Execute(fail)
	require.ErrorIs(t, err, errBoom, "the probe runs and reports its own failure")
	assert.Equal(t, StateOpen, b.State())

	// The timeout restarts from the failed probe, not from the first opening.
	time.Sleep(60 * time.Millisecond)
	invoked := false
	_, err = b.Execute(func() (int, error) {
		invoked = true
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, invoked)

	time.Sleep(70 * time.Millisecond)
	_, err = b.Execute(succeed)
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenAdmitsSingleProbe(t *testing.T) {
	b := New[int]("test", Config{FailureThreshold: 1, ResetTimeout: 30 * time.Millisecond})
	trip(t, b, 1)
	time.Sleep(50 * time.Millisecond)

	release := make(chan struct{})
	started := make(chan struct{})
	var probeErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, probeErr = b.Execute(func() (int, error) {
			close(started)
			<-release
			return 1, nil
		})
	}()
	<-started

	var invoked atomic.Int32
	var rejected atomic.Int32
	var others sync.WaitGroup
	for i := 0; i < 10; i++ {
		others.Add(1)
		go func() {
			defer others.Done()
			_, err := b.Execute(func() (int, error) {
				invoked.Add(1)
				return 1, nil
			})
			if errors.Is(err, ErrOpen) {
				rejected.Add(1)
			}
		}()
	}
	others.Wait()

	assert.Equal(t, int32(0), invoked.Load(), "only the probe may run while half-open")
	assert.Equal(t, int32(10), rejected.Load())

	close(release)
	wg.Wait()
	require.NoError(t, probeErr)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_ConcurrentFailuresOpenOnce(t *testing.T) {
	var opened atomic.Int32
	b := New[int]("test", Config{FailureThreshold: 5, ResetTimeout: time.Minute},
		WithStateChange(func(name string, from, to State) {
			if to == StateOpen {
				opened.Add(1)
			}
		}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = b.Execute(fail)
		}()
	}
	wg.Wait()

	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, int32(1), opened.Load())
}

func TestBreaker_SuccessfulErrorsDoNotTrip(t *testing.T) {
	errEmpty := errors.New("empty")
	b := New[int]("test", Config{FailureThreshold: 1, ResetTimeout: time.Minute},
		WithSuccessful(func(err error) bool { return errors.Is(err, errEmpty) }))

	for i := 0; i < 3; i++ {
		_, err := b.Execute(func() (int, error) { return 0, errEmpty })
		assert.ErrorIs(t, err, errEmpty, "the error still reaches the caller")
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestNew_AppliesDefaults(t *testing.T) {
	b := New[int]("test", Config{})
	assert.Equal(t, DefaultConfig, b.Config())
	assert.Equal(t, "test", b.Name())
}
