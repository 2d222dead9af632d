package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/weatherwatch/internal/core/domain"
	"github.com/vietddude/weatherwatch/internal/infra/provider"
	"github.com/vietddude/weatherwatch/internal/infra/storage/memory"
	"github.com/vietddude/weatherwatch/internal/resilience/breaker"
	"github.com/vietddude/weatherwatch/internal/resilience/retry"
)

// scriptedProvider fails the first failures calls, then succeeds.
type scriptedProvider struct {
	mu       sync.Mutex
	failures int
	calls    int
	m        domain.Measurement
}

func (p *scriptedProvider) Name() string { return "openweather" }

func (p *scriptedProvider) Fetch(ctx context.Context) (domain.Measurement, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failures {
		return domain.Measurement{}, errors.New("connection reset by peer")
	}
	return p.m, nil
}

func (p *scriptedProvider) Health() provider.HealthStatus { return provider.HealthStatus{Available: true} }
func (p *scriptedProvider) Close() error { return nil }

func (p *scriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type failingRepo struct{ memory.MeasurementRepo }

func (r *failingRepo) Save(context.Context, domain.Measurement) error {
	return errors.New("disk full")
}

func testConfig() Config {
	return Config{
		Interval:   20 * time.Millisecond,
		RunOnStart: true,
		Retry:      retry.Config{MaxAttempts: 3, Delay: time.Millisecond},
		Breaker:    breaker.Config{FailureThreshold: 2, ResetTimeout: time.Minute},
	}
}

var reading = domain.Measurement{SourceID: "openweather/Buenos Aires", Timestamp: 1_700_000_000, Temperature: 21.5, Humidity: 60, Pressure: 1012}

func TestScheduler_RunOnceSaves(t *testing.T) {
	p := &scriptedProvider{m: reading}
	repo := memory.NewMeasurementRepo()
	s := NewScheduler(testConfig(), p, repo)

	require.NoError(t, s.RunOnce(context.Background()))

	latest, err := repo.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, reading, *latest)

	st := s.Status()
	assert.Equal(t, uint64(1), st.Runs)
	assert.Zero(t, st.Failures)
	assert.NotEmpty(t, st.LastCycleID)
	assert.False(t, st.LastSuccessAt.IsZero())
	assert.Equal(t, "closed", st.BreakerState)
}

func TestScheduler_RetryRecovers(t *testing.T) {
	p := &scriptedProvider{failures: 2, m: reading}
	repo := memory.NewMeasurementRepo()
	s := NewScheduler(testConfig(), p, repo)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 3, p.Calls())
	assert.Equal(t, 1, repo.Len())
}

func TestScheduler_ExhaustedCycleIsRecorded(t *testing.T) {
	p := &scriptedProvider{failures: 100}
	repo := memory.NewMeasurementRepo()
	s := NewScheduler(testConfig(), p, repo)

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrExhausted)
	assert.Equal(t, 3, p.Calls())
	assert.Zero(t, repo.Len())

	st := s.Status()
	assert.Equal(t, uint64(1), st.Failures)
	assert.Contains(t, st.LastError, "connection reset")
}

func TestScheduler_BreakerSkipsFetchWhenOpen(t *testing.T) {
	p := &scriptedProvider{failures: 100}
	s := NewScheduler(testConfig(), p, memory.NewMeasurementRepo())

	_ = s.RunOnce(context.Background())
	_ = s.RunOnce(context.Background())
	calls := p.Calls()

	err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, breaker.ErrOpen)
	assert.Equal(t, calls, p.Calls())
	assert.Equal(t, "open", s.Status().BreakerState)
}

func TestScheduler_SaveFailure(t *testing.T) {
	p := &scriptedProvider{m: reading}
	s := NewScheduler(testConfig(), p, &failingRepo{})

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save measurement")
	assert.Equal(t, "closed", s.Status().BreakerState)
}

func TestScheduler_LoopSurvivesFailures(t *testing.T) {
	p := &scriptedProvider{failures: 4, m: reading}
	repo := memory.NewMeasurementRepo()
	cfg := testConfig()
	cfg.Retry.MaxAttempts = 1
	cfg.Breaker.FailureThreshold = 10
	s := NewScheduler(cfg, p, repo)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return repo.Len() > 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}

	st := s.Status()
	assert.GreaterOrEqual(t, st.Failures, uint64(4))
	assert.Empty(t, st.LastError)
}

func TestScheduler_NoRunOnStart(t *testing.T) {
	p := &scriptedProvider{m: reading}
	cfg := testConfig()
	cfg.Interval = time.Hour
	cfg.RunOnStart = false
	s := NewScheduler(cfg, p, memory.NewMeasurementRepo())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	<-done

	assert.Zero(t, p.Calls())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 15*time.Minute, cfg.Interval)
	assert.True(t, cfg.RunOnStart)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Retry.Delay)
	assert.Equal(t, uint32(3), cfg.Breaker.FailureThreshold)
}

func TestScheduler_ZeroIntervalUsesDefault(t *testing.T) {
	s := NewScheduler(Config{}, &scriptedProvider{m: reading}, memory.NewMeasurementRepo())
	assert.Equal(t, DefaultConfig().Interval, s.Interval())
	assert.Equal(t, DefaultConfig().Interval.String(), s.Status().Interval)
}
