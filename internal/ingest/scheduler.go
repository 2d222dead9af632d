// Package ingest runs the periodic job that copies upstream observations
// into the measurement store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/weatherwatch/internal/core/domain"
	"github.com/vietddude/weatherwatch/internal/infra/provider"
	"github.com/vietddude/weatherwatch/internal/infra/storage"
	"github.com/vietddude/weatherwatch/internal/metrics"
	"github.com/vietddude/weatherwatch/internal/resilience/breaker"
	"github.com/vietddude/weatherwatch/internal/resilience/retry"
)

// Config controls the ingestion cadence.
type Config struct {
	Interval   time.Duration  `yaml:"interval"`
	RunOnStart bool           `yaml:"run_on_start"`
	Retry      retry.Config   `yaml:"retry"`
	Breaker    breaker.Config `yaml:"breaker"`
}

// DefaultConfig fetches every 15 minutes, retrying 3 times 5s apart behind a
// breaker that opens after 3 failed cycles.
func DefaultConfig() Config {
	return Config{
		Interval:   15 * time.Minute,
		RunOnStart: true,
		Retry:      retry.Config{MaxAttempts: 3, Delay: 5 * time.Second},
		Breaker:    breaker.Config{FailureThreshold: 3, ResetTimeout: 60 * time.Second},
	}
}

// Status is a snapshot of the scheduler for health reporting.
type Status struct {
	Provider      string    `json:"provider"`
	Interval      string    `json:"interval"`
	Runs          uint64    `json:"runs"`
	Failures      uint64    `json:"failures"`
	LastRunAt     time.Time `json:"last_run_at"`
	LastSuccessAt time.Time `json:"last_success_at"`
	LastCycleID   string    `json:"last_cycle_id,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	BreakerState  string    `json:"breaker_state"`
}

// Scheduler fetches from the primary provider on a fixed interval and saves
// the result. Cycles never overlap and a failed cycle never stops the loop.
type Scheduler struct {
	cfg      Config
	provider provider.Provider
	repo     storage.MeasurementRepository
	retry    *retry.Policy
	breaker  *breaker.Breaker[domain.Measurement]
	log      *slog.Logger

	mu     sync.RWMutex
	status Status
}

// NewScheduler creates a scheduler. The retry policy and breaker are built
// from cfg.
func NewScheduler(cfg Config, p provider.Provider, repo storage.MeasurementRepository) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	name := "ingest:" + p.Name()
	return &Scheduler{
		cfg:      cfg,
		provider: p,
		repo:     repo,
		retry:    retry.New(cfg.Retry),
		breaker: breaker.New[domain.Measurement](name, cfg.Breaker,
			breaker.WithStateChange(func(name string, _, to breaker.State) {
				metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			}),
		),
		log: slog.Default().With("component", "ingest", "provider", p.Name()),
		status: Status{
			Provider: p.Name(),
			Interval: cfg.Interval.String(),
		},
	}
}

// Interval returns the effective tick period.
func (s *Scheduler) Interval() time.Duration {
	return s.cfg.Interval
}

// Start runs the ingestion loop until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.log.Info("Ingestion scheduler started", "interval", s.cfg.Interval, "run_on_start", s.cfg.RunOnStart)

	if s.cfg.RunOnStart {
		_ = s.RunOnce(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Ingestion scheduler stopped")
			return
		case <-ticker.C:
			_ = s.RunOnce(ctx)
		}
	}
}

// RunOnce performs one fetch-and-save cycle. The error is returned for
// callers that trigger a cycle by hand; the loop only logs it.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	cycleID := uuid.NewString()
	log := s.log.With("cycle_id", cycleID)
	start := time.Now()

	m, err := s.breaker.Execute(func() (domain.Measurement, error) {
		return retry.Do(ctx, s.retry, s.fetch)
	})
	if err != nil {
		err = fmt.Errorf("fetch: %w", err)
	} else if saveErr := s.repo.Save(ctx, m); saveErr != nil {
		err = fmt.Errorf("save measurement: %w", saveErr)
	}

	elapsed := time.Since(start)
	metrics.IngestionDuration.WithLabelValues(s.provider.Name()).Observe(elapsed.Seconds())
	s.record(cycleID, start, err)

	if err != nil {
		metrics.IngestionRuns.WithLabelValues(s.provider.Name(), "failure").Inc()
		log.Error("Ingestion cycle failed", "error", err, "duration", elapsed)
		return err
	}

	metrics.IngestionRuns.WithLabelValues(s.provider.Name(), "success").Inc()
	metrics.CurrentTemperature.Set(m.Temperature)
	metrics.CurrentHumidity.Set(m.Humidity)
	metrics.CurrentPressure.Set(m.Pressure)
	metrics.LastObservation.Set(float64(m.Timestamp))
	log.Info("Ingestion cycle completed",
		"timestamp", m.Timestamp,
		"temperature", m.Temperature,
		"duration", elapsed,
	)
	return nil
}

func (s *Scheduler) fetch(ctx context.Context) (domain.Measurement, error) {
	metrics.UpstreamCallsTotal.WithLabelValues(s.provider.Name(), "fetch").Inc()
	m, err := s.provider.Fetch(ctx)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(s.provider.Name(), "fetch").Inc()
		s.log.Debug("Fetch attempt failed", "error", err)
	}
	return m, err
}

func (s *Scheduler) record(cycleID string, at time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.Runs++
	s.status.LastRunAt = at
	s.status.LastCycleID = cycleID
	if err != nil {
		s.status.Failures++
		s.status.LastError = err.Error()
		return
	}
	s.status.LastSuccessAt = at
	s.status.LastError = ""
}

// Status returns a snapshot of the last cycles.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	st := s.status
	s.mu.RUnlock()

	st.BreakerState = s.breaker.State().String()
	return st
}
