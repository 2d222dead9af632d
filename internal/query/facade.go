// Package query is the read side of the system: every request for current
// conditions or rolling averages goes through the Facade, which applies the
// cache, breaker and retry policy of the requested operation and turns the
// outcome into a domain.QueryResult.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/weatherwatch/internal/core/domain"
	"github.com/vietddude/weatherwatch/internal/metrics"
	"github.com/vietddude/weatherwatch/internal/resilience/breaker"
	"github.com/vietddude/weatherwatch/internal/resilience/cache"
	"github.com/vietddude/weatherwatch/internal/resilience/classify"
	"github.com/vietddude/weatherwatch/internal/resilience/retry"
)

// DataService is the remote store reader. Implementations perform one call
// per invocation and return domain.ErrNoData for empty results.
type DataService interface {
	Current(ctx context.Context) (domain.Measurement, error)
	Average(ctx context.Context, w domain.Window) (float64, error)
}

// Fallback serves current conditions when the primary breaker is open.
type Fallback interface {
	Name() string
	FetchCurrent(ctx context.Context, primary error) (domain.Measurement, error)
}

// OperationConfig configures the protection of one remote read.
type OperationConfig struct {
	TTL     time.Duration  `yaml:"ttl"`
	Breaker breaker.Config `yaml:"breaker"`
	Retry   retry.Config   `yaml:"retry"`
}

// Config holds per-operation settings.
type Config struct {
	Current     OperationConfig `yaml:"current"`
	AverageDay  OperationConfig `yaml:"average_day"`
	AverageWeek OperationConfig `yaml:"average_week"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	op := func(ttl time.Duration) OperationConfig {
		return OperationConfig{
			TTL:     ttl,
			Breaker: breaker.Config{FailureThreshold: 2, ResetTimeout: 60 * time.Second},
			Retry:   retry.Config{MaxAttempts: 2, Delay: 3 * time.Second},
		}
	}
	return Config{
		Current:     op(0),
		AverageDay:  op(60 * time.Second),
		AverageWeek: op(300 * time.Second),
	}
}

// protected is one remote read with its own breaker, retry policy and TTL.
type protected[T any] struct {
	op      domain.Operation
	ttl     time.Duration
	breaker *breaker.Breaker[T]
	retry   *retry.Policy
	call    func(ctx context.Context) (T, error)
}

func newProtected[T any](
	op domain.Operation,
	cfg OperationConfig,
	retryable func(error) bool,
	call func(ctx context.Context) (T, error),
) *protected[T] {
	return &protected[T]{
		op:  op,
		ttl: cfg.TTL,
		breaker: breaker.New[T](string(op), cfg.Breaker,
			// An empty store is a healthy answer, and a caller leaving says
			// nothing about the dependency.
			breaker.WithSuccessful(func(err error) bool {
				return errors.Is(err, domain.ErrNoData) || errors.Is(err, context.Canceled)
			}),
			breaker.WithStateChange(func(name string, _, to breaker.State) {
				metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			}),
		),
		retry: retry.New(cfg.Retry, retry.WithRetryable(retryable)),
		call:  call,
	}
}

// run is cache → breaker → retry → call.
func (p *protected[T]) run(ctx context.Context, c *cache.TTLCache) (T, error) {
	return cache.GetOrCompute(ctx, c, cache.Key(string(p.op)), p.ttl, func(ctx context.Context) (T, error) {
		return p.breaker.Execute(func() (T, error) {
			v, err := retry.Do(ctx, p.retry, p.call)
			if err != nil && errors.Is(ctx.Err(), context.Canceled) {
				err = fmt.Errorf("%w: %w", context.Canceled, err)
			}
			return v, err
		})
	})
}

// BreakerStatus is a snapshot of one operation's breaker.
type BreakerStatus struct {
	Operation           domain.Operation `json:"operation"`
	State               string           `json:"state"`
	ConsecutiveFailures uint32           `json:"consecutive_failures"`
}

// Option customizes a Facade.
type Option func(*Facade)

// WithRetryable sets which remote errors are retried. ErrNoData is never retried.
func WithRetryable(fn func(error) bool) Option {
	return func(f *Facade) { f.retryable = fn }
}

// WithLogger sets the facade logger.
func WithLogger(log *slog.Logger) Option {
	return func(f *Facade) { f.log = log }
}

// Facade is safe for concurrent use. Breakers and the cache are shared by
// all requests for the same operation.
type Facade struct {
	remote    DataService
	fallback  Fallback
	cache     *cache.TTLCache
	log       *slog.Logger
	retryable func(error) bool

	current     *protected[domain.Measurement]
	averageDay  *protected[float64]
	averageWeek *protected[float64]
}

// NewFacade wires one protected read per operation. fallback and c may be nil.
func NewFacade(remote DataService, fallback Fallback, c *cache.TTLCache, cfg Config, opts ...Option) *Facade {
	f := &Facade{
		remote:    remote,
		fallback:  fallback,
		cache:     c,
		log:       slog.Default(),
		retryable: func(error) bool { return true },
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.With("component", "query")

	retryable := func(err error) bool {
		return !errors.Is(err, domain.ErrNoData) && f.retryable(err)
	}

	f.current = newProtected(domain.OpCurrent, cfg.Current, retryable, remote.Current)
	f.averageDay = newProtected(domain.OpAverageDay, cfg.AverageDay, retryable,
		func(ctx context.Context) (float64, error) { return remote.Average(ctx, domain.WindowDay) })
	f.averageWeek = newProtected(domain.OpAverageWeek, cfg.AverageWeek, retryable,
		func(ctx context.Context) (float64, error) { return remote.Average(ctx, domain.WindowWeek) })

	for _, op := range []domain.Operation{domain.OpCurrent, domain.OpAverageDay, domain.OpAverageWeek} {
		metrics.BreakerState.WithLabelValues(string(op)).Set(float64(breaker.StateClosed))
	}
	return f
}

// Query dispatches op.
func (f *Facade) Query(ctx context.Context, op domain.Operation) domain.QueryResult {
	switch op {
	case domain.OpCurrent:
		return f.Current(ctx)
	case domain.OpAverageDay:
		return f.AverageOver(ctx, domain.WindowDay)
	case domain.OpAverageWeek:
		return f.AverageOver(ctx, domain.WindowWeek)
	default:
		return f.record(classify.Result(op, fmt.Errorf("unknown operation %q", op)))
	}
}

// Current returns the latest measurement. When the breaker is open the
// fallback provider is asked instead and the result is marked Degraded.
func (f *Facade) Current(ctx context.Context) domain.QueryResult {
	m, err := f.current.run(ctx, f.cache)
	if err == nil {
		observeCurrent(m)
		return f.record(domain.QueryResult{
			Operation:   domain.OpCurrent,
			Outcome:     domain.OutcomeSuccess,
			Source:      domain.SourcePrimary,
			Measurement: &m,
		})
	}

	if errors.Is(err, breaker.ErrOpen) && f.fallback != nil {
		fm, ferr := f.fallback.FetchCurrent(ctx, err)
		if ferr != nil {
			return f.record(classify.Result(domain.OpCurrent, ferr))
		}
		return f.record(domain.QueryResult{
			Operation:   domain.OpCurrent,
			Outcome:     domain.OutcomeDegraded,
			Source:      domain.SourceFallback,
			Measurement: &fm,
		})
	}

	return f.record(classify.Result(domain.OpCurrent, err))
}

// AverageOver returns the mean temperature over w. Averages have no
// fallback source.
func (f *Facade) AverageOver(ctx context.Context, w domain.Window) domain.QueryResult {
	op, ok := domain.AverageOperation(w)
	if !ok {
		return f.record(classify.Result(domain.Operation("average_"+string(w)),
			fmt.Errorf("unsupported window %q", w)))
	}

	p := f.averageDay
	if w == domain.WindowWeek {
		p = f.averageWeek
	}

	avg, err := p.run(ctx, f.cache)
	if err != nil {
		return f.record(classify.Result(op, err))
	}

	metrics.AverageTemperature.WithLabelValues(string(w)).Set(avg)
	return f.record(domain.QueryResult{
		Operation: op,
		Outcome:   domain.OutcomeSuccess,
		Source:    domain.SourcePrimary,
		Average:   &avg,
	})
}

// Breakers returns the state of every operation breaker.
func (f *Facade) Breakers() []BreakerStatus {
	return []BreakerStatus{
		breakerStatus(f.current.op, f.current.breaker.State(), f.current.breaker.Counts()),
		breakerStatus(f.averageDay.op, f.averageDay.breaker.State(), f.averageDay.breaker.Counts()),
		breakerStatus(f.averageWeek.op, f.averageWeek.breaker.State(), f.averageWeek.breaker.Counts()),
	}
}

func breakerStatus(op domain.Operation, s breaker.State, c breaker.Counts) BreakerStatus {
	return BreakerStatus{Operation: op, State: s.String(), ConsecutiveFailures: c.ConsecutiveFailures}
}

func (f *Facade) record(r domain.QueryResult) domain.QueryResult {
	metrics.QueryOutcomes.WithLabelValues(string(r.Operation), r.Outcome.String(), string(r.Kind)).Inc()
	switch r.Outcome {
	case domain.OutcomeUnavailable:
		f.log.Warn("Query failed", "operation", r.Operation, "kind", r.Kind, "error", r.Err)
	case domain.OutcomeDegraded:
		f.log.Warn("Query served degraded", "operation", r.Operation, "source", r.Source)
	case domain.OutcomeNotFound:
		f.log.Info("Query found no data", "operation", r.Operation)
	}
	return r
}

func observeCurrent(m domain.Measurement) {
	metrics.CurrentTemperature.Set(m.Temperature)
	metrics.CurrentHumidity.Set(m.Humidity)
	metrics.CurrentPressure.Set(m.Pressure)
	metrics.LastObservation.Set(float64(m.Timestamp))
}
