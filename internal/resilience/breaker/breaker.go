// Package breaker sheds load from a failing dependency. One Breaker guards one
// logical remote operation and is shared by every caller of that operation.
package breaker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrOpen matches every call rejected without invoking the protected operation.
var ErrOpen = errors.New("circuit breaker is open")

// State is the breaker state.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// OpenError is returned on the fail-fast path.
type OpenError struct {
	Name  string
	State State
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q rejected call (%s)", e.Name, e.State)
}

func (e *OpenError) Is(target error) bool {
	return target == ErrOpen
}

// Config holds breaker thresholds.
type Config struct {
	FailureThreshold uint32        `yaml:"failure_threshold"`
	ResetTimeout     time.Duration `yaml:"reset_timeout"`
}

// DefaultConfig mirrors the thresholds used for remote queries.
var DefaultConfig = Config{
	FailureThreshold: 2,
	ResetTimeout:     60 * time.Second,
}

// Counts is a snapshot of the breaker counters.
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

type options struct {
	successful    func(error) bool
	onStateChange func(name string, from, to State)
}

// Option customizes a Breaker.
type Option func(*options)

// WithSuccessful marks errors that should not count as failures, such as an
// empty read.
func WithSuccessful(fn func(error) bool) Option {
	return func(o *options) { o.successful = fn }
}

// WithStateChange registers a transition callback. It runs while the breaker
// holds its lock and must not call back into the breaker.
func WithStateChange(fn func(name string, from, to State)) Option {
	return func(o *options) { o.onStateChange = fn }
}

// Breaker wraps a gobreaker instance with a fixed probe budget of one call.
type Breaker[T any] struct {
	name string
	cfg  Config
	cb   *gobreaker.CircuitBreaker[T]
}

// New creates a breaker for the operation called name.
func New[T any](name string, cfg Config, opts ...Option) *Breaker[T] {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultConfig.FailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = DefaultConfig.ResetTimeout
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	threshold := cfg.FailureThreshold
	settings := gobreaker.Settings{
		Name: name,
		// A single probe is admitted while half-open; concurrent callers fail fast.
		MaxRequests: 1,
		// Interval 0 keeps the consecutive-failure count until a success resets it.
		Interval: 0,
		Timeout:  cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed",
				"breaker", name,
				"from", fromGobreaker(from).String(),
				"to", fromGobreaker(to).String(),
			)
			if o.onStateChange != nil {
				o.onStateChange(name, fromGobreaker(from), fromGobreaker(to))
			}
		},
	}
	if o.successful != nil {
		successful := o.successful
		settings.IsSuccessful = func(err error) bool {
			return err == nil || successful(err)
		}
	}

	return &Breaker[T]{
		name: name,
		cfg:  cfg,
		cb:   gobreaker.NewCircuitBreaker[T](settings),
	}
}

// Name returns the protected operation name.
func (b *Breaker[T]) Name() string { return b.name }

// Config returns the effective configuration.
func (b *Breaker[T]) Config() Config { return b.cfg }

// Execute runs op unless the breaker is open, and records its outcome.
func (b *Breaker[T]) Execute(op func() (T, error)) (T, error) {
	v, err := b.cb.Execute(op)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, &OpenError{Name: b.name, State: b.State()}
	}
	return v, err
}

// State returns the current state. Reading the state of an open breaker whose
// reset timeout has elapsed moves it to half-open.
func (b *Breaker[T]) State() State {
	return fromGobreaker(b.cb.State())
}

// Counts returns the counters of the current generation.
func (b *Breaker[T]) Counts() Counts {
	c := b.cb.Counts()
	return Counts{
		Requests:             c.Requests,
		TotalSuccesses:       c.TotalSuccesses,
		TotalFailures:        c.TotalFailures,
		ConsecutiveSuccesses: c.ConsecutiveSuccesses,
		ConsecutiveFailures:  c.ConsecutiveFailures,
	}
}

func fromGobreaker(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
