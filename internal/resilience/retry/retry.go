// Package retry runs a fallible operation a bounded number of times with a
// fixed delay between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// ErrExhausted matches any error returned after every attempt failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// ExhaustedError carries the last failure of an exhausted retry loop.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

// Config defines retry behavior.
type Config struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Delay       time.Duration `yaml:"delay"`
}

// Policy is immutable and safe to share between goroutines.
type Policy struct {
	maxAttempts int
	delay       time.Duration
	retryable   func(error) bool
}

// Option customizes a Policy.
type Option func(*Policy)

// WithRetryable sets the predicate deciding which errors are worth another attempt.
func WithRetryable(fn func(error) bool) Option {
	return func(p *Policy) {
		if fn != nil {
			p.retryable = fn
		}
	}
}

// New creates a Policy. MaxAttempts below 1 is treated as 1 and negative
// delays as 0.
func New(cfg Config, opts ...Option) *Policy {
	p := &Policy{
		maxAttempts: max(cfg.MaxAttempts, 1),
		delay:       max(cfg.Delay, 0),
		retryable:   func(error) bool { return true },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MaxAttempts returns the total number of invocations allowed.
func (p *Policy) MaxAttempts() int { return p.maxAttempts }

// Delay returns the fixed wait between attempts.
func (p *Policy) Delay() time.Duration { return p.delay }

// Do invokes op until it succeeds, returns a non-retryable error, or the
// policy runs out of attempts. Exhaustion is reported as *ExhaustedError.
func Do[T any](ctx context.Context, p *Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var (
		result   T
		zero     T
		attempts int
		lastErr  error
	)

	// The backoff is stateful, so it is built per call.
	delay := p.delay
	backoff := goretry.WithMaxRetries(
		uint64(p.maxAttempts-1),
		goretry.BackoffFunc(func() (time.Duration, bool) { return delay, false }),
	)

	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		v, err := op(ctx)
		if err != nil {
			lastErr = err
			if p.retryable(err) {
				return goretry.RetryableError(err)
			}
			return err
		}
		result = v
		return nil
	})
	if err == nil {
		return result, nil
	}

	if lastErr != nil && attempts >= p.maxAttempts && p.retryable(lastErr) {
		return zero, &ExhaustedError{Attempts: attempts, Err: lastErr}
	}
	return zero, err
}
