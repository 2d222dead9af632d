package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData is returned when a read succeeded but nothing matched.
	ErrNoData = errors.New("no data available")

	// ErrFallbackUnavailable is returned when the secondary provider could not serve a request.
	ErrFallbackUnavailable = errors.New("fallback provider unavailable")
)

// FailureKind is the externally visible error taxonomy.
type FailureKind string

const (
	KindNone                FailureKind = ""
	KindNoData              FailureKind = "no_data"
	KindUpstreamUnreachable FailureKind = "upstream_unreachable"
	KindServiceUnavailable  FailureKind = "service_unavailable"
	KindInternal            FailureKind = "internal_error"
)

// FallbackError wraps the failure of a fallback call together with the
// reason the primary path was skipped.
type FallbackError struct {
	Provider string
	Primary  error
	Err      error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("fallback %s failed: %v (primary: %v)", e.Provider, e.Err, e.Primary)
}

func (e *FallbackError) Unwrap() error { return e.Err }

func (e *FallbackError) Is(target error) bool {
	return target == ErrFallbackUnavailable
}
