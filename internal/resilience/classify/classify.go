// Package classify maps failures raised on the query path to the fixed,
// externally visible error taxonomy.
package classify

import (
	"errors"

	"github.com/vietddude/weatherwatch/internal/core/domain"
	"github.com/vietddude/weatherwatch/internal/resilience/breaker"
	"github.com/vietddude/weatherwatch/internal/resilience/retry"
)

// Classify returns the failure kind for err. It is pure and safe for
// concurrent use.
func Classify(err error) domain.FailureKind {
	switch {
	case err == nil:
		return domain.KindNone
	case errors.Is(err, domain.ErrFallbackUnavailable):
		return domain.KindServiceUnavailable
	case errors.Is(err, breaker.ErrOpen):
		return domain.KindServiceUnavailable
	case errors.Is(err, retry.ErrExhausted):
		return domain.KindUpstreamUnreachable
	case errors.Is(err, domain.ErrNoData):
		return domain.KindNoData
	default:
		return domain.KindInternal
	}
}

// Result builds the QueryResult for a failed operation.
func Result(op domain.Operation, err error) domain.QueryResult {
	kind := Classify(err)
	outcome := domain.OutcomeUnavailable
	if kind == domain.KindNoData {
		outcome = domain.OutcomeNotFound
	}
	return domain.QueryResult{
		Operation: op,
		Outcome:   outcome,
		Kind:      kind,
		Err:       err,
	}
}
