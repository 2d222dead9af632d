package api

import (
	"net/http"

	"github.com/vietddude/weatherwatch/internal/core/domain"
)

// StatusFor maps a query result to its HTTP status. It looks only at the
// outcome and failure kind.
func StatusFor(r domain.QueryResult) int {
	switch r.Outcome {
	case domain.OutcomeSuccess, domain.OutcomeDegraded:
		return http.StatusOK
	case domain.OutcomeNotFound:
		return http.StatusNotFound
	}

	switch r.Kind {
	case domain.KindNoData:
		return http.StatusNotFound
	case domain.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func messageFor(kind domain.FailureKind) string {
	switch kind {
	case domain.KindNoData:
		return "no weather data available yet"
	case domain.KindServiceUnavailable:
		return "service temporarily unavailable, try again later"
	case domain.KindUpstreamUnreachable:
		return "upstream service did not respond, try again"
	default:
		return "internal error"
	}
}
