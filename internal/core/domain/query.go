package domain

// Operation names a query exposed by the metrics API.
type Operation string

const (
	OpCurrent     Operation = "current"
	OpAverageDay  Operation = "average_day"
	OpAverageWeek Operation = "average_week"
)

// AverageOperation maps a window to its operation.
func AverageOperation(w Window) (Operation, bool) {
	switch w {
	case WindowDay:
		return OpAverageDay, true
	case WindowWeek:
		return OpAverageWeek, true
	default:
		return "", false
	}
}

// Outcome is the variant tag of a QueryResult.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeDegraded
	OutcomeNotFound
	OutcomeUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Source identifies which path produced a value.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
)

// QueryResult is what the query facade hands to the transport boundary.
// Exactly one of Measurement or Average is set for Success/Degraded results.
type QueryResult struct {
	Operation   Operation
	Outcome     Outcome
	Kind        FailureKind
	Source      Source
	Measurement *Measurement
	Average     *float64
	Err         error
}

// OK reports whether the result carries data.
func (r QueryResult) OK() bool {
	return r.Outcome == OutcomeSuccess || r.Outcome == OutcomeDegraded
}
