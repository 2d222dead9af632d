package health

import (
	"context"
	"time"

	"github.com/vietddude/weatherwatch/internal/infra/provider"
	"github.com/vietddude/weatherwatch/internal/ingest"
	"github.com/vietddude/weatherwatch/internal/query"
)

// Pinger is implemented by connections that can be probed.
type Pinger interface {
	Health(ctx context.Context) error
}

// PingChecker is critical when the ping fails.
func PingChecker(name string, p Pinger) Checker {
	return NewCheckerFunc(name, func(ctx context.Context) ComponentHealth {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := p.Health(ctx); err != nil {
			return ComponentHealth{Status: StatusCritical, Error: err.Error()}
		}
		return ComponentHealth{Status: StatusHealthy}
	})
}

// ProviderChecker reports upstream provider health. An unavailable provider
// degrades the system but is never critical.
func ProviderChecker(p provider.Provider) Checker {
	return NewCheckerFunc("provider:"+p.Name(), func(ctx context.Context) ComponentHealth {
		h := p.Health()
		status := StatusHealthy
		if !h.Available {
			status = StatusDegraded
		}
		return ComponentHealth{
			Status: status,
			Error:  h.LastError,
			Details: map[string]any{
				"error_rate":      h.ErrorRate,
				"latency":         h.Latency.String(),
				"last_success_at": h.LastSuccessAt,
			},
		}
	})
}

// SchedulerChecker is degraded when the ingestion breaker is open or no cycle
// has succeeded within two of its intervals.
func SchedulerChecker(s *ingest.Scheduler) Checker {
	return NewCheckerFunc("scheduler", func(ctx context.Context) ComponentHealth {
		st := s.Status()
		status := StatusHealthy
		if st.BreakerState == "open" {
			status = StatusDegraded
		}
		if st.Runs > 0 && time.Since(st.LastSuccessAt) > 2*s.Interval() {
			status = StatusDegraded
		}
		return ComponentHealth{
			Status: status,
			Error:  st.LastError,
			Details: map[string]any{
				"runs":            st.Runs,
				"failures":        st.Failures,
				"last_run_at":     st.LastRunAt,
				"last_success_at": st.LastSuccessAt,
				"breaker":         st.BreakerState,
			},
		}
	})
}

// BreakerChecker reports the query breakers. Any breaker not closed degrades
// the system.
func BreakerChecker(f *query.Facade) Checker {
	return NewCheckerFunc("breakers", func(ctx context.Context) ComponentHealth {
		status := StatusHealthy
		details := make(map[string]any)
		for _, b := range f.Breakers() {
			details[string(b.Operation)] = b.State
			if b.State != "closed" {
				status = StatusDegraded
			}
		}
		return ComponentHealth{Status: status, Details: details}
	})
}
