package query

import (
	"context"
	"log/slog"

	"github.com/vietddude/weatherwatch/internal/core/domain"
	"github.com/vietddude/weatherwatch/internal/infra/provider"
	"github.com/vietddude/weatherwatch/internal/metrics"
)

// ProviderFallback serves current conditions from a secondary upstream when
// the primary query path is shedding load. It makes exactly one call per
// request: no retry, no breaker.
type ProviderFallback struct {
	provider provider.Provider
	log      *slog.Logger
}

// NewFallback wraps p as a fallback source.
func NewFallback(p provider.Provider) *ProviderFallback {
	return &ProviderFallback{
		provider: p,
		log:      slog.Default().With("component", "fallback", "provider", p.Name()),
	}
}

// Name returns the secondary provider name.
func (f *ProviderFallback) Name() string {
	return f.provider.Name()
}

// FetchCurrent performs one best-effort fetch. primary is the error that
// routed the request here and is kept on the returned error.
func (f *ProviderFallback) FetchCurrent(ctx context.Context, primary error) (domain.Measurement, error) {
	m, err := f.provider.Fetch(ctx)
	if err != nil {
		metrics.FallbackCalls.WithLabelValues(f.provider.Name(), "failure").Inc()
		f.log.Warn("Fallback fetch failed", "error", err, "primary_error", primary)
		return domain.Measurement{}, &domain.FallbackError{
			Provider: f.provider.Name(),
			Primary:  primary,
			Err:      err,
		}
	}
	metrics.FallbackCalls.WithLabelValues(f.provider.Name(), "success").Inc()
	f.log.Info("Served current conditions from fallback", "timestamp", m.Timestamp)
	return m, nil
}
