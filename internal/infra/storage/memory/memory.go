package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/weatherwatch/internal/core/domain"
)

// MeasurementRepo keeps measurements in process memory. Used when no
// database is configured.
type MeasurementRepo struct {
	mu           sync.RWMutex
	measurements []domain.Measurement
	now          func() time.Time
}

func NewMeasurementRepo() *MeasurementRepo {
	return &MeasurementRepo{now: time.Now}
}

// WithClock replaces the clock used to evaluate average windows.
func (r *MeasurementRepo) WithClock(now func() time.Time) *MeasurementRepo {
	r.now = now
	return r
}

func (r *MeasurementRepo) Save(ctx context.Context, m domain.Measurement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.measurements = append(r.measurements, m)
	return nil
}

func (r *MeasurementRepo) Latest(ctx context.Context) (*domain.Measurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.Measurement
	for i := range r.measurements {
		if latest == nil || r.measurements[i].Timestamp >= latest.Timestamp {
			latest = &r.measurements[i]
		}
	}
	if latest == nil {
		return nil, nil
	}
	m := *latest
	return &m, nil
}

func (r *MeasurementRepo) AverageSince(ctx context.Context, d time.Duration) (*float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := r.now().Add(-d).Unix()
	var sum float64
	var n int
	for _, m := range r.measurements {
		if m.Timestamp >= cutoff {
			sum += m.Temperature
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}
	avg := sum / float64(n)
	return &avg, nil
}

// Len returns the number of stored measurements.
func (r *MeasurementRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.measurements)
}
