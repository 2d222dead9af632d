package storage

import (
	"context"
	"time"

	"github.com/vietddude/weatherwatch/internal/core/domain"
)

// MeasurementRepository handles measurement storage operations
type MeasurementRepository interface {
	// Save appends a measurement
	Save(ctx context.Context, m domain.Measurement) error

	// Latest returns the measurement with the greatest timestamp, or nil if none
	Latest(ctx context.Context) (*domain.Measurement, error)

	// AverageSince returns the mean temperature of measurements observed within
	// the last d, or nil if there are none
	AverageSince(ctx context.Context, d time.Duration) (*float64, error)
}

// HealthChecker is implemented by stores that can report connectivity.
type HealthChecker interface {
	Health(ctx context.Context) error
}
