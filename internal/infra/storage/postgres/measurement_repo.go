package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/weatherwatch/internal/core/domain"
)

const (
	insertMeasurement = `INSERT INTO measurements (source_id, observed_at, temperature, humidity, pressure)
VALUES (:source_id, :observed_at, :temperature, :humidity, :pressure)`

	selectLatest = `SELECT source_id, observed_at, temperature, humidity, pressure
FROM measurements ORDER BY observed_at DESC LIMIT 1`

	selectAverage = `SELECT AVG(temperature) FROM measurements WHERE observed_at >= $1`
)

// MeasurementRepo implements storage.MeasurementRepository using PostgreSQL.
type MeasurementRepo struct {
	db  *DB
	now func() time.Time
}

// NewMeasurementRepo creates a new PostgreSQL measurement repository.
func NewMeasurementRepo(db *DB) *MeasurementRepo {
	return &MeasurementRepo{db: db, now: time.Now}
}

// Save inserts a measurement.
func (r *MeasurementRepo) Save(ctx context.Context, m domain.Measurement) error {
	if _, err := r.db.NamedExecContext(ctx, insertMeasurement, m); err != nil {
		return fmt.Errorf("failed to save measurement: %w", err)
	}
	return nil
}

// Latest retrieves the most recent measurement.
func (r *MeasurementRepo) Latest(ctx context.Context) (*domain.Measurement, error) {
	var m domain.Measurement
	err := r.db.GetContext(ctx, &m, selectLatest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest measurement: %w", err)
	}
	return &m, nil
}

// AverageSince computes the mean temperature over the last d.
func (r *MeasurementRepo) AverageSince(ctx context.Context, d time.Duration) (*float64, error) {
	var avg sql.NullFloat64
	cutoff := r.now().Add(-d).Unix()
	if err := r.db.GetContext(ctx, &avg, selectAverage, cutoff); err != nil {
		return nil, fmt.Errorf("failed to average measurements: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}
