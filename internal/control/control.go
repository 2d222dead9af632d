// Package control wires the components of each process and owns their
// lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/weatherwatch/internal/infra/storage"
	"github.com/vietddude/weatherwatch/internal/infra/storage/memory"
	"github.com/vietddude/weatherwatch/internal/infra/storage/postgres"
)

// openStore connects to PostgreSQL and migrates it when a URL is configured,
// and falls back to in-process memory otherwise.
func openStore(ctx context.Context, cfg postgres.Config) (storage.MeasurementRepository, *postgres.DB, error) {
	if cfg.URL == "" {
		slog.Info("Using Memory storage")
		return memory.NewMeasurementRepo(), nil, nil
	}

	db, err := postgres.NewDB(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init db: %w", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	slog.Info("Using PostgreSQL storage")
	return postgres.NewMeasurementRepo(db), db, nil
}
