package control

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/vietddude/weatherwatch/internal/health"
	"github.com/vietddude/weatherwatch/internal/infra/dataservice"
	"github.com/vietddude/weatherwatch/internal/infra/provider"
	"github.com/vietddude/weatherwatch/internal/infra/storage"
	"github.com/vietddude/weatherwatch/internal/infra/storage/postgres"
	"github.com/vietddude/weatherwatch/internal/ingest"
)

// LoaderConfig holds the ingestion process configuration.
type LoaderConfig struct {
	HealthPort int
	GRPCAddr   string
	Provider   provider.Config
	Schedule   ingest.Config
	Database   postgres.Config
}

// Loader runs the ingestion scheduler and serves the stored data over gRPC.
type Loader struct {
	cfg          LoaderConfig
	scheduler    *ingest.Scheduler
	provider     provider.Provider
	dataServer   *dataservice.Server
	healthMon    *health.Monitor
	healthServer *health.Server
	repo         storage.MeasurementRepository
	db           *postgres.DB
	dataAddr     string
	cancel       context.CancelFunc
	done         chan struct{}
	log          *slog.Logger
}

// NewLoader creates a Loader with all dependencies initialized.
func NewLoader(ctx context.Context, cfg LoaderConfig) (*Loader, error) {
	repo, db, err := openStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	p, err := provider.New(cfg.Provider)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}

	scheduler := ingest.NewScheduler(cfg.Schedule, p, repo)

	healthMon := health.NewMonitor(0,
		health.ProviderChecker(p),
		health.SchedulerChecker(scheduler),
	)
	if db != nil {
		healthMon.Register(health.PingChecker("database", db))
	}

	return &Loader{
		cfg:          cfg,
		scheduler:    scheduler,
		provider:     p,
		dataServer:   dataservice.NewServer(repo, slog.Default().With("component", "dataservice")),
		healthMon:    healthMon,
		healthServer: health.NewServer(healthMon, cfg.HealthPort),
		repo:         repo,
		db:           db,
		log:          slog.Default(),
	}, nil
}

// Start starts the data service, health server and scheduler. It returns
// once everything is listening.
func (l *Loader) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", l.cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", l.cfg.GRPCAddr, err)
	}
	l.dataAddr = lis.Addr().String()

	go func() {
		if err := l.dataServer.Serve(lis); err != nil {
			l.log.Error("Data service failed", "error", err)
		}
	}()

	go func() {
		if err := l.healthServer.Start(); err != nil {
			l.log.Error("Health server failed", "error", err)
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})

	if l.db != nil {
		l.db.StartMetricsCollector(runCtx)
	}

	go func() {
		defer close(l.done)
		l.scheduler.Start(runCtx)
	}()

	return nil
}

// DataAddr returns the address the data service listens on once started.
func (l *Loader) DataAddr() string {
	return l.dataAddr
}

// Scheduler exposes the scheduler for manual cycles.
func (l *Loader) Scheduler() *ingest.Scheduler {
	return l.scheduler
}

// Repository returns the measurement store in use.
func (l *Loader) Repository() storage.MeasurementRepository {
	return l.repo
}

// Stop stops the loader.
func (l *Loader) Stop(ctx context.Context) error {
	l.log.Info("Stopping Loader...")

	if l.cancel != nil {
		l.cancel()
		select {
		case <-l.done:
		case <-ctx.Done():
		}
	}

	l.dataServer.Stop()
	_ = l.provider.Close()

	if l.db != nil {
		if err := l.db.Close(); err != nil {
			l.log.Warn("Failed to close database", "error", err)
		}
	}

	return l.healthServer.Stop(ctx)
}
