package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/weatherwatch/internal/api"
	"github.com/vietddude/weatherwatch/internal/health"
	"github.com/vietddude/weatherwatch/internal/infra/dataservice"
	"github.com/vietddude/weatherwatch/internal/infra/provider"
	redisclient "github.com/vietddude/weatherwatch/internal/infra/redis"
	"github.com/vietddude/weatherwatch/internal/metrics"
	"github.com/vietddude/weatherwatch/internal/query"
	"github.com/vietddude/weatherwatch/internal/resilience/cache"
)

// APIConfig holds the query process configuration.
type APIConfig struct {
	Port            int
	DataService     dataservice.ClientConfig
	FallbackEnabled bool
	Fallback        provider.Config
	Query           query.Config
	Redis           redisclient.Config
}

// API serves weather queries over HTTP.
type API struct {
	cfg         APIConfig
	client      *dataservice.Client
	facade      *query.Facade
	server      *api.Server
	healthMon   *health.Monitor
	redisClient *redisclient.Client
	fallback    provider.Provider
	log         *slog.Logger
}

// NewAPI creates an API with all dependencies initialized.
func NewAPI(cfg APIConfig) (*API, error) {
	client, err := dataservice.NewClient(cfg.DataService)
	if err != nil {
		return nil, fmt.Errorf("failed to init data service client: %w", err)
	}

	healthMon := health.NewMonitor(0)

	var backend cache.Backend = cache.NewMemoryBackend()
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis, using in-process cache", "error", err)
		} else {
			backend = redisclient.NewCacheBackend(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.Retention)
			healthMon.Register(health.PingChecker("redis", redisClient))
			slog.Info("Using Redis query cache")
		}
	}

	queryCache := cache.New(backend,
		cache.WithObserver(
			func(key string) { metrics.CacheLookups.WithLabelValues(key, "hit").Inc() },
			func(key string) { metrics.CacheLookups.WithLabelValues(key, "miss").Inc() },
		),
	)

	var fallback query.Fallback
	var fallbackProvider provider.Provider
	if cfg.FallbackEnabled {
		p, err := provider.New(cfg.Fallback)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to init fallback provider: %w", err)
		}
		fallback = query.NewFallback(p)
		fallbackProvider = p
		healthMon.Register(health.ProviderChecker(p))
	}

	facade := query.NewFacade(client, fallback, queryCache, cfg.Query,
		query.WithRetryable(dataservice.IsRetryable),
	)
	healthMon.Register(health.BreakerChecker(facade))

	return &API{
		cfg:         cfg,
		client:      client,
		facade:      facade,
		server:      api.NewServer(facade, healthMon, cfg.Port),
		healthMon:   healthMon,
		redisClient: redisClient,
		fallback:    fallbackProvider,
		log:         slog.Default(),
	}, nil
}

// Start serves HTTP in the background.
func (a *API) Start(ctx context.Context) error {
	go func() {
		if err := a.server.Start(); err != nil {
			a.log.Error("API server failed", "error", err)
		}
	}()
	return nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (a *API) Handler() http.Handler {
	return a.server
}

// Stop drains HTTP requests and releases connections.
func (a *API) Stop(ctx context.Context) error {
	a.log.Info("Stopping API...")

	err := a.server.Stop(ctx)

	if a.redisClient != nil {
		if cerr := a.redisClient.Close(); cerr != nil {
			a.log.Warn("Failed to close Redis", "error", cerr)
		}
	}
	if a.fallback != nil {
		_ = a.fallback.Close()
	}
	if cerr := a.client.Close(); cerr != nil {
		a.log.Warn("Failed to close data service client", "error", cerr)
	}
	return err
}
