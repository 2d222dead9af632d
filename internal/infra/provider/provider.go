// Package provider implements the upstream weather data sources.
//
// This package contains:
//   - Provider interface: one upstream endpoint returning a Measurement
//   - BaseProvider: health tracking shared by all providers
//   - OpenWeatherProvider: primary source used by the ingestion job
//   - WeatherstackProvider: secondary source used as query fallback
package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vietddude/weatherwatch/internal/core/domain"
)

// Provider fetches the current observation from one upstream endpoint.
type Provider interface {
	// Name returns provider identifier (e.g., "openweather", "weatherstack")
	Name() string

	// Fetch performs a single request; callers decide whether to retry.
	Fetch(ctx context.Context) (domain.Measurement, error)

	// Health returns current health metrics
	Health() HealthStatus

	// Close releases idle connections.
	Close() error
}

// HealthStatus represents the health state of a provider.
type HealthStatus struct {
	Available     bool          `json:"available"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
	LastError     string        `json:"last_error,omitempty"`
}

// Config holds settings for an upstream provider.
type Config struct {
	Name    string        `yaml:"name"`
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	City    string        `yaml:"city"`
	Timeout time.Duration `yaml:"timeout"`
}

// New builds the provider named in cfg.
func New(cfg Config) (Provider, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	switch strings.ToLower(cfg.Name) {
	case "openweather", "":
		return NewOpenWeatherProvider(cfg), nil
	case "weatherstack":
		return NewWeatherstackProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}
