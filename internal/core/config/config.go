package config

import (
	"github.com/vietddude/weatherwatch/internal/infra/dataservice"
	"github.com/vietddude/weatherwatch/internal/infra/provider"
	redisclient "github.com/vietddude/weatherwatch/internal/infra/redis"
	"github.com/vietddude/weatherwatch/internal/infra/storage/postgres"
	"github.com/vietddude/weatherwatch/internal/ingest"
	"github.com/vietddude/weatherwatch/internal/query"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Loader   LoaderConfig       `yaml:"loader"`
	API      APIConfig          `yaml:"api"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// LoaderConfig holds settings for the ingestion process.
type LoaderConfig struct {
	HealthPort int             `yaml:"health_port"`
	GRPCAddr   string          `yaml:"grpc_addr"` // data service listen address
	Provider   provider.Config `yaml:"provider"`
	Schedule   ingest.Config   `yaml:"schedule"`
}

// APIConfig holds settings for the query process.
type APIConfig struct {
	Port        int                      `yaml:"port"`
	DataService dataservice.ClientConfig `yaml:"data_service"`
	Fallback    FallbackConfig           `yaml:"fallback"`
	Query       query.Config             `yaml:"query"`
}

// FallbackConfig selects the secondary provider used while the primary
// query path is open-circuited.
type FallbackConfig struct {
	Enabled         bool `yaml:"enabled"`
	provider.Config `yaml:",inline"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
