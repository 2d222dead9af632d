package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/weatherwatch/internal/infra/dataservice"
	"github.com/vietddude/weatherwatch/internal/infra/provider"
	redisclient "github.com/vietddude/weatherwatch/internal/infra/redis"
	"github.com/vietddude/weatherwatch/internal/ingest"
	"github.com/vietddude/weatherwatch/internal/query"
)

// Default returns the configuration used for any key the file leaves out.
func Default() AppConfig {
	return AppConfig{
		Loader: LoaderConfig{
			HealthPort: 8081,
			GRPCAddr:   ":9090",
			Provider: provider.Config{
				Name:    "openweather",
				City:    "Buenos Aires",
				Timeout: 10 * time.Second,
			},
			Schedule: ingest.DefaultConfig(),
		},
		API: APIConfig{
			Port: 8080,
			DataService: dataservice.ClientConfig{
				Address: "localhost:9090",
				Timeout: 5 * time.Second,
			},
			Fallback: FallbackConfig{
				Enabled: true,
				Config: provider.Config{
					Name:    "weatherstack",
					Timeout: 10 * time.Second,
				},
			},
			Query: query.DefaultConfig(),
		},
		Redis: redisclient.Config{
			KeyPrefix: "weatherwatch:cache:",
			Retention: redisclient.DefaultRetention,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Explicit zeros in the file fall back to defaults.
	def := Default()
	if cfg.API.Port == 0 {
		cfg.API.Port = def.API.Port
	}
	if cfg.Loader.HealthPort == 0 {
		cfg.Loader.HealthPort = def.Loader.HealthPort
	}
	if cfg.Loader.Schedule.Interval == 0 {
		cfg.Loader.Schedule.Interval = def.Loader.Schedule.Interval
	}
	if cfg.Loader.Provider.Timeout == 0 {
		cfg.Loader.Provider.Timeout = def.Loader.Provider.Timeout
	}
	if cfg.API.Fallback.Timeout == 0 {
		cfg.API.Fallback.Timeout = def.API.Fallback.Timeout
	}
	if cfg.Redis.Retention == 0 {
		cfg.Redis.Retention = def.Redis.Retention
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.API.Fallback.City == "" {
		cfg.API.Fallback.City = cfg.Loader.Provider.City
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the processes cannot run with.
func (c *AppConfig) Validate() error {
	if c.Loader.Schedule.Interval < time.Second {
		return fmt.Errorf("loader.schedule.interval must be at least 1s, got %s", c.Loader.Schedule.Interval)
	}
	if c.API.DataService.Address == "" {
		return fmt.Errorf("api.data_service.address is required")
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	for name, op := range map[string]query.OperationConfig{
		"current":      c.API.Query.Current,
		"average_day":  c.API.Query.AverageDay,
		"average_week": c.API.Query.AverageWeek,
	} {
		if op.TTL < 0 {
			return fmt.Errorf("api.query.%s.ttl must not be negative", name)
		}
		if op.Retry.Delay < 0 {
			return fmt.Errorf("api.query.%s.retry.delay must not be negative", name)
		}
		if op.TTL > c.Redis.Retention {
			return fmt.Errorf("redis.retention %s is shorter than api.query.%s.ttl %s", c.Redis.Retention, name, op.TTL)
		}
	}
	return nil
}
