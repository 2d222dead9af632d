package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestionRuns tracks ingestion cycles by result (success, failure)
	IngestionRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherwatch_ingestion_runs_total",
			Help: "Total number of ingestion cycles",
		},
		[]string{"provider", "result"},
	)

	// IngestionDuration tracks how long one ingestion cycle takes
	IngestionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherwatch_ingestion_duration_seconds",
			Help:    "Ingestion cycle duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// UpstreamCallsTotal tracks calls to upstream providers and the data service
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherwatch_upstream_calls_total",
			Help: "Total number of upstream calls",
		},
		[]string{"target", "operation"},
	)

	// UpstreamErrorsTotal tracks upstream call errors
	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherwatch_upstream_errors_total",
			Help: "Total number of upstream call errors",
		},
		[]string{"target", "operation"},
	)

	// BreakerState reports circuit state per breaker: 0 closed, 1 half-open, 2 open
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "weatherwatch_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half_open, 2=open)",
		},
		[]string{"breaker"},
	)

	// CacheLookups tracks cache hits and misses per operation
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherwatch_cache_lookups_total",
			Help: "Total number of cache lookups",
		},
		[]string{"operation", "result"},
	)

	// QueryOutcomes tracks query results by outcome and failure kind
	QueryOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherwatch_query_outcomes_total",
			Help: "Total number of queries by outcome",
		},
		[]string{"operation", "outcome", "kind"},
	)

	// FallbackCalls tracks fallback provider usage by result
	FallbackCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherwatch_fallback_calls_total",
			Help: "Total number of fallback provider calls",
		},
		[]string{"provider", "result"},
	)

	// HTTPRequests tracks API requests by route and status code
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherwatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPLatency tracks API request latency
	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherwatch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// CurrentTemperature is the last temperature served or ingested
	CurrentTemperature = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "weatherwatch_current_temperature_celsius",
		Help: "Latest observed temperature",
	})

	// CurrentHumidity is the last humidity served or ingested
	CurrentHumidity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "weatherwatch_current_humidity_percent",
		Help: "Latest observed relative humidity",
	})

	// CurrentPressure is the last pressure served or ingested
	CurrentPressure = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "weatherwatch_current_pressure_hpa",
		Help: "Latest observed pressure",
	})

	// LastObservation is the unix timestamp of the latest observation
	LastObservation = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "weatherwatch_last_observation_timestamp_seconds",
		Help: "Unix timestamp of the latest observation",
	})

	// AverageTemperature is the last rolling average served per window
	AverageTemperature = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "weatherwatch_average_temperature_celsius",
			Help: "Rolling average temperature per window",
		},
		[]string{"window"},
	)

	// DBConnectionPoolUsage is the percentage of open connections in the pool
	DBConnectionPoolUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "weatherwatch_db_connection_pool_usage_percent",
		Help: "Database connection pool usage",
	})
)
