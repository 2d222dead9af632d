package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server provides HTTP endpoints for health monitoring.
type Server struct {
	monitor *Monitor
	server  *http.Server
}

// NewServer creates a standalone health server for processes without an API.
func NewServer(monitor *Monitor, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		monitor: monitor,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", HandleHealth(monitor))
	mux.HandleFunc("/health/detailed", HandleDetailed(monitor))
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// HandleHealth reports the aggregate status. Critical answers 503.
func HandleHealth(m *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := m.CheckHealth(r.Context())

		response := map[string]string{"status": string(report.SystemStatus)}
		w.Header().Set("Content-Type", "application/json")

		if report.SystemStatus == StatusCritical {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(response)
	}
}

// HandleDetailed returns the full report.
func HandleDetailed(m *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := m.CheckHealth(r.Context())
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	}
}
