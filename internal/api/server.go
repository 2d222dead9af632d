// Package api is the HTTP boundary: it routes requests to the query facade
// and renders QueryResults as status codes and JSON bodies.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/weatherwatch/internal/health"
)

// Server exposes the weather API together with health and metrics endpoints.
type Server struct {
	router chi.Router
	server *http.Server
	log    *slog.Logger
}

// NewServer builds the router. monitor may be nil.
func NewServer(queries Querier, monitor *health.Monitor, port int) *Server {
	log := slog.Default().With("component", "api")

	router := chi.NewRouter()
	router.Use(requestID)
	router.Use(middleware.Recoverer)
	router.Use(instrument(log))

	registerRoutes(router, &handler{queries: queries})
	if monitor != nil {
		router.Get("/health", health.HandleHealth(monitor))
		router.Get("/health/detailed", health.HandleDetailed(monitor))
	}
	router.Handle("/metrics", promhttp.Handler())

	return &Server{
		router: router,
		log:    log,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// ServeHTTP allows Server to satisfy the http.Handler interface directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.log.Info("API listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
