package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vietddude/weatherwatch/internal/core/domain"
)

// Querier is the read side consumed by the handlers.
type Querier interface {
	Current(ctx context.Context) domain.QueryResult
	AverageOver(ctx context.Context, w domain.Window) domain.QueryResult
}

type handler struct {
	queries Querier
}

type currentResponse struct {
	SourceID    string  `json:"source_id,omitempty"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
	Timestamp   int64   `json:"timestamp"`
	Datetime    string  `json:"datetime"`
	Source      string  `json:"source"`
}

type averageResponse struct {
	Window  string  `json:"window"`
	Average float64 `json:"average"`
	Source  string  `json:"source"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func registerRoutes(router chi.Router, h *handler) {
	router.Get("/weather/current", h.handleCurrent)
	router.Get("/weather/average/{window}", h.handleAverage)
}

func (h *handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	res := h.queries.Current(r.Context())
	if !res.OK() || res.Measurement == nil {
		h.writeResult(w, res)
		return
	}

	m := res.Measurement
	if res.Source == domain.SourceFallback {
		w.Header().Set("X-Data-Source", string(domain.SourceFallback))
	}
	h.writeJSON(w, StatusFor(res), currentResponse{
		SourceID:    m.SourceID,
		Temperature: m.Temperature,
		Humidity:    m.Humidity,
		Pressure:    m.Pressure,
		Timestamp:   m.Timestamp,
		Datetime:    m.Time().Format(time.RFC3339),
		Source:      string(res.Source),
	})
}

func (h *handler) handleAverage(w http.ResponseWriter, r *http.Request) {
	window := domain.Window(chi.URLParam(r, "window"))
	if !window.Valid() {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: errorBody{
			Kind:    "invalid_request",
			Message: "window must be one of: day, week",
		}})
		return
	}

	res := h.queries.AverageOver(r.Context(), window)
	if !res.OK() || res.Average == nil {
		h.writeResult(w, res)
		return
	}

	h.writeJSON(w, StatusFor(res), averageResponse{
		Window:  string(window),
		Average: *res.Average,
		Source:  string(res.Source),
	})
}

// writeResult renders a failed result. Internal error text never leaves
// the process.
func (h *handler) writeResult(w http.ResponseWriter, res domain.QueryResult) {
	kind := res.Kind
	if kind == domain.KindNone {
		kind = domain.KindInternal
	}
	h.writeJSON(w, StatusFor(res), errorResponse{Error: errorBody{
		Kind:    string(kind),
		Message: messageFor(kind),
	}})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
