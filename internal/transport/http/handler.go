// Package httptransport serves the run's health and metrics over HTTP.
package httptransport

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pizzeria/internal/middleware"
)

// Run states reported by /healthz.
const (
	StateRunning  = "running"
	StateFinished = "finished"
	StateFailed   = "failed"
)

type inFlight interface {
	Running() int64
	Peak() int64
	Started() int64
}

// ErrorPayload describes why a run failed.
type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status   string        `json:"status"`
	RunID    string        `json:"run_id,omitempty"`
	InFlight int64         `json:"in_flight"`
	Peak     int64         `json:"peak"`
	Started  int64         `json:"started"`
	Error    *ErrorPayload `json:"error,omitempty"`
}

// Handler answers health and metrics requests for one run.
type Handler struct {
	runID    string
	tracker  inFlight
	gatherer prometheus.Gatherer

	mu     sync.Mutex
	done   bool
	runErr error
}

// New returns a Handler for the run identified by runID.
//
// It panics if tracker or gatherer is nil.
func New(runID string, tracker inFlight, gatherer prometheus.Gatherer) *Handler {
	if tracker == nil {
		panic("httptransport.New: nil tracker")
	}
	if gatherer == nil {
		panic("httptransport.New: nil gatherer")
	}
	return &Handler{runID: runID, tracker: tracker, gatherer: gatherer}
}

// Finish marks the run as over, with err if it failed.
func (h *Handler) Finish(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.done = true
	h.runErr = err
}

// Routes returns the endpoints wrapped in request logging.
func (h *Handler) Routes(log *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	return middleware.Logging(log)(mux)
}

// HandleHealth reports the run's state and in-flight orders.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	done, runErr := h.done, h.runErr
	h.mu.Unlock()

	resp := HealthResponse{
		Status:   StateRunning,
		RunID:    h.runID,
		InFlight: h.tracker.Running(),
		Peak:     h.tracker.Peak(),
		Started:  h.tracker.Started(),
	}
	if done {
		resp.Status = StateFinished
	}
	if runErr != nil {
		resp.Status = StateFailed
		resp.Error = &ErrorPayload{
			Kind:    errorKind(runErr),
			Message: runErr.Error(),
		}
	}

	writeJSON(w, httpStatus(runErr), resp)
}

// writeJSON writes v as a JSON response with the given status code.
// The Content-Type is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
