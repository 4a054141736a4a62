// Package http exposes the controller over a small JSON API: status
// snapshots, run-by-name, abort, reset, protocol listing, and Prometheus
// metrics. Runs started here execute in the background; clients poll
// /status or watch the metrics for completion.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/optolab/ivctl/pkg/domain"
)

// Controller is the slice of the facade the HTTP surface needs.
type Controller interface {
	RunAsync(ctx context.Context, name string, params map[string]any) (<-chan domain.ExecutionResult, error)
	Abort() error
	Reset()
	Status() domain.RunSnapshot
	Protocols() ([]string, error)
	ReloadProtocols()
}

// Server handles the JSON API.
type Server struct {
	ctrl    Controller
	logger  *slog.Logger
	metrics *Metrics
}

// NewHandler builds the router. Metrics live on a private registry so
// multiple handlers can coexist in one process.
func NewHandler(ctrl Controller, logger *slog.Logger) http.Handler {
	reg := prometheus.NewRegistry()
	s := &Server{ctrl: ctrl, logger: logger, metrics: NewMetrics(reg)}

	r := chi.NewRouter()
	r.Get("/status", s.getStatus)
	r.Get("/protocols", s.listProtocols)
	r.Post("/protocols/reload", s.reloadProtocols)
	r.Post("/run/{name}", s.startRun)
	r.Post("/abort", s.abort)
	r.Post("/reset", s.reset)
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return r
}

type runRequest struct {
	Params map[string]any `json:"params"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) listProtocols(w http.ResponseWriter, r *http.Request) {
	names, err := s.ctrl.Protocols()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"protocols": names})
}

func (s *Server) reloadProtocols(w http.ResponseWriter, r *http.Request) {
	s.ctrl.ReloadProtocols()
	s.listProtocols(w, r)
}

func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var body runRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
	}

	// The run outlives this request, so it gets its own context.
	done, err := s.ctrl.RunAsync(context.Background(), name, body.Params)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.runsStarted.WithLabelValues(name).Inc()
	started := time.Now()
	go func() {
		result := <-done
		outcome := "success"
		switch {
		case result.Aborted:
			outcome = "aborted"
		case !result.Success:
			outcome = "error"
		}
		s.metrics.runFinished(outcome, time.Since(started).Seconds())
		s.logger.Info("background run finished", "name", name, "outcome", outcome)
	}()

	s.writeJSON(w, http.StatusAccepted, s.ctrl.Status())
}

func (s *Server) abort(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Abort(); err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.abortsTotal.Inc()
	s.writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Reset()
	s.writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var stateErr *domain.StateError
	var notFound *domain.NotFoundError
	var valErr *domain.ValidationError
	switch {
	case errors.As(err, &stateErr):
		status = http.StatusConflict
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &valErr):
		status = http.StatusUnprocessableEntity
	}
	s.logger.Warn("request failed", "status", status, "err", err)
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}
