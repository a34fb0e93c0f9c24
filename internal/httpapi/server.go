// Package httpapi exposes the operational HTTP surface: health, metrics,
// the last signal and the alert history.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/smartflow/internal/metrics"
	"github.com/sawpanic/smartflow/internal/pipeline"
)

// Server routes the read-only endpoints over the running pipeline.
type Server struct {
	router *mux.Router
	pipe   *pipeline.Pipeline
}

// NewServer builds the router. reg may be nil, which disables /metrics.
func NewServer(pipe *pipeline.Pipeline, reg *metrics.Registry) *Server {
	s := &Server{
		router: mux.NewRouter(),
		pipe:   pipe,
	}
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/signal", s.handleSignal).Methods(http.MethodGet)
	s.router.HandleFunc("/alerts", s.handleAlerts).Methods(http.MethodGet)
	if reg != nil {
		s.router.Handle("/metrics", reg.Handler()).Methods(http.MethodGet)
	}
	return s
}

// Router returns the handler for http.Server.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.pipe.Health())
}

func (s *Server) handleSignal(w http.ResponseWriter, _ *http.Request) {
	last, ok := s.pipe.Last()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no signal emitted yet"})
		return
	}
	writeJSON(w, http.StatusOK, last.Signal)
}

func (s *Server) handleAlerts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.pipe.Alerts())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode http response")
	}
}
