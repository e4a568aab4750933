// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/juryrank/pkg/logger"
)

const (
	defaultMaxLimit = 100
	maxBodyBytes    = 1 << 20
)

// Dependencies required by HTTP handlers. Each handler only sees the small
// interface it needs; the service satisfies all of them.
type Dependencies interface {
	ProjectDependencies
	JudgeDependencies
	CriterionDependencies
	ScoreDependencies
	RankingDependencies
	StatsProvider
	Pinger
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	projectsHandler *ProjectsHandler
	judgesHandler   *JudgesHandler
	criteriaHandler *CriteriaHandler
	scoresHandler   *ScoresHandler
	rankingsHandler *RankingsHandler
	maxResultsLimit int
}

// ServerOption configures NewServer.
type ServerOption func(*Server)

// WithMaxResultsLimit caps GET /rankings?limit.
func WithMaxResultsLimit(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxResultsLimit = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...ServerOption) *Server {
	s := &Server{maxResultsLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(deps)
	s.projectsHandler = NewProjectsHandler(deps)
	s.judgesHandler = NewJudgesHandler(deps)
	s.criteriaHandler = NewCriteriaHandler(deps)
	s.scoresHandler = NewScoresHandler(deps)
	s.rankingsHandler = NewRankingsHandler(deps, s.maxResultsLimit)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	handle := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, Instrument(h, endpoint))
	}

	handle("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	handle("GET /readyz", "readyz", s.healthHandler.HandleReady)
	handle("GET /stats", "stats", s.statsHandler.HandleStats)

	handle("GET /projects", "projects", s.projectsHandler.HandleList)
	handle("POST /projects", "projects", s.projectsHandler.HandleCreate)
	handle("GET /projects/{id}", "project", s.projectsHandler.HandleGet)
	handle("PUT /projects/{id}", "project", s.projectsHandler.HandleUpdate)
	handle("DELETE /projects/{id}", "project", s.projectsHandler.HandleDelete)

	handle("GET /judges", "judges", s.judgesHandler.HandleList)
	handle("POST /judges", "judges", s.judgesHandler.HandleCreate)
	handle("GET /judges/{id}", "judge", s.judgesHandler.HandleGet)
	handle("PUT /judges/{id}", "judge", s.judgesHandler.HandleUpdate)
	handle("DELETE /judges/{id}", "judge", s.judgesHandler.HandleDelete)
	handle("GET /judges/{id}/assignments", "assignments", s.judgesHandler.HandleAssignments)

	handle("GET /criteria", "criteria", s.criteriaHandler.HandleList)
	handle("POST /criteria", "criteria", s.criteriaHandler.HandleCreate)
	handle("GET /criteria/{id}", "criterion", s.criteriaHandler.HandleGet)
	handle("PUT /criteria/{id}", "criterion", s.criteriaHandler.HandleUpdate)
	handle("DELETE /criteria/{id}", "criterion", s.criteriaHandler.HandleDelete)

	handle("GET /scores", "scores", s.scoresHandler.HandleList)
	handle("POST /scores", "scores", s.scoresHandler.HandleSubmit)
	handle("PUT /scores/{id}", "score", s.scoresHandler.HandleUpsert)
	handle("DELETE /scores/{id}", "score", s.scoresHandler.HandleDelete)

	handle("GET /rankings", "rankings", s.rankingsHandler.HandleList)
	handle("GET /rankings/{project_id}", "project_rank", s.rankingsHandler.HandleGet)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError derives the status from err's kind and writes {code, message}.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Get().Named("api").Error(r.Context(), "request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

// decodeJSON reads exactly one JSON value from the body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("invalid JSON body: trailing data")
	}
	return nil
}

// readBody returns the raw body for handlers accepting several shapes.
func readBody(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return bytes.TrimSpace(b), nil
}
