package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"newsgraph/internal/citations"
	"newsgraph/internal/core"
	"newsgraph/internal/pipeline"
	"newsgraph/internal/store"
)

// HealthResponse is returned by /health
type HealthResponse struct {
	Status string `json:"status"`
}

// AnswerRequest starts a run
type AnswerRequest struct {
	Topic       string `json:"topic"`
	RefineQuery string `json:"refine_query,omitempty"`
}

// RefineRequest asks a follow-up question on a finished run
type RefineRequest struct {
	Query string `json:"query"`
}

// CitationsResponse lists the sources an answer cites
type CitationsResponse struct {
	RunID     string               `json:"run_id"`
	Citations []citations.Citation `json:"citations"`
	Unknown   []string             `json:"unknown,omitempty"`
}

// ErrorResponse carries a failure message
type ErrorResponse struct {
	Error string `json:"error"`
}

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleCreateAnswer runs the workflow synchronously and returns the final state
func (s *Server) handleCreateAnswer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !s.decode(w, r, &req) {
		return
	}

	state, err := s.runner.Run(r.Context(), req.Topic, req.RefineQuery)
	s.respondState(w, state, err, http.StatusCreated)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	state, err := s.runner.Get(r.Context(), chi.URLParam(r, "id"))
	s.respondState(w, state, err, http.StatusOK)
}

func (s *Server) handleGetCitations(w http.ResponseWriter, r *http.Request) {
	state, err := s.runner.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondState(w, nil, err, http.StatusOK)
		return
	}

	resolved, unknown := citations.Resolve(citations.Extract(state.Answer), state.Clusters)
	if resolved == nil {
		resolved = []citations.Citation{}
	}
	s.respondJSON(w, http.StatusOK, CitationsResponse{RunID: state.ID, Citations: resolved, Unknown: unknown})
}

func (s *Server) handleRefineRun(w http.ResponseWriter, r *http.Request) {
	var req RefineRequest
	if !s.decode(w, r, &req) {
		return
	}

	state, err := s.runner.Refine(r.Context(), chi.URLParam(r, "id"), req.Query)
	s.respondState(w, state, err, http.StatusOK)
}

func (s *Server) handleResumeRun(w http.ResponseWriter, r *http.Request) {
	state, err := s.runner.Resume(r.Context(), chi.URLParam(r, "id"))
	s.respondState(w, state, err, http.StatusOK)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) respondState(w http.ResponseWriter, state *core.RunState, err error, okStatus int) {
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.log.Error("Run request failed", "error", err)
		}
		s.respondError(w, status, err.Error())
		return
	}
	s.respondJSON(w, okStatus, state)
}

// statusFor maps pipeline and store errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrMissingTopic), errors.Is(err, pipeline.ErrMissingQuery):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrRefineLimit), errors.Is(err, pipeline.ErrRunNotFinished):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Failed to encode JSON response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: strings.TrimSpace(message)})
}
