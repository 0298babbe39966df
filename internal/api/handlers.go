package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/parcelscore/internal/model"
)

const maxBodyBytes = 1 << 20

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	s.writeJSON(w, status, apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	})
}

// respondFailure maps the error taxonomy onto HTTP statuses
func (s *Server) respondFailure(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		s.respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, model.ErrInvalidConfiguration):
		s.respondError(w, http.StatusUnprocessableEntity, "invalid_configuration", err.Error())
	case errors.Is(err, model.ErrPresetNotFound):
		s.respondError(w, http.StatusNotFound, "preset_not_found", err.Error())
	default:
		s.logger.Error("request failed", "action", action, "error", err, "path", r.URL.Path)
		s.respondError(w, http.StatusInternalServerError, "internal_error", "failed to "+action)
	}
}

// decodeBody reads a JSON body into v, reporting malformed input as a 400
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			s.respondError(w, http.StatusBadRequest, "invalid_request", "request body is empty")
			return false
		}
		s.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Scoring handlers

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	var req model.AggregationRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	resp, err := s.engine.AggregateWithNarrative(r.Context(), req)
	if err != nil {
		s.respondFailure(w, r, "aggregate", err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

type matchRequest struct {
	Property    model.PropertyCandidate   `json:"property"`
	Preferences *model.ScoringPreferences `json:"preferences,omitempty"`
	UserContext model.UserContext         `json:"userContext"`
}

type matchResponse struct {
	Success bool                `json:"success"`
	Score   model.PropertyScore `json:"score"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	prefs, err := s.resolvePreferences(r, req.Preferences, req.UserContext)
	if err != nil {
		s.respondFailure(w, r, "load preferences", err)
		return
	}

	score, err := s.engine.Match(req.Property, prefs, req.UserContext)
	if err != nil {
		s.respondFailure(w, r, "score property", err)
		return
	}

	s.writeJSON(w, http.StatusOK, matchResponse{Success: true, Score: score})
}

type rankRequest struct {
	Properties  []model.PropertyCandidate `json:"properties"`
	Preferences *model.ScoringPreferences `json:"preferences,omitempty"`
	UserContext model.UserContext         `json:"userContext"`
}

type rankResponse struct {
	Success bool                  `json:"success"`
	Scores  []model.PropertyScore `json:"scores"`
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	prefs, err := s.resolvePreferences(r, req.Preferences, req.UserContext)
	if err != nil {
		s.respondFailure(w, r, "load preferences", err)
		return
	}

	// Anonymous candidates get an id so callers can match results back
	for i := range req.Properties {
		if req.Properties[i].ID == "" {
			req.Properties[i].ID = uuid.NewString()
		}
	}

	scores, err := s.engine.Rank(req.Properties, prefs, req.UserContext)
	if err != nil {
		s.respondFailure(w, r, "rank properties", err)
		return
	}

	s.writeJSON(w, http.StatusOK, rankResponse{Success: true, Scores: scores})
}

// resolvePreferences uses inline preferences when given, otherwise the
// stored preferences of the requesting user
func (s *Server) resolvePreferences(r *http.Request, inline *model.ScoringPreferences, u model.UserContext) (model.ScoringPreferences, error) {
	if inline != nil {
		return *inline, nil
	}
	if u.UserID == "" {
		return model.ScoringPreferences{}, &model.ValidationError{
			Field:   "preferences",
			Message: "required when userContext.user_id is not set",
		}
	}
	if s.prefs == nil {
		return model.ScoringPreferences{}, fmt.Errorf("no preferences store configured")
	}
	return s.prefs.Get(r.Context(), u.UserID)
}
