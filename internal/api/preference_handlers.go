package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ppiankov/parcelscore/internal/model"
)

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"presets": s.prefs.Catalog().List(),
	})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.prefs.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.respondFailure(w, r, "load preferences", err)
		return
	}

	s.respondJSON(w, http.StatusOK, prefs)
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs model.ScoringPreferences
	if !s.decodeBody(w, r, &prefs) {
		return
	}

	userID := chi.URLParam(r, "userID")
	if prefs.UserID != "" && prefs.UserID != userID {
		s.respondError(w, http.StatusBadRequest, "validation_error", "user_id does not match path")
		return
	}
	prefs.UserID = userID

	saved, err := s.prefs.Put(r.Context(), prefs)
	if err != nil {
		s.respondFailure(w, r, "save preferences", err)
		return
	}

	s.respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeletePreferences(w http.ResponseWriter, r *http.Request) {
	if err := s.prefs.Delete(r.Context(), chi.URLParam(r, "userID")); err != nil {
		s.respondFailure(w, r, "delete preferences", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.prefs.ApplyPreset(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "name"))
	if err != nil {
		s.respondFailure(w, r, "apply preset", err)
		return
	}

	s.respondJSON(w, http.StatusOK, prefs)
}
