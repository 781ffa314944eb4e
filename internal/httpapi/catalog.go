package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListPersonas(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"personas": s.engine.Catalog().Personas()})
}

func (s *Server) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	p, err := s.engine.Catalog().Persona(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "persona_not_found", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleListCompanions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"companions": s.engine.Catalog().CompanionListings()})
}

func (s *Server) handleGetCompanion(w http.ResponseWriter, r *http.Request) {
	c, err := s.engine.Catalog().Companion(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "companion_not_found", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, c.Listing())
}
