package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/flexonb/mindhack/internal/catalog"
	"github.com/flexonb/mindhack/internal/chat"
	"github.com/flexonb/mindhack/internal/crisis"
	"github.com/flexonb/mindhack/internal/lexicon"
	"github.com/flexonb/mindhack/internal/transcript"
)

type detectRequest struct {
	Text      string   `json:"text"`
	PersonaID string   `json:"persona_id"`
	Mode      string   `json:"mode"`
	Keywords  []string `json:"keywords"`
}

func (s *Server) handleDetectCrisis(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	keywords := req.Keywords
	if len(keywords) == 0 {
		switch {
		case strings.TrimSpace(req.PersonaID) != "":
			p, err := s.engine.Catalog().Persona(req.PersonaID)
			if err != nil {
				respondError(w, http.StatusNotFound, "persona_not_found", err.Error())
				return
			}
			keywords = p.CrisisKeywordsOrDefault()
		case strings.EqualFold(strings.TrimSpace(req.Mode), string(catalog.ModeSupport)):
			keywords = lexicon.SupportCrisisTerms
		default:
			keywords = lexicon.DefaultPersonaCrisisKeywords
		}
	}

	finding := crisis.Detect(req.Text, keywords)
	s.metrics.ObserveCrisis("detect", string(finding.Severity))
	respondJSON(w, http.StatusOK, finding)
}

type chatRequest struct {
	Mode              string            `json:"mode"`
	IdentityID        string            `json:"identity_id"`
	History           []transcript.Turn `json:"history"`
	Message           string            `json:"message"`
	IsInitialGreeting bool              `json:"is_initial_greeting"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	mode, err := catalog.ParseMode(req.Mode)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_mode", err.Error())
		return
	}
	identity, err := s.engine.Resolve(mode, req.IdentityID)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	res, err := s.engine.Chat(r.Context(), chat.Request{
		Identity:          identity,
		Mode:              mode,
		History:           req.History,
		UserMessage:       req.Message,
		IsInitialGreeting: req.IsInitialGreeting,
	})
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type scoreRequest struct {
	Transcript []transcript.Turn `json:"transcript"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := transcript.Validate(req.Transcript); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_transcript", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.engine.ScoreSession(req.Transcript))
}

func (s *Server) respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		respondError(w, http.StatusNotFound, "identity_not_found", err.Error())
	case errors.Is(err, chat.ErrInvalidRequest):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		s.logger.Error("chat request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
