package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/flexonb/mindhack/internal/catalog"
	"github.com/flexonb/mindhack/internal/chat"
	"github.com/flexonb/mindhack/internal/memory"
	"github.com/flexonb/mindhack/internal/scoring"
	"github.com/flexonb/mindhack/internal/session"
	"github.com/flexonb/mindhack/internal/transcript"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req session.CreateRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = "anonymous"
	}
	mode, err := catalog.ParseMode(req.Mode)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_mode", err.Error())
		return
	}
	if strings.TrimSpace(req.IdentityID) == "" {
		respondError(w, http.StatusBadRequest, "missing_identity_id", "identity_id is required")
		return
	}
	identity, err := s.engine.Resolve(mode, req.IdentityID)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	greeting, err := s.engine.Chat(r.Context(), chat.Request{Identity: identity, Mode: mode, IsInitialGreeting: true})
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	sess := s.sessions.Create(req.UserID, mode, identity.IdentityID())
	if err := s.store.SaveTurn(r.Context(), memory.TurnRecord{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Role:      transcript.RoleAssistant,
		Content:   greeting.Response,
	}); err != nil {
		s.logger.Error("save opening turn failed", zap.String("session_id", sess.ID), zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "store_unavailable", "could not persist session")
		return
	}
	s.metrics.SetActiveSessions(s.sessions.ActiveCount())
	s.metrics.ObserveSessionEvent("created")

	respondJSON(w, http.StatusCreated, session.CreateResponse{
		SessionID:       sess.ID,
		UserID:          sess.UserID,
		Status:          sess.Status,
		Mode:            string(sess.Mode),
		IdentityID:      sess.IdentityID,
		OpeningMessage:  greeting.Response,
		StartedAt:       sess.StartedAt,
		LastActivityAt:  sess.LastActivityAt,
		InactivityTTLMS: s.sessions.InactivityTimeout().Milliseconds(),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

type messageRequest struct {
	Message string `json:"message"`
}

type messageResponse struct {
	chat.Result
	Status session.Status `json:"status"`
}

func (s *Server) handleSessionMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	res, sess, err := s.runTurn(r.Context(), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		s.respondTurnError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Result: res, Status: sess.Status})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.sessions.Get(id); err != nil {
		s.respondSessionError(w, err)
		return
	}
	records, err := s.store.Transcript(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
		return
	}
	if records == nil {
		records = []memory.TurnRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"session_id": id, "turns": records})
}

// handleDeleteTranscript drops the stored turns of a finished session.
func (s *Server) handleDeleteTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.Get(id)
	if err != nil {
		s.respondSessionError(w, err)
		return
	}
	if !sess.Status.Terminal() {
		respondError(w, http.StatusConflict, "session_active", "end or cancel the session before deleting its transcript")
		return
	}
	if err := s.store.DeleteSession(r.Context(), id); err != nil {
		respondError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
		return
	}
	s.logger.Info("transcript deleted", zap.String("session_id", id))
	w.WriteHeader(http.StatusNoContent)
}

type endResponse struct {
	Session *session.Session `json:"session"`
	Report  scoring.Report   `json:"report"`
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sess, report, err := s.endSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, endResponse{Session: sess, Report: report})
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Cancel(chi.URLParam(r, "id"))
	if err != nil {
		s.respondSessionError(w, err)
		return
	}
	s.metrics.SetActiveSessions(s.sessions.ActiveCount())
	s.metrics.ObserveSessionEvent("cancelled")
	respondJSON(w, http.StatusOK, sess)
}

// runTurn handles one user message inside a stored session: it replays the
// stored transcript as history, persists both sides of the exchange and
// applies the recommended status.
func (s *Server) runTurn(ctx context.Context, sessionID, message string) (chat.Result, *session.Session, error) {
	unlock, err := s.sessions.LockTurn(ctx, sessionID)
	if err != nil {
		return chat.Result{}, nil, err
	}
	defer unlock()

	sess, err := s.sessions.BeginTurn(sessionID)
	if err != nil {
		return chat.Result{}, nil, err
	}
	identity, err := s.engine.Resolve(sess.Mode, sess.IdentityID)
	if err != nil {
		return chat.Result{}, nil, err
	}
	records, err := s.store.Transcript(ctx, sessionID)
	if err != nil {
		return chat.Result{}, nil, fmt.Errorf("%w: %v", errStore, err)
	}

	res, err := s.engine.Chat(ctx, chat.Request{
		Identity:    identity,
		Mode:        sess.Mode,
		History:     memory.Turns(records),
		UserMessage: message,
	})
	if err != nil {
		return chat.Result{}, nil, err
	}

	for _, turn := range []memory.TurnRecord{
		{SessionID: sessionID, UserID: sess.UserID, Role: transcript.RoleUser, Content: message},
		{SessionID: sessionID, UserID: sess.UserID, Role: transcript.RoleAssistant, Content: res.Response},
	} {
		if err := s.store.SaveTurn(ctx, turn); err != nil {
			return chat.Result{}, nil, fmt.Errorf("%w: %v", errStore, err)
		}
	}

	updated, err := s.sessions.ApplyTurn(sessionID, res.Finding)
	if err != nil {
		return chat.Result{}, nil, err
	}
	if updated.Status == session.StatusEscalated && sess.Status != session.StatusEscalated {
		s.metrics.ObserveSessionEvent("escalated")
		s.logger.Warn("session escalated",
			zap.String("session_id", sessionID),
			zap.String("severity", string(res.CrisisSeverity)))
	}
	res.RecommendedStatus = updated.Status
	return res, updated, nil
}

func (s *Server) endSession(ctx context.Context, sessionID string) (*session.Session, scoring.Report, error) {
	unlock, err := s.sessions.LockTurn(ctx, sessionID)
	if err != nil {
		return nil, scoring.Report{}, err
	}
	defer unlock()

	current, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, scoring.Report{}, err
	}
	if current.Status.Terminal() {
		return nil, scoring.Report{}, fmt.Errorf("%w: session is %s", session.ErrInvalidTransition, current.Status)
	}

	// The report is built before the transition so a store failure leaves
	// the session open for another attempt.
	records, err := s.store.Transcript(ctx, sessionID)
	if err != nil {
		return nil, scoring.Report{}, fmt.Errorf("%w: %v", errStore, err)
	}
	report := s.engine.ScoreSession(memory.Turns(records))

	sess, err := s.sessions.Complete(sessionID)
	if err != nil {
		return nil, scoring.Report{}, err
	}
	s.metrics.SetActiveSessions(s.sessions.ActiveCount())
	s.metrics.ObserveSessionEvent("completed")
	s.logger.Info("session completed",
		zap.String("session_id", sessionID),
		zap.Int("turns", len(records)),
		zap.Float64("overall", report.Overall))
	return sess, report, nil
}

var errStore = errors.New("transcript store unavailable")

func (s *Server) respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, session.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, errStore):
		respondError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
	default:
		s.respondEngineError(w, err)
	}
}

func (s *Server) respondTurnError(w http.ResponseWriter, err error) {
	s.respondSessionError(w, err)
}
