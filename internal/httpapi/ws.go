package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/flexonb/mindhack/internal/protocol"
	"github.com/flexonb/mindhack/internal/session"
)

const (
	wsReadLimit    = 1 << 20
	wsIdleTimeout  = 120 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsQueueSize    = 64
)

// parseFailure carries a rejected frame from the reader to the worker so
// that error events go through the single outbound path.
type parseFailure struct {
	err error
}

func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		s.respondSessionError(w, err)
		return
	}
	if sess.Status.Terminal() {
		respondError(w, http.StatusConflict, "invalid_transition", "session is "+string(sess.Status))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.ObserveSessionEvent("ws_connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan any, wsQueueSize)
	outbound := make(chan any, wsQueueSize)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		defer cancel()
		defer close(outbound)
		s.runConnection(ctx, sessionID, inbound, outbound)
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		failed := false
		for msg := range outbound {
			if failed {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				s.logger.Debug("websocket write failed", zap.String("session_id", sessionID), zap.Error(err))
				failed = true
				cancel()
				_ = conn.Close()
				continue
			}
			if t, ok := messageTypeOf(msg); ok {
				s.metrics.ObserveWSMessage("outbound", string(t))
			}
		}
		if !failed {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		}
	}()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))

		var item any
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			item = parseFailure{err: err}
		} else {
			item = parsed
			if t, ok := messageTypeOf(parsed); ok {
				s.metrics.ObserveWSMessage("inbound", string(t))
			}
		}
		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- item:
		}
	}

	cancel()
	close(inbound)
	<-workerDone
	<-writerDone
	s.metrics.ObserveSessionEvent("ws_disconnected")
}

// runConnection processes inbound frames one at a time, so turns within a
// session never overlap. It returns after an end or cancel action.
func (s *Server) runConnection(ctx context.Context, sessionID string, inbound <-chan any, outbound chan<- any) {
	send := func(msg any) bool {
		select {
		case <-ctx.Done():
			return false
		case outbound <- msg:
			return true
		}
	}

	if !send(protocol.SystemEvent{Type: protocol.TypeSystemEvent, SessionID: sessionID, Code: "session_ready"}) {
		return
	}

	for {
		var item any
		var ok bool
		select {
		case <-ctx.Done():
			return
		case item, ok = <-inbound:
			if !ok {
				return
			}
		}

		switch msg := item.(type) {
		case parseFailure:
			send(errorEvent(sessionID, "invalid_client_message", msg.err))
		case protocol.ClientMessage:
			if msg.SessionID != sessionID {
				send(errorEvent(sessionID, "session_mismatch", errors.New("session_id does not match connection")))
				continue
			}
			res, sess, err := s.runTurn(ctx, sessionID, msg.Text)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				send(errorEvent(sessionID, turnErrorCode(err), err))
				continue
			}
			send(protocol.AssistantReply{
				Type:               protocol.TypeAssistantReply,
				SessionID:          sessionID,
				TurnID:             uuid.NewString(),
				Text:               res.Response,
				SuggestedResponses: res.SuggestedResponses,
				ScoreChange:        res.ScoreChange,
				Explanation:        res.Explanation,
				CrisisDetected:     res.CrisisDetected,
				CrisisSeverity:     string(res.CrisisSeverity),
				Status:             string(sess.Status),
				Degraded:           res.Degraded,
			})
		case protocol.ClientControl:
			if msg.SessionID != sessionID {
				send(errorEvent(sessionID, "session_mismatch", errors.New("session_id does not match connection")))
				continue
			}
			switch msg.Action {
			case protocol.ActionPing:
				send(protocol.SystemEvent{Type: protocol.TypeSystemEvent, SessionID: sessionID, Code: "pong"})
			case protocol.ActionEnd:
				sess, report, err := s.endSession(ctx, sessionID)
				if err != nil {
					send(errorEvent(sessionID, turnErrorCode(err), err))
					continue
				}
				send(protocol.SessionReport{
					Type:      protocol.TypeSessionReport,
					SessionID: sessionID,
					Status:    string(sess.Status),
					Report:    report,
				})
				return
			case protocol.ActionCancel:
				if _, err := s.sessions.Cancel(sessionID); err != nil {
					send(errorEvent(sessionID, turnErrorCode(err), err))
					continue
				}
				s.metrics.SetActiveSessions(s.sessions.ActiveCount())
				s.metrics.ObserveSessionEvent("cancelled")
				send(protocol.SystemEvent{
					Type:      protocol.TypeSystemEvent,
					SessionID: sessionID,
					Code:      "session_cancelled",
					Detail:    msg.Reason,
				})
				return
			}
		}
	}
}

func errorEvent(sessionID, code string, err error) protocol.ErrorEvent {
	return protocol.ErrorEvent{
		Type:      protocol.TypeErrorEvent,
		SessionID: sessionID,
		Code:      code,
		Source:    "gateway",
		Retryable: code == "store_unavailable",
		Detail:    err.Error(),
	}
}

func turnErrorCode(err error) string {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return "session_not_found"
	case errors.Is(err, session.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, errStore):
		return "store_unavailable"
	default:
		return "turn_failed"
	}
}

func messageTypeOf(msg any) (protocol.MessageType, bool) {
	switch m := msg.(type) {
	case protocol.ClientMessage:
		return m.Type, true
	case protocol.ClientControl:
		return m.Type, true
	case protocol.AssistantReply:
		return m.Type, true
	case protocol.SessionReport:
		return m.Type, true
	case protocol.SystemEvent:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
