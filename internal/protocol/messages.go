// Package protocol defines the JSON frames exchanged over the session
// websocket.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/flexonb/mindhack/internal/scoring"
	"github.com/flexonb/mindhack/internal/suggest"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeClientMessage  MessageType = "client_message"
	TypeClientControl  MessageType = "client_control"
	TypeAssistantReply MessageType = "assistant_reply"
	TypeSessionReport  MessageType = "session_report"
	TypeSystemEvent    MessageType = "system_event"
	TypeErrorEvent     MessageType = "error_event"
)

// Control actions accepted in client_control frames.
const (
	ActionEnd    = "end"
	ActionCancel = "cancel"
	ActionPing   = "ping"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

type ClientMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Text      string      `json:"text"`
	TSMs      int64       `json:"ts_ms,omitempty"`
}

type ClientControl struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Action    string      `json:"action"`
	Reason    string      `json:"reason,omitempty"`
}

type AssistantReply struct {
	Type               MessageType          `json:"type"`
	SessionID          string               `json:"session_id"`
	TurnID             string               `json:"turn_id"`
	Text               string               `json:"text"`
	SuggestedResponses []suggest.Suggestion `json:"suggested_responses"`
	ScoreChange        *int                 `json:"score_change,omitempty"`
	Explanation        string               `json:"explanation,omitempty"`
	CrisisDetected     bool                 `json:"crisis_detected"`
	CrisisSeverity     string               `json:"crisis_severity"`
	Status             string               `json:"status"`
	Degraded           bool                 `json:"degraded,omitempty"`
}

type SessionReport struct {
	Type      MessageType    `json:"type"`
	SessionID string         `json:"session_id"`
	Status    string         `json:"status"`
	Report    scoring.Report `json:"report"`
}

type SystemEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeClientMessage:
		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || strings.TrimSpace(msg.Text) == "" {
			return nil, errors.New("invalid client_message")
		}
		return msg, nil
	case TypeClientControl:
		var msg ClientControl
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		switch msg.Action {
		case ActionEnd, ActionCancel, ActionPing:
		default:
			return nil, fmt.Errorf("invalid client_control action %q", msg.Action)
		}
		if msg.SessionID == "" {
			return nil, errors.New("invalid client_control")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
