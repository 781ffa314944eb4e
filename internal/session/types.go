package session

import (
	"time"

	"github.com/flexonb/mindhack/internal/crisis"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusEscalated Status = "ESCALATED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Open reports whether the session still counts as live.
func (s Status) Open() bool {
	return s == StatusPending || s == StatusActive || s == StatusEscalated
}

// Recommend returns the status a session should move to after a user
// message produced finding. A critical finding escalates; anything else
// keeps the conversation active. Escalation is sticky and terminal states
// are returned unchanged. Recommend never touches storage.
func Recommend(current Status, finding crisis.Finding) Status {
	switch {
	case current.Terminal():
		return current
	case finding.Severity == crisis.SeverityCritical:
		return StatusEscalated
	case current == StatusEscalated:
		return StatusEscalated
	default:
		return StatusActive
	}
}

// CreateRequest defines payload for creating a new session.
type CreateRequest struct {
	UserID     string `json:"user_id"`
	Mode       string `json:"mode"`
	IdentityID string `json:"identity_id"`
}

// CreateResponse returns created session metadata.
type CreateResponse struct {
	SessionID       string    `json:"session_id"`
	UserID          string    `json:"user_id"`
	Status          Status    `json:"status"`
	Mode            string    `json:"mode"`
	IdentityID      string    `json:"identity_id"`
	OpeningMessage  string    `json:"opening_message"`
	StartedAt       time.Time `json:"started_at"`
	LastActivityAt  time.Time `json:"last_activity_at"`
	InactivityTTLMS int64     `json:"inactivity_ttl_ms"`
}
