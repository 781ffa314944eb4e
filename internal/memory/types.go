// Package memory persists conversation transcripts for stored sessions.
package memory

import (
	"context"
	"time"

	"github.com/flexonb/mindhack/internal/transcript"
)

// TurnRecord stores a single user or assistant conversational turn.
type TurnRecord struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id"`
	UserID      string          `json:"user_id"`
	Role        transcript.Role `json:"role"`
	Content     string          `json:"content"`
	PIIRedacted bool            `json:"pii_redacted"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Store persists transcripts. Transcript returns turns in the order they
// were saved; an unknown session yields an empty transcript.
type Store interface {
	SaveTurn(ctx context.Context, record TurnRecord) error
	Transcript(ctx context.Context, sessionID string) ([]TurnRecord, error)
	DeleteSession(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
	Close() error
}

// Turns drops the storage metadata.
func Turns(records []TurnRecord) []transcript.Turn {
	out := make([]transcript.Turn, 0, len(records))
	for _, r := range records {
		out = append(out, transcript.Turn{Role: r.Role, Content: r.Content})
	}
	return out
}
