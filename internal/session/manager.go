// Package session tracks conversation lifecycles on behalf of the HTTP
// layer. The conversation engine only recommends statuses; this manager
// is where they are applied.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flexonb/mindhack/internal/catalog"
	"github.com/flexonb/mindhack/internal/crisis"
)

var (
	ErrNotFound          = errors.New("session not found")
	ErrInvalidTransition = errors.New("invalid session transition")
)

type Session struct {
	ID             string          `json:"session_id"`
	UserID         string          `json:"user_id"`
	Mode           catalog.Mode    `json:"mode"`
	IdentityID     string          `json:"identity_id"`
	Status         Status          `json:"status"`
	TurnCount      int             `json:"turn_count"`
	LastSeverity   crisis.Severity `json:"last_severity"`
	StartedAt      time.Time       `json:"started_at"`
	LastActivityAt time.Time       `json:"last_activity_at"`
	EndedAt        *time.Time      `json:"ended_at,omitempty"`
}

type Manager struct {
	mu                sync.RWMutex
	sessions          map[string]*Session
	turnLocks         map[string]chan struct{}
	inactivityTimeout time.Duration
	onExpire          func(*Session)
	now               func() time.Time
}

func NewManager(inactivityTimeout time.Duration) *Manager {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 30 * time.Minute
	}
	return &Manager{
		sessions:          make(map[string]*Session),
		turnLocks:         make(map[string]chan struct{}),
		inactivityTimeout: inactivityTimeout,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

func (m *Manager) InactivityTimeout() time.Duration { return m.inactivityTimeout }

func (m *Manager) SetExpireHook(hook func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

func (m *Manager) Create(userID string, mode catalog.Mode, identityID string) *Session {
	now := m.now()
	s := &Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		Mode:           mode,
		IdentityID:     identityID,
		Status:         StatusPending,
		LastSeverity:   crisis.SeverityNone,
		StartedAt:      now,
		LastActivityAt: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return clone(s)
}

func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

// LockTurn serializes work on one session's transcript. The returned
// function releases the lock. It waits until the lock is free or ctx ends.
func (m *Manager) LockTurn(ctx context.Context, sessionID string) (func(), error) {
	m.mu.Lock()
	if _, ok := m.sessions[sessionID]; !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	lock, ok := m.turnLocks[sessionID]
	if !ok {
		lock = make(chan struct{}, 1)
		m.turnLocks[sessionID] = lock
	}
	m.mu.Unlock()

	select {
	case lock <- struct{}{}:
		return func() { <-lock }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// BeginTurn checks that the session still accepts messages and refreshes
// its activity time.
func (m *Manager) BeginTurn(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if s.Status.Terminal() {
		return nil, fmt.Errorf("%w: session is %s", ErrInvalidTransition, s.Status)
	}
	s.LastActivityAt = m.now()
	return clone(s), nil
}

// ApplyTurn records a completed user turn and moves the session to the
// recommended status.
func (m *Manager) ApplyTurn(sessionID string, finding crisis.Finding) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if s.Status.Terminal() {
		return nil, fmt.Errorf("%w: session is %s", ErrInvalidTransition, s.Status)
	}
	s.Status = Recommend(s.Status, finding)
	s.TurnCount++
	s.LastSeverity = finding.Severity
	s.LastActivityAt = m.now()
	return clone(s), nil
}

func (m *Manager) Complete(sessionID string) (*Session, error) {
	return m.finish(sessionID, StatusCompleted)
}

func (m *Manager) Cancel(sessionID string) (*Session, error) {
	return m.finish(sessionID, StatusCancelled)
}

func (m *Manager) finish(sessionID string, to Status) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if s.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, to)
	}
	now := m.now()
	s.Status = to
	s.LastActivityAt = now
	s.EndedAt = &now
	return clone(s), nil
}

func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive()
			}
		}
	}()
}

// ActiveCount counts sessions that have not reached a terminal status.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, s := range m.sessions {
		if s.Status.Open() {
			count++
		}
	}
	return count
}

func (m *Manager) expireInactive() {
	now := m.now()
	var expired []*Session

	m.mu.Lock()
	for _, s := range m.sessions {
		if !s.Status.Open() {
			continue
		}
		if now.Sub(s.LastActivityAt) < m.inactivityTimeout {
			continue
		}
		s.Status = StatusCancelled
		s.LastActivityAt = now
		ended := now
		s.EndedAt = &ended
		expired = append(expired, clone(s))
	}
	hook := m.onExpire
	m.mu.Unlock()

	if hook != nil {
		for _, s := range expired {
			hook(s)
		}
	}
}

func clone(s *Session) *Session {
	c := *s
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	return &c
}
