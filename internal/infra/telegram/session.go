package telegram

import (
	"sync"

	"github.com/EdwarHercules/bots-telegram/internal/domain/meter"
	"github.com/EdwarHercules/bots-telegram/internal/domain/request"
)

// Step is the position of a chat inside a multi-message conversation.
type Step int

const (
	StepNone Step = iota
	StepAwaitingName
	StepAwaitingReportType
	StepAwaitingBrand
	StepAwaitingMeter
	StepAwaitingPlanInput
)

// Session holds the per-chat conversation state between messages. Values
// captured in earlier steps stay until the flow completes or is cancelled.
type Session struct {
	Step       Step
	ReportType request.ReportType
	Brand      meter.Brand
}

// SessionStore is an in-memory session map keyed by Telegram user ID. State
// is intentionally volatile: a restart drops every conversation back to the
// start, which a /cancelar also does.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*Session)}
}

// Get returns the session for the user, creating an idle one if absent.
func (s *SessionStore) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{}
		s.sessions[userID] = sess
	}
	return sess
}

// Update applies fn to the user's session under the store lock.
func (s *SessionStore) Update(userID int64, fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{}
		s.sessions[userID] = sess
	}
	fn(sess)
}

// Reset returns the user's conversation to the idle state.
func (s *SessionStore) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Snapshot returns a copy of the user's current session state.
func (s *SessionStore) Snapshot(userID int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return *sess
	}
	return Session{}
}
