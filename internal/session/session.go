// Package session holds per-panel working state and the orchestrator
// that turns operator utterances into approved, executed document edits.
package session

import (
	"sync"
	"time"

	"github.com/witxhhaven/fig-design-assistant/internal/convo"
	"github.com/witxhhaven/fig-design-assistant/pkg/document"
)

// PendingScript is the model's proposed action held between proposal and
// operator confirmation. At most one exists per session at a time.
type PendingScript struct {
	Summary  string   `json:"summary"`
	Code     string   `json:"code"`
	Warnings []string `json:"warnings"`
}

// Session is the working state of one connected panel: its conversation,
// focus tracking, pending proposal, and the live document host behind
// the connection. All state is exclusively owned by one panel; there is
// no cross-session sharing.
type Session struct {
	ID        string
	Host      document.Host
	CreatedAt time.Time

	store *convo.Store
	focus convo.FocusTracker

	mu         sync.Mutex
	pending    *PendingScript
	lastActive time.Time

	// cancelInflight aborts the in-flight model request, if any.
	cancelInflight func()
}

func newSession(id string, host document.Host, maxTurns int) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Host:       host,
		CreatedAt:  now,
		lastActive: now,
		store:      convo.NewStore(maxTurns),
	}
}

// History returns an ordered copy of the conversation turns.
func (s *Session) History() []convo.Turn {
	return s.store.Turns()
}

// Reset clears the conversation and any pending proposal.
func (s *Session) Reset() {
	s.store.Clear()
	s.focus.Reset()
	s.clearPending()
}

// UpdateFocus records a change of the operator's structural focus. When
// the focus moves from one specific target to a different specific
// target the conversation is invalidated; a merely cleared focus keeps
// history (ambiguity resolved in favor of continuity).
func (s *Session) UpdateFocus(ids []string) {
	if s.focus.ShouldReset(ids) {
		s.store.Clear()
	}
}

// Pending returns the current pending proposal, or nil.
func (s *Session) Pending() *PendingScript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// takePending consumes and returns the pending proposal, or nil.
func (s *Session) takePending() *PendingScript {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending
	s.pending = nil
	return p
}

// setPending installs a pending proposal, replacing any previous one.
func (s *Session) setPending(p *PendingScript) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = p
}

func (s *Session) clearPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

func (s *Session) setCancel(cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelInflight = cancel
}

// AbortInflight cancels the in-flight model request, if any. It never
// touches the document: no mutation occurs before confirmation.
func (s *Session) AbortInflight() {
	s.mu.Lock()
	cancel := s.cancelInflight
	s.cancelInflight = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// LastActive returns when the session last handled a panel message.
// touch() runs on per-message handler goroutines while the idle sweep
// reads from the cron goroutine, so both sides take the lock.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}
