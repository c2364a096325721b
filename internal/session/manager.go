package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/witxhhaven/fig-design-assistant/internal/convo"
	"github.com/witxhhaven/fig-design-assistant/internal/provider"
	"github.com/witxhhaven/fig-design-assistant/internal/scene"
	"github.com/witxhhaven/fig-design-assistant/internal/script"
	"github.com/witxhhaven/fig-design-assistant/pkg/document"
)

// defaultMaxTokens bounds the model's response length per request.
const defaultMaxTokens = 4096

// Manager owns all live sessions and drives the utterance → proposal →
// confirmation cycle for each of them.
type Manager struct {
	provider provider.Provider
	settings SettingsStore
	journal  script.Journal
	logger   *slog.Logger

	maxTurns  int
	maxTokens int

	mu       sync.RWMutex
	sessions map[string]*Session
}

// ManagerConfig carries the tunable knobs of a Manager. Zero values fall
// back to defaults.
type ManagerConfig struct {
	MaxTurns  int
	MaxTokens int
}

// NewManager creates a Manager. journal may be nil.
func NewManager(p provider.Provider, settings SettingsStore, journal script.Journal, logger *slog.Logger, cfg ManagerConfig) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = convo.DefaultMaxTurns
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &Manager{
		provider:  p,
		settings:  settings,
		journal:   journal,
		logger:    logger,
		maxTurns:  cfg.MaxTurns,
		maxTokens: cfg.MaxTokens,
		sessions:  make(map[string]*Session),
	}
}

// Settings exposes the persistent settings store for the panel surface.
func (m *Manager) Settings() SettingsStore {
	return m.settings
}

// Open creates and registers a session for one panel connection. An
// existing session under the same id is replaced.
func (m *Manager) Open(id string, host document.Host) *Session {
	s := newSession(id, host, m.maxTurns)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Info("session opened", "session", id)
	return s
}

// Get returns the session registered under id, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Close removes the session and aborts any in-flight model request.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if s != nil {
		s.AbortInflight()
		m.logger.Info("session closed", "session", id)
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// PruneIdle closes every session idle longer than maxIdle and returns
// how many were removed.
func (m *Manager) PruneIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.AbortInflight()
		m.logger.Info("idle session pruned", "session", s.ID)
	}
	return len(stale)
}

// HandleUtterance runs the full request cycle for one operator message:
// settings check, scene-context build, model call, proposal parse (with
// a single re-ask on a malformed reply). It never mutates the document.
func (m *Manager) HandleUtterance(ctx context.Context, s *Session, text string, attachments ...convo.ContentBlock) Outcome {
	s.touch()

	st, err := m.settings.Load(ctx)
	if err != nil {
		m.logger.Error("settings load failed", "session", s.ID, "error", err)
		return Outcome{Kind: OutcomeError, Message: "Could not read assistant settings."}
	}
	if st.Credential == "" {
		return Outcome{
			Kind:    OutcomeSettingsRequired,
			Message: "No API key is configured yet.",
			Hint:    provider.RemediationHint(provider.ErrNoCredential),
		}
	}

	sc, err := scene.NewBuilder(s.Host, nil, m.logger).Build(ctx)
	if err != nil {
		m.logger.Error("scene build failed", "session", s.ID, "error", err)
		return Outcome{Kind: OutcomeError, Message: "Could not read the current document state."}
	}

	ctxJSON, err := json.Marshal(sc)
	if err != nil {
		return Outcome{Kind: OutcomeError, Message: "Could not encode the current document state."}
	}

	blocks := append([]convo.ContentBlock{convo.NewTextBlock(text)}, attachments...)
	s.store.AddUserTurn(blocks...)

	reqCtx, cancel := context.WithCancel(ctx)
	s.setCancel(cancel)
	defer func() {
		cancel()
		s.setCancel(nil)
	}()

	req := provider.Request{
		System:    systemPrompt(st),
		Context:   string(ctxJSON),
		History:   s.store.Turns(),
		Model:     st.Model,
		MaxTokens: m.maxTokens,
	}

	raw, err := m.provider.Complete(reqCtx, req)
	if err != nil {
		return m.completionError(s, err)
	}

	p, err := provider.ParseProposal(raw)
	if errors.Is(err, provider.ErrMalformedResponse) {
		p, err = m.reask(reqCtx, req, raw)
	}
	if err != nil {
		if errors.Is(err, provider.ErrMalformedResponse) {
			m.logger.Warn("model reply unusable after re-ask", "session", s.ID)
			return Outcome{Kind: OutcomeError, Message: "The model did not return a usable answer. Try rephrasing your request."}
		}
		return m.completionError(s, err)
	}

	if p.IsScript() {
		pending := &PendingScript{Summary: p.Summary, Code: p.Code, Warnings: p.Warnings}
		s.setPending(pending)
		s.store.AddAssistantTurn(p.Summary)
		return Outcome{Kind: OutcomeProposal, Proposal: pending}
	}

	s.store.AddAssistantTurn(p.Message)
	kind := OutcomeReply
	if strings.HasSuffix(strings.TrimSpace(p.Message), "?") {
		kind = OutcomeClarification
	}
	return Outcome{Kind: kind, Message: p.Message}
}

// reask gives the model exactly one chance to repair a malformed reply.
// The corrective exchange is transient: it rides on the request history
// but is never written to the session's store.
func (m *Manager) reask(ctx context.Context, req provider.Request, raw string) (provider.Proposal, error) {
	req.History = append(append([]convo.Turn{}, req.History...),
		convo.Turn{Role: convo.RoleAssistant, Blocks: []convo.ContentBlock{convo.NewTextBlock(raw)}},
		convo.Turn{Role: convo.RoleUser, Blocks: []convo.ContentBlock{convo.NewTextBlock(reaskInstructions)}},
	)

	second, err := m.provider.Complete(ctx, req)
	if err != nil {
		return provider.Proposal{}, err
	}
	return provider.ParseProposal(second)
}

func (m *Manager) completionError(s *Session, err error) Outcome {
	if errors.Is(err, context.Canceled) {
		m.logger.Info("model request aborted", "session", s.ID)
		return Outcome{Kind: OutcomeError, Message: "Request cancelled."}
	}

	m.logger.Error("model request failed", "session", s.ID, "error", err)
	out := Outcome{Kind: OutcomeError, Message: "The model request failed.", Hint: provider.RemediationHint(err)}
	if errors.Is(err, provider.ErrNoCredential) {
		out.Kind = OutcomeSettingsRequired
		out.Message = "No API key is configured yet."
	}
	return out
}

// Confirm executes the session's pending proposal: checkpoint first when
// the proposal carries warnings, then run with font recovery, then record
// the outcome in the conversation. Returns false when nothing is pending.
func (m *Manager) Confirm(ctx context.Context, s *Session) (script.Result, bool) {
	s.touch()

	p := s.takePending()
	if p == nil {
		return script.Result{}, false
	}

	script.NewCheckpointer(s.Host, m.journal, m.logger).MaybeCheckpoint(ctx, len(p.Warnings) > 0)

	res := script.NewExecutor(s.Host, m.logger).Execute(ctx, p.Code, p.Summary)
	if res.Success {
		s.store.AddUserTurn(convo.NewTextBlock(fmt.Sprintf("(The proposed edit %q was executed successfully.)", p.Summary)))
	} else {
		s.store.AddUserTurn(convo.NewTextBlock(fmt.Sprintf("(The proposed edit %q failed: %s)", p.Summary, res.Error)))
	}
	return res, true
}

// Cancel discards the session's pending proposal. Returns false when
// nothing was pending. The document is untouched either way.
func (m *Manager) Cancel(s *Session) bool {
	s.touch()

	p := s.takePending()
	if p == nil {
		return false
	}
	s.store.AddUserTurn(convo.NewTextBlock(fmt.Sprintf("(The proposed edit %q was declined.)", p.Summary)))
	return true
}
