package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/witxhhaven/fig-design-assistant/internal/convo"
	"github.com/witxhhaven/fig-design-assistant/internal/provider"
	"github.com/witxhhaven/fig-design-assistant/pkg/document"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeHost is a minimal scriptable document host.
type fakeHost struct {
	mu        sync.Mutex
	page      *document.Node
	selection []*document.Node
	runErrs   []error
	runs      int
	commits   []string
	snapshots []string
	fonts     []string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		page: &document.Node{
			ID:   "0:1",
			Name: "Page 1",
			Kind: document.KindPage,
			Children: []*document.Node{
				{ID: "1:1", Name: "Card", Kind: document.KindFrame, Width: 200, Height: 100},
			},
		},
	}
}

func (h *fakeHost) Selection(context.Context) ([]*document.Node, error) { return h.selection, nil }
func (h *fakeHost) Page(context.Context) (*document.Node, error)        { return h.page, nil }
func (h *fakeHost) FileName(context.Context) (string, error)            { return "Test File", nil }
func (h *fakeHost) ComponentName(context.Context, string) (string, error) {
	return "", nil
}
func (h *fakeHost) VariableNames(context.Context) (map[string]string, error) { return nil, nil }
func (h *fakeHost) StyleNames(context.Context) (map[string]string, error)   { return nil, nil }

func (h *fakeHost) RunScript(_ context.Context, code string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs++
	if len(h.runErrs) > 0 {
		err := h.runErrs[0]
		h.runErrs = h.runErrs[1:]
		return err
	}
	return nil
}

func (h *fakeHost) LoadFont(_ context.Context, family, style string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fonts = append(h.fonts, family+"/"+style)
	return nil
}

func (h *fakeHost) CommitUndo(_ context.Context, label string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commits = append(h.commits, label)
	return nil
}

func (h *fakeHost) Snapshot(_ context.Context, label string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshots = append(h.snapshots, label)
	return nil
}

func (h *fakeHost) ResizePanel(context.Context, int, int) error { return nil }

// fakeProvider replays canned responses in order.
type fakeProvider struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	requests  []provider.Request
}

func (p *fakeProvider) Complete(ctx context.Context, req provider.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)

	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if len(p.responses) == 0 {
		return "", errors.New("fakeProvider: no responses left")
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

func (p *fakeProvider) ModelName() string { return "fake-model" }

// fakeSettings is an in-memory settings store.
type fakeSettings struct {
	mu sync.Mutex
	st Settings
}

func (f *fakeSettings) Load(context.Context) (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.st, nil
}
func (f *fakeSettings) SetCredential(_ context.Context, c string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.st.Credential = c
	return nil
}
func (f *fakeSettings) SetModel(_ context.Context, m string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.st.Model = m
	return nil
}
func (f *fakeSettings) SetRules(_ context.Context, r string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.st.Rules = r
	return nil
}
func (f *fakeSettings) SetCreativeMode(_ context.Context, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.st.CreativeMode = on
	return nil
}

func newTestManager(t *testing.T, prov *fakeProvider) (*Manager, *Session, *fakeHost) {
	t.Helper()
	host := newFakeHost()
	m := NewManager(prov, &fakeSettings{st: Settings{Credential: "sk-test"}}, nil, testLogger(), ManagerConfig{})
	s := m.Open("panel-1", host)
	return m, s, host
}

const proposalJSON = `{"summary":"Make the card blue","code":"card.fills = blue","warnings":[]}`

func TestHandleUtteranceProposal(t *testing.T) {
	t.Parallel()

	prov := &fakeProvider{responses: []string{proposalJSON}}
	m, s, _ := newTestManager(t, prov)

	out := m.HandleUtterance(context.Background(), s, "make the card blue")
	if out.Kind != OutcomeProposal {
		t.Fatalf("Kind = %q, want %q (message: %q)", out.Kind, OutcomeProposal, out.Message)
	}
	if out.Proposal == nil || out.Proposal.Code != "card.fills = blue" {
		t.Fatalf("Proposal = %+v", out.Proposal)
	}
	if s.Pending() == nil {
		t.Fatal("expected a pending proposal on the session")
	}

	// History: user utterance + assistant summary.
	turns := s.History()
	if len(turns) != 2 {
		t.Fatalf("History len = %d, want 2", len(turns))
	}
	if turns[1].Role != convo.RoleAssistant || turns[1].Text() != "Make the card blue" {
		t.Errorf("assistant turn = %+v", turns[1])
	}

	// The request carried the scene context and the system contract.
	req := prov.requests[0]
	if req.Context == "" || !strings.Contains(req.Context, `"Card"`) {
		t.Errorf("request context missing scene payload: %q", req.Context)
	}
	if !strings.Contains(req.System, "single JSON object") {
		t.Errorf("system prompt missing output contract")
	}
}

func TestHandleUtteranceClarificationAndReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
		want     OutcomeKind
	}{
		{"question", `{"message":"Which card do you mean?"}`, OutcomeClarification},
		{"statement", `{"message":"The card is 200 by 100."}`, OutcomeReply},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prov := &fakeProvider{responses: []string{tt.response}}
			m, s, _ := newTestManager(t, prov)

			out := m.HandleUtterance(context.Background(), s, "hm")
			if out.Kind != tt.want {
				t.Fatalf("Kind = %q, want %q", out.Kind, tt.want)
			}
			if s.Pending() != nil {
				t.Error("no proposal should be pending for a message outcome")
			}
		})
	}
}

func TestHandleUtteranceMissingCredential(t *testing.T) {
	t.Parallel()

	host := newFakeHost()
	prov := &fakeProvider{}
	m := NewManager(prov, &fakeSettings{}, nil, testLogger(), ManagerConfig{})
	s := m.Open("panel-1", host)

	out := m.HandleUtterance(context.Background(), s, "hello")
	if out.Kind != OutcomeSettingsRequired {
		t.Fatalf("Kind = %q, want %q", out.Kind, OutcomeSettingsRequired)
	}
	if len(prov.requests) != 0 {
		t.Error("no model request should be made without a credential")
	}
	if s.store.Len() != 0 {
		t.Error("no turn should be recorded without a credential")
	}
}

func TestHandleUtteranceReasksOnceOnMalformedReply(t *testing.T) {
	t.Parallel()

	prov := &fakeProvider{responses: []string{"I think the card should be blue!", proposalJSON}}
	m, s, _ := newTestManager(t, prov)

	out := m.HandleUtterance(context.Background(), s, "make it blue")
	if out.Kind != OutcomeProposal {
		t.Fatalf("Kind = %q, want %q", out.Kind, OutcomeProposal)
	}
	if len(prov.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(prov.requests))
	}

	// The corrective exchange rides on the second request only.
	second := prov.requests[1]
	last := second.History[len(second.History)-1]
	if !strings.Contains(last.Text(), "valid JSON") {
		t.Errorf("second request missing corrective instruction: %q", last.Text())
	}

	// It must not persist in the session history.
	for _, turn := range s.History() {
		if strings.Contains(turn.Text(), "valid JSON") {
			t.Error("corrective instruction leaked into the session store")
		}
	}
}

func TestHandleUtteranceGivesUpAfterSecondMalformedReply(t *testing.T) {
	t.Parallel()

	prov := &fakeProvider{responses: []string{"nope", "still nope"}}
	m, s, _ := newTestManager(t, prov)

	out := m.HandleUtterance(context.Background(), s, "make it blue")
	if out.Kind != OutcomeError {
		t.Fatalf("Kind = %q, want %q", out.Kind, OutcomeError)
	}
	if len(prov.requests) != 2 {
		t.Fatalf("requests = %d, want exactly 2 (one re-ask)", len(prov.requests))
	}
	if s.Pending() != nil {
		t.Error("no proposal should be pending")
	}
}

func TestHandleUtteranceProviderError(t *testing.T) {
	t.Parallel()

	prov := &fakeProvider{errs: []error{fmt.Errorf("%w: 429", provider.ErrRateLimit)}}
	m, s, _ := newTestManager(t, prov)

	out := m.HandleUtterance(context.Background(), s, "hello")
	if out.Kind != OutcomeError {
		t.Fatalf("Kind = %q, want %q", out.Kind, OutcomeError)
	}
	if out.Hint == "" {
		t.Error("rate-limit failure should carry a remediation hint")
	}
}

func TestConfirmExecutesAndRecordsOutcome(t *testing.T) {
	t.Parallel()

	prov := &fakeProvider{responses: []string{`{"summary":"Delete the card","code":"card.remove()","warnings":["deletes 1 element"]}`}}
	m, s, host := newTestManager(t, prov)

	if out := m.HandleUtterance(context.Background(), s, "delete it"); out.Kind != OutcomeProposal {
		t.Fatalf("Kind = %q, want proposal", out.Kind)
	}

	res, ok := m.Confirm(context.Background(), s)
	if !ok || !res.Success {
		t.Fatalf("Confirm = (%+v, %v)", res, ok)
	}

	// Warnings present: a checkpoint was taken before execution.
	if len(host.snapshots) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(host.snapshots))
	}
	if len(host.commits) != 1 || host.commits[0] != "Delete the card" {
		t.Errorf("commits = %v", host.commits)
	}
	if s.Pending() != nil {
		t.Error("pending proposal should be consumed")
	}

	turns := s.History()
	lastText := turns[len(turns)-1].Text()
	if !strings.Contains(lastText, "executed successfully") {
		t.Errorf("missing execution record, last turn = %q", lastText)
	}
}

func TestConfirmWithoutWarningsSkipsCheckpoint(t *testing.T) {
	t.Parallel()

	prov := &fakeProvider{responses: []string{proposalJSON}}
	m, s, host := newTestManager(t, prov)

	m.HandleUtterance(context.Background(), s, "make it blue")
	if _, ok := m.Confirm(context.Background(), s); !ok {
		t.Fatal("expected a pending proposal to confirm")
	}
	if len(host.snapshots) != 0 {
		t.Errorf("snapshots = %d, want 0", len(host.snapshots))
	}
}

func TestConfirmWithNothingPending(t *testing.T) {
	t.Parallel()

	m, s, host := newTestManager(t, &fakeProvider{})
	if _, ok := m.Confirm(context.Background(), s); ok {
		t.Fatal("Confirm should report nothing pending")
	}
	if host.runs != 0 {
		t.Error("no script should run")
	}
}

func TestCancelDiscardsWithoutTouchingDocument(t *testing.T) {
	t.Parallel()

	prov := &fakeProvider{responses: []string{proposalJSON}}
	m, s, host := newTestManager(t, prov)

	m.HandleUtterance(context.Background(), s, "make it blue")
	if !m.Cancel(s) {
		t.Fatal("Cancel should consume the pending proposal")
	}
	if m.Cancel(s) {
		t.Fatal("second Cancel should report nothing pending")
	}
	if host.runs != 0 || len(host.snapshots) != 0 {
		t.Error("cancel must not touch the document")
	}

	turns := s.History()
	if !strings.Contains(turns[len(turns)-1].Text(), "declined") {
		t.Error("decline should be recorded in the conversation")
	}
}

func TestAbortInflightCancelsModelRequest(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	prov := &blockingProvider{started: started}
	host := newFakeHost()
	m := NewManager(prov, &fakeSettings{st: Settings{Credential: "sk-test"}}, nil, testLogger(), ManagerConfig{})
	s := m.Open("panel-1", host)

	done := make(chan Outcome, 1)
	go func() {
		done <- m.HandleUtterance(context.Background(), s, "slow request")
	}()

	<-started
	s.AbortInflight()

	select {
	case out := <-done:
		if out.Kind != OutcomeError {
			t.Fatalf("Kind = %q, want %q", out.Kind, OutcomeError)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("HandleUtterance did not return after abort")
	}
}

// blockingProvider blocks in Complete until its context is cancelled.
type blockingProvider struct {
	started chan struct{}
	once    sync.Once
}

func (p *blockingProvider) Complete(ctx context.Context, _ provider.Request) (string, error) {
	p.once.Do(func() { close(p.started) })
	<-ctx.Done()
	return "", ctx.Err()
}

func (p *blockingProvider) ModelName() string { return "blocking" }

func TestUpdateFocusClearsHistoryOnRealRefocus(t *testing.T) {
	t.Parallel()

	prov := &fakeProvider{responses: []string{`{"message":"Noted."}`, `{"message":"Noted."}`}}
	m, s, _ := newTestManager(t, prov)

	s.UpdateFocus([]string{"1:1"})
	m.HandleUtterance(context.Background(), s, "look at this card")
	if s.store.Len() == 0 {
		t.Fatal("expected recorded turns")
	}

	// Deselecting keeps history.
	s.UpdateFocus(nil)
	if s.store.Len() == 0 {
		t.Fatal("deselection must not clear history")
	}

	// Refocusing on a different element clears it.
	s.UpdateFocus([]string{"2:2"})
	if s.store.Len() != 0 {
		t.Fatalf("History len = %d after refocus, want 0", s.store.Len())
	}
}

func TestPruneIdle(t *testing.T) {
	t.Parallel()

	m := NewManager(&fakeProvider{}, &fakeSettings{}, nil, testLogger(), ManagerConfig{})
	stale := m.Open("stale", newFakeHost())
	stale.lastActive = time.Now().Add(-2 * time.Hour)
	m.Open("fresh", newFakeHost())

	if pruned := m.PruneIdle(time.Hour); pruned != 1 {
		t.Fatalf("pruned = %d, want 1", pruned)
	}
	if m.Get("stale") != nil {
		t.Error("stale session should be gone")
	}
	if m.Get("fresh") == nil {
		t.Error("fresh session should survive")
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestPruneIdleConcurrentWithActivity(t *testing.T) {
	t.Parallel()

	m := NewManager(&fakeProvider{}, &fakeSettings{}, nil, testLogger(), ManagerConfig{})
	s := m.Open("busy", newFakeHost())

	// Activity marking runs on per-message handler goroutines while the
	// sweep reads from the cron goroutine; the race detector flags any
	// unguarded access to the activity timestamp.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.touch()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			m.PruneIdle(time.Hour)
		}
	}()
	wg.Wait()

	if m.Get("busy") == nil {
		t.Error("active session must survive the sweep")
	}
}

func TestCloseRemovesSession(t *testing.T) {
	t.Parallel()

	m := NewManager(&fakeProvider{}, &fakeSettings{}, nil, testLogger(), ManagerConfig{})
	m.Open("panel-1", newFakeHost())
	m.Close("panel-1")
	if m.Get("panel-1") != nil {
		t.Error("session should be removed")
	}
}

func TestSystemPromptComposition(t *testing.T) {
	t.Parallel()

	plain := systemPrompt(Settings{})
	if strings.Contains(plain, "Creative mode") {
		t.Error("creative instructions should be absent by default")
	}

	full := systemPrompt(Settings{Rules: "Always use the brand palette.", CreativeMode: true})
	if !strings.Contains(full, "brand palette") {
		t.Error("custom rules missing from prompt")
	}
	if !strings.Contains(full, "Creative mode is on") {
		t.Error("creative instructions missing from prompt")
	}
}
