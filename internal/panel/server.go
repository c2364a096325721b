// Package panel serves the assistant's WebSocket surface. One connection
// carries both directions of the protocol: operator messages flowing in,
// and document operations flowing out to the plugin as host requests.
package panel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/witxhhaven/fig-design-assistant/internal/convo"
	"github.com/witxhhaven/fig-design-assistant/internal/core"
	"github.com/witxhhaven/fig-design-assistant/internal/gateway"
	"github.com/witxhhaven/fig-design-assistant/internal/session"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Server{})
}

// Interface guards.
var (
	_ core.Module       = (*Server)(nil)
	_ core.Configurable = (*Server)(nil)
	_ core.Provisioner  = (*Server)(nil)
	_ core.Stopper      = (*Server)(nil)
)

const (
	helloReadTimeout   = 10 * time.Second
	defaultHostTimeout = 30 * time.Second
)

// Config holds YAML configuration for the panel server.
type Config struct {
	// Tokens are accepted connection tokens. Empty means any local
	// panel may connect.
	Tokens []string `yaml:"tokens"`

	// HostTimeout bounds a single document operation round-trip.
	HostTimeout time.Duration `yaml:"host_timeout"`
}

func (c *Config) defaults() {
	if c.HostTimeout <= 0 {
		c.HostTimeout = defaultHostTimeout
	}
}

// Server is the panel.server module. It registers the WebSocket handler
// for the gateway to mount and drives the per-connection protocol.
type Server struct {
	config Config
	appCtx *core.AppContext
	logger *slog.Logger
	tokens map[string]struct{}

	mu    sync.Mutex
	conns map[string]*Conn
}

// ModuleInfo implements core.Module.
func (s *Server) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "panel.server",
		New: func() core.Module { return &Server{} },
	}
}

// Configure implements core.Configurable.
func (s *Server) Configure(node *yaml.Node) error {
	if err := node.Decode(&s.config); err != nil {
		return err
	}
	s.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (s *Server) Provision(ctx *core.AppContext) error {
	s.appCtx = ctx
	s.logger = ctx.Logger
	s.config.defaults()
	s.conns = make(map[string]*Conn)

	s.tokens = make(map[string]struct{}, len(s.config.Tokens))
	for _, t := range s.config.Tokens {
		s.tokens[t] = struct{}{}
	}

	ctx.RegisterService("panel.handler", http.HandlerFunc(s.handleWebSocket))
	return nil
}

// Stop implements core.Stopper. It closes all panel connections.
func (s *Server) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		_ = c.ws.Close(websocket.StatusGoingAway, "server shutting down")
	}
	s.logger.Info("panel server stopped")
	return nil
}

// manager resolves the session manager from the service registry.
func (s *Server) manager() (*session.Manager, bool) {
	svc, ok := s.appCtx.Service("session.manager")
	if !ok {
		return nil, false
	}
	mgr, ok := svc.(*session.Manager)
	return mgr, ok
}

// metrics resolves the gateway metrics, degrading to nil when the
// gateway module is not loaded.
func (s *Server) metrics() *gateway.Metrics {
	if svc, ok := s.appCtx.Service("gateway.metrics"); ok {
		if m, ok := svc.(*gateway.Metrics); ok {
			return m
		}
	}
	return nil
}

// handleWebSocket runs the full connection lifecycle: hello, session
// open, dispatch loop, session close.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	mgr, ok := s.manager()
	if !ok {
		http.Error(w, "session manager unavailable", http.StatusServiceUnavailable)
		return
	}

	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer func() {
		_ = ws.Close(websocket.StatusInternalError, "unexpected close")
	}()

	conn, err := s.handleHello(r.Context(), ws)
	if err != nil {
		s.logger.Warn("panel handshake failed", "error", err)
		return
	}

	s.mu.Lock()
	s.conns[conn.ID] = conn
	s.mu.Unlock()

	host := newHostBridge(conn, s.config.HostTimeout)
	sess := mgr.Open(conn.ID, host)
	s.logger.Info("panel connected", "session", conn.ID)

	s.dispatchLoop(r.Context(), conn, sess, mgr)

	mgr.Close(conn.ID)
	s.mu.Lock()
	delete(s.conns, conn.ID)
	s.mu.Unlock()
	s.logger.Info("panel disconnected", "session", conn.ID)
}

// handleHello reads the opening message and answers with the session ID.
func (s *Server) handleHello(ctx context.Context, ws *websocket.Conn) (*Conn, error) {
	helloCtx, cancel := context.WithTimeout(ctx, helloReadTimeout)
	defer cancel()

	_, data, err := ws.Read(helloCtx)
	if err != nil {
		return nil, fmt.Errorf("read hello: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Type != MsgHello {
		return nil, fmt.Errorf("expected hello, got %s", env.Type)
	}

	var hello Hello
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &hello); err != nil {
			return nil, fmt.Errorf("unmarshal hello: %w", err)
		}
	}

	tmp := newConn("", ws, s.logger)
	if len(s.tokens) > 0 {
		if _, ok := s.tokens[hello.Token]; !ok {
			tmp.send(ctx, MsgHelloAck, env.ID, HelloAck{Reason: "invalid token"})
			return nil, fmt.Errorf("invalid panel token")
		}
	}

	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	conn := newConn(id, ws, s.logger.With("session", id))
	conn.ConnectedAt = time.Now()
	conn.send(ctx, MsgHelloAck, env.ID, HelloAck{Accepted: true, SessionID: id})
	return conn, nil
}

// dispatchLoop reads panel messages until the connection drops. Work
// that round-trips through the document host runs on its own goroutine,
// because those round-trips are themselves answered by this loop.
func (s *Server) dispatchLoop(ctx context.Context, conn *Conn, sess *session.Session, mgr *session.Manager) {
	for {
		_, data, err := conn.ws.Read(ctx)
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			conn.sendError(ctx, "", "invalid message format", "")
			continue
		}

		switch env.Type {
		case MsgHostResponse:
			var resp HostResponse
			if err := json.Unmarshal(env.Payload, &resp); err != nil {
				s.logger.Warn("invalid host_response", "error", err)
				continue
			}
			conn.resolve(env.ID, resp)

		case MsgSubmitUtterance:
			var utt Utterance
			if err := json.Unmarshal(env.Payload, &utt); err != nil {
				conn.sendError(ctx, env.ID, "invalid utterance payload", "")
				continue
			}
			go s.handleUtterance(ctx, conn, sess, mgr, env.ID, utt)

		case MsgConfirmProposal:
			go s.handleConfirm(ctx, conn, sess, mgr, env.ID)

		case MsgCancelProposal:
			if mgr.Cancel(sess) {
				conn.send(ctx, MsgProposalCancelled, env.ID, nil)
			} else {
				conn.sendError(ctx, env.ID, "no proposal is awaiting confirmation", "")
			}

		case MsgAbortInflight:
			sess.AbortInflight()

		case MsgFocusChanged:
			var focus FocusChanged
			if err := json.Unmarshal(env.Payload, &focus); err != nil {
				continue
			}
			sess.UpdateFocus(focus.IDs)

		case MsgRequestSettings:
			s.sendSettingsSnapshot(ctx, conn, mgr, env.ID)

		case MsgSetCredential, MsgSetModel, MsgSetRules, MsgSetCreativeMode:
			s.handleSetSetting(ctx, conn, mgr, env)

		case MsgResizePanel:
			var resize ResizePanel
			if err := json.Unmarshal(env.Payload, &resize); err != nil {
				conn.sendError(ctx, env.ID, "invalid resize payload", "")
				continue
			}
			go func() {
				if err := sess.Host.ResizePanel(ctx, resize.Width, resize.Height); err != nil {
					s.logger.Warn("panel resize failed", "error", err)
				}
			}()

		default:
			s.logger.Warn("unexpected message type", "type", env.Type)
		}
	}
}

func (s *Server) handleUtterance(ctx context.Context, conn *Conn, sess *session.Session, mgr *session.Manager, id string, utt Utterance) {
	if m := s.metrics(); m != nil {
		m.RecordUtterance()
	}
	conn.send(ctx, MsgThinkingStarted, id, nil)

	attachments := make([]convo.ContentBlock, 0, len(utt.Images))
	for _, img := range utt.Images {
		attachments = append(attachments, convo.NewImageBlock(img.Data, img.MIMEType))
	}

	out := mgr.HandleUtterance(ctx, sess, utt.Text, attachments...)
	switch out.Kind {
	case session.OutcomeProposal:
		if m := s.metrics(); m != nil {
			m.RecordProposal()
		}
		conn.send(ctx, MsgProposalReady, id, ProposalReady{
			Summary:  out.Proposal.Summary,
			Code:     out.Proposal.Code,
			Warnings: out.Proposal.Warnings,
		})

	case session.OutcomeClarification:
		conn.send(ctx, MsgClarificationNeeded, id, TextPayload{Message: out.Message})

	case session.OutcomeReply:
		conn.send(ctx, MsgPlainReply, id, TextPayload{Message: out.Message})

	case session.OutcomeSettingsRequired:
		conn.send(ctx, MsgSettingsRequired, id, TextPayload{Message: out.Message, Hint: out.Hint})

	default:
		if m := s.metrics(); m != nil {
			m.RecordError()
		}
		conn.sendError(ctx, id, out.Message, out.Hint)
	}
}

func (s *Server) handleConfirm(ctx context.Context, conn *Conn, sess *session.Session, mgr *session.Manager, id string) {
	res, ok := mgr.Confirm(ctx, sess)
	if !ok {
		conn.sendError(ctx, id, "no proposal is awaiting confirmation", "")
		return
	}

	if m := s.metrics(); m != nil {
		m.RecordExecution(res.Success)
	}

	result := ExecutionResult{Success: res.Success, Error: res.Error, Attempts: res.Attempts}
	if res.Success {
		conn.send(ctx, MsgExecutionSucceeded, id, result)
	} else {
		conn.send(ctx, MsgExecutionFailed, id, result)
	}
}

func (s *Server) handleSetSetting(ctx context.Context, conn *Conn, mgr *session.Manager, env Envelope) {
	var value SettingValue
	if err := json.Unmarshal(env.Payload, &value); err != nil {
		conn.sendError(ctx, env.ID, "invalid settings payload", "")
		return
	}

	store := mgr.Settings()
	var err error
	switch env.Type {
	case MsgSetCredential:
		err = store.SetCredential(ctx, value.Value)
	case MsgSetModel:
		err = store.SetModel(ctx, value.Value)
	case MsgSetRules:
		err = store.SetRules(ctx, value.Value)
	case MsgSetCreativeMode:
		err = store.SetCreativeMode(ctx, value.On)
	}
	if err != nil {
		s.logger.Error("settings update failed", "type", env.Type, "error", err)
		conn.sendError(ctx, env.ID, "could not save the setting", "")
		return
	}

	s.sendSettingsSnapshot(ctx, conn, mgr, env.ID)
}

// sendSettingsSnapshot reports the persisted settings. The credential is
// reduced to a presence flag; its value never returns to the panel.
func (s *Server) sendSettingsSnapshot(ctx context.Context, conn *Conn, mgr *session.Manager, id string) {
	st, err := mgr.Settings().Load(ctx)
	if err != nil {
		s.logger.Error("settings load failed", "error", err)
		conn.sendError(ctx, id, "could not read settings", "")
		return
	}

	conn.send(ctx, MsgSettingsSnapshot, id, SettingsSnapshot{
		HasCredential: st.Credential != "",
		Model:         st.Model,
		Rules:         st.Rules,
		CreativeMode:  st.CreativeMode,
	})
}
