package panel

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Conn is one live panel connection. Writes are serialised through a
// mutex; host requests are correlated to their responses by envelope ID.
type Conn struct {
	ID          string
	ConnectedAt time.Time

	ws     *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan HostResponse
}

func newConn(id string, ws *websocket.Conn, logger *slog.Logger) *Conn {
	return &Conn{
		ID:      id,
		ws:      ws,
		logger:  logger,
		pending: make(map[string]chan HostResponse),
	}
}

// send marshals a payload into an envelope and writes it.
func (c *Conn) send(ctx context.Context, msgType MessageType, id string, payload any) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			c.logger.Error("marshal payload failed", "type", msgType, "error", err)
			return
		}
		raw = data
	}

	env := Envelope{Type: msgType, ID: id, Payload: raw, Timestamp: time.Now()}
	data, err := json.Marshal(env)
	if err != nil {
		c.logger.Error("marshal envelope failed", "type", msgType, "error", err)
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
		c.logger.Warn("write failed", "type", msgType, "error", err)
	}
}

// sendError reports a failure to the panel, correlated to the inbound
// message when id is non-empty.
func (c *Conn) sendError(ctx context.Context, id, message, hint string) {
	c.send(ctx, MsgError, id, TextPayload{Message: message, Hint: hint})
}

// request sends a host request and waits for the correlated response.
func (c *Conn) request(ctx context.Context, op string, params any) (json.RawMessage, error) {
	correlationID, err := generateCorrelationID()
	if err != nil {
		return nil, err
	}

	var rawParams json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("panel: marshal %s params: %w", op, err)
		}
		rawParams = data
	}

	ch := make(chan HostResponse, 1)
	c.mu.Lock()
	c.pending[correlationID] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, correlationID)
		c.mu.Unlock()
	}()

	c.send(ctx, MsgHostRequest, correlationID, HostRequest{Op: op, Params: rawParams})

	select {
	case resp := <-ch:
		if resp.Error != "" {
			// The host's message travels verbatim: the executor's font
			// recovery matches on its exact wording.
			return nil, fmt.Errorf("%s", resp.Error)
		}
		return resp.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve delivers a host response to its waiting request. Duplicate or
// late responses are dropped without blocking the read loop.
func (c *Conn) resolve(id string, resp HostResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch, ok := c.pending[id]; ok {
		select {
		case ch <- resp:
		default:
		}
	}
}

func generateCorrelationID() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}

func generateSessionID() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return "panel-" + hex.EncodeToString(buf[:]), nil
}
