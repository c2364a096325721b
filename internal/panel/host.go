package panel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/witxhhaven/fig-design-assistant/pkg/document"
)

// Host operation names understood by the plugin side.
const (
	opGetSelection     = "get_selection"
	opGetPage          = "get_page"
	opGetFileName      = "get_file_name"
	opGetComponentName = "get_component_name"
	opGetVariableNames = "get_variable_names"
	opGetStyleNames    = "get_style_names"
	opRunScript        = "run_script"
	opLoadFont         = "load_font"
	opCommitUndo       = "commit_undo"
	opSnapshot         = "snapshot"
	opResizePanel      = "resize_panel"
)

// hostBridge implements document.Host by round-tripping operations over
// the panel's WebSocket connection to the plugin's document side.
type hostBridge struct {
	conn    *Conn
	timeout time.Duration
}

var _ document.Host = (*hostBridge)(nil)

func newHostBridge(conn *Conn, timeout time.Duration) *hostBridge {
	return &hostBridge{conn: conn, timeout: timeout}
}

// call performs one host operation and decodes the result into out.
// A nil out discards the result.
func (h *hostBridge) call(ctx context.Context, op string, params, out any) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	result, err := h.conn.request(ctx, op, params)
	if err != nil {
		return err
	}
	if out == nil || len(result) == 0 {
		return nil
	}
	if err := json.Unmarshal(result, out); err != nil {
		return fmt.Errorf("panel: decode %s result: %w", op, err)
	}
	return nil
}

func (h *hostBridge) Selection(ctx context.Context) ([]*document.Node, error) {
	var nodes []*document.Node
	if err := h.call(ctx, opGetSelection, nil, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (h *hostBridge) Page(ctx context.Context) (*document.Node, error) {
	var node document.Node
	if err := h.call(ctx, opGetPage, nil, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

func (h *hostBridge) FileName(ctx context.Context) (string, error) {
	var name string
	if err := h.call(ctx, opGetFileName, nil, &name); err != nil {
		return "", err
	}
	return name, nil
}

func (h *hostBridge) ComponentName(ctx context.Context, componentID string) (string, error) {
	var name string
	params := map[string]string{"component_id": componentID}
	if err := h.call(ctx, opGetComponentName, params, &name); err != nil {
		return "", err
	}
	return name, nil
}

func (h *hostBridge) VariableNames(ctx context.Context) (map[string]string, error) {
	var names map[string]string
	if err := h.call(ctx, opGetVariableNames, nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

func (h *hostBridge) StyleNames(ctx context.Context) (map[string]string, error) {
	var names map[string]string
	if err := h.call(ctx, opGetStyleNames, nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

func (h *hostBridge) RunScript(ctx context.Context, code string) error {
	return h.call(ctx, opRunScript, map[string]string{"code": code}, nil)
}

func (h *hostBridge) LoadFont(ctx context.Context, family, style string) error {
	return h.call(ctx, opLoadFont, map[string]string{"family": family, "style": style}, nil)
}

func (h *hostBridge) CommitUndo(ctx context.Context, label string) error {
	return h.call(ctx, opCommitUndo, map[string]string{"label": label}, nil)
}

func (h *hostBridge) Snapshot(ctx context.Context, label string) error {
	return h.call(ctx, opSnapshot, map[string]string{"label": label}, nil)
}

func (h *hostBridge) ResizePanel(ctx context.Context, width, height int) error {
	return h.call(ctx, opResizePanel, ResizePanel{Width: width, Height: height}, nil)
}
