package panel

import (
	"encoding/json"
	"time"
)

// MessageType identifies the kind of WebSocket message in the panel protocol.
type MessageType string

// Messages sent by the panel.
const (
	MsgHello           MessageType = "hello"
	MsgSubmitUtterance MessageType = "submit_utterance"
	MsgConfirmProposal MessageType = "confirm_proposal"
	MsgCancelProposal  MessageType = "cancel_proposal"
	MsgAbortInflight   MessageType = "abort_inflight"
	MsgFocusChanged    MessageType = "focus_changed"
	MsgRequestSettings MessageType = "request_settings"
	MsgSetCredential   MessageType = "set_credential"
	MsgSetModel        MessageType = "set_model"
	MsgSetRules        MessageType = "set_rules"
	MsgSetCreativeMode MessageType = "set_creative_mode"
	MsgResizePanel     MessageType = "resize_panel"
	MsgHostResponse    MessageType = "host_response"
)

// Messages sent by the server.
const (
	MsgHelloAck            MessageType = "hello_ack"
	MsgThinkingStarted     MessageType = "thinking_started"
	MsgProposalReady       MessageType = "proposal_ready"
	MsgClarificationNeeded MessageType = "clarification_needed"
	MsgPlainReply          MessageType = "plain_reply"
	MsgProposalCancelled   MessageType = "proposal_cancelled"
	MsgExecutionSucceeded  MessageType = "execution_succeeded"
	MsgExecutionFailed     MessageType = "execution_failed"
	MsgSettingsRequired    MessageType = "settings_required"
	MsgSettingsSnapshot    MessageType = "settings_snapshot"
	MsgHostRequest         MessageType = "host_request"
	MsgError               MessageType = "error"
)

// Envelope is the wire format for all WebSocket messages.
type Envelope struct {
	Type      MessageType     `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Hello is the panel's opening message.
type Hello struct {
	Token      string `json:"token,omitempty"`
	FileName   string `json:"file_name,omitempty"`
	PluginName string `json:"plugin_name,omitempty"`
}

// HelloAck acknowledges a hello with the assigned session identifier.
type HelloAck struct {
	Accepted  bool   `json:"accepted"`
	SessionID string `json:"session_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// ImageAttachment is a base64-encoded image riding on an utterance.
type ImageAttachment struct {
	Data     string `json:"data"`
	MIMEType string `json:"mime_type"`
}

// Utterance is the operator's natural-language request.
type Utterance struct {
	Text   string            `json:"text"`
	Images []ImageAttachment `json:"images,omitempty"`
}

// FocusChanged reports the identifiers of the operator's current focus.
type FocusChanged struct {
	IDs []string `json:"ids"`
}

// SettingValue carries a single settings field update.
type SettingValue struct {
	Value string `json:"value"`
	On    bool   `json:"on,omitempty"`
}

// SettingsSnapshot is the server's view of the persisted settings. The
// credential itself never crosses the wire back to the panel.
type SettingsSnapshot struct {
	HasCredential bool   `json:"has_credential"`
	Model         string `json:"model"`
	Rules         string `json:"rules"`
	CreativeMode  bool   `json:"creative_mode"`
}

// ResizePanel asks the plugin to resize the panel surface.
type ResizePanel struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ProposalReady describes a script awaiting confirmation.
type ProposalReady struct {
	Summary  string   `json:"summary"`
	Code     string   `json:"code"`
	Warnings []string `json:"warnings,omitempty"`
}

// TextPayload carries a plain message (replies, clarifications, errors).
type TextPayload struct {
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// ExecutionResult reports the outcome of a confirmed proposal.
type ExecutionResult struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Attempts int    `json:"attempts"`
}

// HostRequest asks the plugin to perform a document operation.
type HostRequest struct {
	Op     string          `json:"op"`
	Params json.RawMessage `json:"params,omitempty"`
}

// HostResponse is the plugin's reply to a HostRequest. Result holds the
// operation's JSON payload; Error carries the host's message verbatim.
type HostResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}
