// Package script runs model-generated code against the live document
// inside a recoverable, retryable execution envelope, with safety
// checkpointing before destructive proposals.
package script

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/witxhhaven/fig-design-assistant/pkg/document"
)

// State tracks an execution through its lifecycle.
type State string

// Execution states.
const (
	StateRunning State = "running"
	StateSuccess State = "success"
	StateFailed  State = "failed"
)

// Result is the only contract the execution engine returns.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	// Attempts counts full script runs, including the first.
	Attempts int `json:"-"`
}

// maxFontRetries caps automatic re-runs after a recoverable missing-font
// failure. Beyond this the underlying error surfaces verbatim.
const maxFontRetries = 3

// fontErrorPattern recognizes the host's missing-font failure and
// captures the font's identifying parameters. Example message:
//
//	unloaded font "Inter Bold": call loadFontAsync({family:"Inter",style:"Bold"})
var fontErrorPattern = regexp.MustCompile(
	`unloaded font[^{]*loadFontAsync\(\{\s*family:\s*"([^"]+)"\s*,\s*style:\s*"([^"]+)"\s*\}\)`,
)

// missingFont extracts the family and style from a missing-font error
// message. ok is false for any other error.
func missingFont(msg string) (family, style string, ok bool) {
	m := fontErrorPattern.FindStringSubmatch(msg)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Executor runs scripts against the live document. The script may mutate
// anything the host exposes — the proposal was human-approved before
// this stage — so the executor controls only how errors are classified
// and retried, and how the net effect is committed for undo.
type Executor struct {
	host   document.Host
	logger *slog.Logger
}

// NewExecutor creates an Executor bound to the given host.
func NewExecutor(host document.Host, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{host: host, logger: logger}
}

// Execute runs the script. On a missing-font failure it loads the font
// and resubmits the full script (idempotent resubmission, not mid-script
// resume), up to maxFontRetries times. Any other failure surfaces
// immediately with the host's message verbatim. On success the net
// effect is committed as one unit in the host's undo history under the
// given label.
func (e *Executor) Execute(ctx context.Context, code, label string) Result {
	state := StateRunning
	attempts := 0
	retries := 0

	for state == StateRunning {
		attempts++
		err := e.host.RunScript(ctx, code)
		if err == nil {
			state = StateSuccess
			break
		}

		family, style, recoverable := missingFont(err.Error())
		if !recoverable || retries >= maxFontRetries {
			state = StateFailed
			return Result{Error: err.Error(), Attempts: attempts}
		}

		retries++
		e.logger.Info("loading missing font for retry",
			"family", family,
			"style", style,
			"retry", retries,
		)
		if loadErr := e.host.LoadFont(ctx, family, style); loadErr != nil {
			state = StateFailed
			return Result{Error: err.Error(), Attempts: attempts}
		}
	}

	if err := e.host.CommitUndo(ctx, label); err != nil {
		// The mutations landed; a failed undo-group close is logged but
		// does not turn the run into a failure.
		e.logger.Warn("undo commit failed", "error", err)
	}

	return Result{Success: true, Attempts: attempts}
}
