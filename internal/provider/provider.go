// Package provider defines the boundary to the external language model:
// the completion interface, the request contract, and parsing of the
// model's proposal payload.
package provider

import (
	"context"

	"github.com/witxhhaven/fig-design-assistant/internal/convo"
)

// Provider is the interface for communicating with the model. Concrete
// implementations live in separate modules (e.g. provider.anthropic).
type Provider interface {
	// Complete sends one request and returns the model's full text
	// response. Cancelling ctx abandons the call; no partial text is
	// returned.
	Complete(ctx context.Context, req Request) (string, error)

	// ModelName returns the identifier of the underlying model.
	ModelName() string
}

// Request carries one turn's worth of input to the model: the system
// instruction block, an optional serialized scene-context block, and the
// bounded conversation history.
type Request struct {
	System string
	// Context is the JSON-serialized scene context, empty when the
	// request needs no document grounding.
	Context string
	History []convo.Turn

	// Model overrides the provider's configured model when non-empty.
	Model     string
	MaxTokens int
}
