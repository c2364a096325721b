package document

import "context"

// Host is the live connection to the canvas editor. All calls are
// inherently asynchronous on the host side, so every method takes a
// context. Implementations must be safe for concurrent use.
type Host interface {
	// Selection returns the operator's current multi-element focus.
	// An empty slice means no explicit focus.
	Selection(ctx context.Context) ([]*Node, error)

	// Page returns the container holding all top-level siblings of the
	// working page.
	Page(ctx context.Context) (*Node, error)

	// FileName returns the document's display name.
	FileName(ctx context.Context) (string, error)

	// ComponentName resolves the defining component's name for an
	// instance node. Returns "" when the component cannot be resolved.
	ComponentName(ctx context.Context, componentID string) (string, error)

	// VariableNames returns a table mapping variable identifiers to
	// human-readable design-token names.
	VariableNames(ctx context.Context) (map[string]string, error)

	// StyleNames returns a table mapping style identifiers to names.
	StyleNames(ctx context.Context) (map[string]string, error)

	// RunScript executes generated code against the live document and
	// returns the script's error, if any, with the host's message verbatim.
	RunScript(ctx context.Context, code string) error

	// LoadFont asks the host to load a font so a subsequent script run
	// can use it.
	LoadFont(ctx context.Context, family, style string) error

	// CommitUndo closes the current mutation batch as a single unit in
	// the host's undo history.
	CommitUndo(ctx context.Context, label string) error

	// Snapshot creates a durable, labeled snapshot of document state.
	Snapshot(ctx context.Context, label string) error

	// ResizePanel asks the host to resize the assistant panel.
	ResizePanel(ctx context.Context, width, height int) error
}
