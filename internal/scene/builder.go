package scene

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/witxhhaven/fig-design-assistant/pkg/document"
)

// Scope identifies what part of the document the context covers.
type Scope string

// Context scopes.
const (
	ScopeSelection Scope = "selection"
	ScopePage      Scope = "page"
)

// Depth and budget constants. The budget ceiling approximates model-token
// cost at ~4 characters per token. Depth reduction is single-shot: one
// retry at the reduced depth, not an iterative search, so the ceiling is
// best-effort on pathologically wide pages.
const (
	BudgetCeiling = 6000

	selectionDepth        = 6
	selectionReducedDepth = 4
	pageDepth             = 4
	pageReducedDepth      = 2

	// emptySpotMargin is the horizontal gap left between existing
	// content and the anchor point for newly created content.
	emptySpotMargin = 100
)

// Point is a location on the canvas.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SceneContext is the top-level payload describing the working document
// to the model.
type SceneContext struct {
	File      string            `json:"file,omitempty"`
	Page      string            `json:"page,omitempty"`
	Scope     Scope             `json:"scope"`
	ScopeNote string            `json:"scope_note"`
	Nodes     []*SerializedNode `json:"nodes"`
	Styles    map[string]string `json:"styles,omitempty"`
	Variables map[string]string `json:"variables,omitempty"`
	EmptySpot Point             `json:"empty_spot"`

	// EstimatedTokens and Depth describe how the context was produced.
	// They are not part of the model payload.
	EstimatedTokens int `json:"-"`
	Depth           int `json:"-"`
}

// Builder assembles a budgeted SceneContext from the live document.
type Builder struct {
	host      document.Host
	estimator TokenEstimator
	logger    *slog.Logger
}

// NewBuilder creates a Builder. A nil estimator falls back to the
// 4-chars-per-token approximation.
func NewBuilder(host document.Host, estimator TokenEstimator, logger *slog.Logger) *Builder {
	if estimator == nil {
		estimator = NewCharEstimator(4.0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{host: host, estimator: estimator, logger: logger}
}

// Build produces the SceneContext for the operator's current focus.
// A non-empty selection scopes the context to the selected elements at
// full depth; otherwise the whole page is serialized at a shallower
// depth. If the estimated cost exceeds BudgetCeiling, the context is
// re-serialized once at a reduced depth.
func (b *Builder) Build(ctx context.Context) (*SceneContext, error) {
	selection, err := b.host.Selection(ctx)
	if err != nil {
		return nil, fmt.Errorf("scene: read selection: %w", err)
	}

	page, err := b.host.Page(ctx)
	if err != nil {
		return nil, fmt.Errorf("scene: read page: %w", err)
	}

	scope := ScopePage
	roots := page.Children
	depth, reducedDepth := pageDepth, pageReducedDepth
	note := fmt.Sprintf("all %d top-level elements of page %q", len(roots), page.Name)
	if len(selection) > 0 {
		scope = ScopeSelection
		roots = selection
		depth, reducedDepth = selectionDepth, selectionReducedDepth
		note = fmt.Sprintf("the %d selected element(s)", len(selection))
	}

	sc := &SceneContext{
		Scope:     scope,
		ScopeNote: note,
		Page:      page.Name,
		EmptySpot: emptySpot(page.Children),
	}

	if name, err := b.host.FileName(ctx); err == nil {
		sc.File = name
	}

	varNames := b.lookupTable(ctx, b.host.VariableNames, "variables")
	sc.Variables = varNames
	sc.Styles = b.lookupTable(ctx, b.host.StyleNames, "styles")

	ser := NewSerializer(b.host, varNames, b.logger)

	sc.Nodes, sc.EstimatedTokens = b.serializeAll(ctx, ser, roots, depth)
	sc.Depth = depth

	if sc.EstimatedTokens > BudgetCeiling {
		b.logger.Info("context over budget, reducing depth",
			"estimated", sc.EstimatedTokens,
			"ceiling", BudgetCeiling,
			"depth", depth,
			"reduced_depth", reducedDepth,
		)
		sc.Nodes, sc.EstimatedTokens = b.serializeAll(ctx, ser, roots, reducedDepth)
		sc.Depth = reducedDepth
	}

	return sc, nil
}

// serializeAll serializes every root at the given max depth and returns
// the records with their estimated token cost.
func (b *Builder) serializeAll(ctx context.Context, ser *Serializer, roots []*document.Node, maxDepth int) ([]*SerializedNode, int) {
	nodes := make([]*SerializedNode, 0, len(roots))
	for _, root := range roots {
		if root == nil {
			continue
		}
		nodes = append(nodes, ser.Serialize(ctx, root, 0, maxDepth))
	}

	data, err := json.Marshal(nodes)
	if err != nil {
		// Records are plain structs; marshal cannot realistically fail.
		return nodes, 0
	}
	return nodes, b.estimator.Estimate(string(data))
}

// lookupTable fetches a host name table, degrading to nil on failure.
func (b *Builder) lookupTable(ctx context.Context, fetch func(context.Context) (map[string]string, error), what string) map[string]string {
	table, err := fetch(ctx)
	if err != nil {
		b.logger.Debug("host table lookup failed", "table", what, "error", err)
		return nil
	}
	if len(table) == 0 {
		return nil
	}
	return table
}

// emptySpot computes a point to the right of the bounding right edge of
// all top-level siblings, so newly created content never overlaps
// existing content. When several siblings share the maximum right edge,
// the topmost one's vertical offset wins.
func emptySpot(siblings []*document.Node) Point {
	if len(siblings) == 0 {
		return Point{}
	}

	maxRight := siblings[0].RightEdge()
	y := siblings[0].Y
	for _, n := range siblings[1:] {
		if n == nil {
			continue
		}
		right := n.RightEdge()
		switch {
		case right > maxRight:
			maxRight = right
			y = n.Y
		case right == maxRight && n.Y < y:
			y = n.Y
		}
	}

	return Point{X: roundInt(maxRight) + emptySpotMargin, Y: roundInt(y)}
}
