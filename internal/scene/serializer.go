package scene

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"

	"github.com/witxhhaven/fig-design-assistant/pkg/document"
)

// SerializedNode is the compact structural record produced for one
// document node. Optional fields are present only when they differ from
// the defaults in propertyDefaults. For child-bearing kinds exactly one
// of Children or ChildCount is set; leaf kinds carry neither.
type SerializedNode struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`

	Opacity      *float64          `json:"opacity,omitempty"`
	Visible      *bool             `json:"visible,omitempty"`
	CornerRadius *float64          `json:"cornerRadius,omitempty"`
	BlendMode    string            `json:"blendMode,omitempty"`
	Fills        []SerializedPaint `json:"fills,omitempty"`
	Strokes      []SerializedPaint `json:"strokes,omitempty"`
	Effects      []document.Effect `json:"effects,omitempty"`
	Text         *SerializedText   `json:"text,omitempty"`
	Layout       *SerializedLayout `json:"layout,omitempty"`
	Component    string            `json:"component,omitempty"`

	Children   []*SerializedNode `json:"children,omitempty"`
	ChildCount *int              `json:"childCount,omitempty"`
}

// MarshalJSON keeps an expanded container's empty children array in the
// output. With omitempty alone, a child-bearing node with zero children
// would marshal with neither children nor childCount, and the model
// could not tell an empty container from an unexpanded one.
func (n *SerializedNode) MarshalJSON() ([]byte, error) {
	type plain SerializedNode
	if n.Children == nil {
		return json.Marshal((*plain)(n))
	}
	return json.Marshal(struct {
		*plain
		Children []*SerializedNode `json:"children"`
	}{(*plain)(n), n.Children})
}

// SerializedPaint is one fill or stroke entry with rounded channels and
// the resolved design-token name when a variable binding is known.
type SerializedPaint struct {
	Type     string        `json:"type"`
	Color    *document.RGB `json:"color,omitempty"`
	Opacity  *float64      `json:"opacity,omitempty"`
	Variable string        `json:"variable,omitempty"`
}

// SerializedText carries text content and non-default alignment.
type SerializedText struct {
	Characters string  `json:"characters"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontStyle  string  `json:"fontStyle,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	AlignH     string  `json:"alignH,omitempty"`
	AlignV     string  `json:"alignV,omitempty"`
}

// SerializedLayout carries non-default auto-layout attributes.
type SerializedLayout struct {
	Mode        string  `json:"mode"`
	ItemSpacing float64 `json:"itemSpacing,omitempty"`
	PaddingL    float64 `json:"paddingL,omitempty"`
	PaddingR    float64 `json:"paddingR,omitempty"`
	PaddingT    float64 `json:"paddingT,omitempty"`
	PaddingB    float64 `json:"paddingB,omitempty"`
}

// ComponentResolver resolves an instance's defining component name.
// Lookups are asynchronous on the host side.
type ComponentResolver interface {
	ComponentName(ctx context.Context, componentID string) (string, error)
}

// Serializer converts document nodes into SerializedNode records.
// It is read-only with respect to the document.
type Serializer struct {
	resolver ComponentResolver
	varNames map[string]string
	logger   *slog.Logger
}

// NewSerializer creates a Serializer. resolver may be nil (component
// names are then left unresolved). varNames maps variable identifiers to
// human-readable token names and may be nil.
func NewSerializer(resolver ComponentResolver, varNames map[string]string, logger *slog.Logger) *Serializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Serializer{
		resolver: resolver,
		varNames: varNames,
		logger:   logger,
	}
}

// Serialize converts node and its descendants into a SerializedNode.
// When depth has reached maxDepth, child-bearing nodes carry only their
// child count and recursion stops. A node whose properties are partially
// unavailable degrades to omitting those fields; Serialize never fails
// for a single missing property.
func (s *Serializer) Serialize(ctx context.Context, node *document.Node, depth, maxDepth int) *SerializedNode {
	out := &SerializedNode{
		ID:     node.ID,
		Name:   node.Name,
		Type:   string(node.Kind),
		X:      roundInt(node.X),
		Y:      roundInt(node.Y),
		Width:  roundInt(node.Width),
		Height: roundInt(node.Height),
	}

	if node.Opacity != nil && !isDefault(PropOpacity, *node.Opacity) {
		v := round3(*node.Opacity)
		out.Opacity = &v
	}
	if node.Visible != nil && !isDefault(PropVisible, *node.Visible) {
		v := *node.Visible
		out.Visible = &v
	}
	if node.CornerRadius != nil && !isDefault(PropCornerRadius, *node.CornerRadius) {
		v := *node.CornerRadius
		out.CornerRadius = &v
	}
	if node.BlendMode != "" && !isDefault(PropBlendMode, node.BlendMode) {
		out.BlendMode = string(node.BlendMode)
	}

	out.Fills = s.serializePaints(node.Fills)
	out.Strokes = s.serializePaints(node.Strokes)
	out.Effects = node.Effects

	if node.Text != nil {
		out.Text = s.serializeText(node.Text)
	}
	if node.Layout != nil && !isDefault(PropLayoutMode, node.Layout.Mode) {
		out.Layout = &SerializedLayout{
			Mode:        string(node.Layout.Mode),
			ItemSpacing: node.Layout.ItemSpacing,
			PaddingL:    node.Layout.PaddingL,
			PaddingR:    node.Layout.PaddingR,
			PaddingT:    node.Layout.PaddingT,
			PaddingB:    node.Layout.PaddingB,
		}
	}

	if node.Kind == document.KindInstance && node.ComponentID != "" {
		out.Component = s.componentName(ctx, node.ComponentID)
	}

	if node.Kind.SupportsChildren() {
		if depth < maxDepth {
			children := make([]*SerializedNode, 0, len(node.Children))
			for _, child := range node.Children {
				if child == nil {
					continue
				}
				children = append(children, s.Serialize(ctx, child, depth+1, maxDepth))
			}
			out.Children = children
		} else {
			count := len(node.Children)
			out.ChildCount = &count
		}
	}

	return out
}

// serializePaints converts paints, dropping invisible entries, rounding
// color channels to 3 decimals, and resolving variable bindings to names.
func (s *Serializer) serializePaints(paints []document.Paint) []SerializedPaint {
	if len(paints) == 0 {
		return nil
	}
	result := make([]SerializedPaint, 0, len(paints))
	for _, p := range paints {
		if p.Visible != nil && !*p.Visible {
			continue
		}
		sp := SerializedPaint{Type: string(p.Type)}
		if p.Color != nil {
			sp.Color = &document.RGB{
				R: round3(p.Color.R),
				G: round3(p.Color.G),
				B: round3(p.Color.B),
			}
		}
		if p.Opacity != nil && !isDefault(PropPaintOpacity, *p.Opacity) {
			v := round3(*p.Opacity)
			sp.Opacity = &v
		}
		if p.BoundVariableID != "" {
			if name, ok := s.varNames[p.BoundVariableID]; ok {
				sp.Variable = name
			}
		}
		result = append(result, sp)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func (s *Serializer) serializeText(t *document.TextProps) *SerializedText {
	st := &SerializedText{
		Characters: t.Characters,
		FontFamily: t.FontFamily,
		FontStyle:  t.FontStyle,
		FontSize:   t.FontSize,
	}
	if !isDefault(PropTextAlignH, t.AlignH) {
		st.AlignH = t.AlignH
	}
	if !isDefault(PropTextAlignV, t.AlignV) {
		st.AlignV = t.AlignV
	}
	return st
}

// componentName resolves the defining component's name, degrading to ""
// when the resolver is absent or the lookup fails.
func (s *Serializer) componentName(ctx context.Context, componentID string) string {
	if s.resolver == nil {
		return ""
	}
	name, err := s.resolver.ComponentName(ctx, componentID)
	if err != nil {
		s.logger.Debug("component name lookup failed", "component_id", componentID, "error", err)
		return ""
	}
	return name
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
