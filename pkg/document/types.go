// Package document defines the data contract between the canvas host and
// the assistant core: a closed set of node kinds, their geometry, and the
// optional capability properties each kind may carry.
package document

// NodeKind discriminates the variant of a Node.
type NodeKind string

// Supported node kinds.
const (
	KindPage      NodeKind = "PAGE"
	KindFrame     NodeKind = "FRAME"
	KindGroup     NodeKind = "GROUP"
	KindComponent NodeKind = "COMPONENT"
	KindInstance  NodeKind = "INSTANCE"
	KindText      NodeKind = "TEXT"
	KindRectangle NodeKind = "RECTANGLE"
	KindEllipse   NodeKind = "ELLIPSE"
	KindVector    NodeKind = "VECTOR"
	KindLine      NodeKind = "LINE"
	KindPolygon   NodeKind = "POLYGON"
	KindStar      NodeKind = "STAR"
	KindBoolean   NodeKind = "BOOLEAN_OPERATION"
	KindSlice     NodeKind = "SLICE"
)

// childBearing is the closed set of kinds that can hold children.
var childBearing = map[NodeKind]bool{
	KindPage:      true,
	KindFrame:     true,
	KindGroup:     true,
	KindComponent: true,
	KindInstance:  true,
	KindBoolean:   true,
}

// SupportsChildren reports whether the kind can hold child nodes.
func (k NodeKind) SupportsChildren() bool {
	return childBearing[k]
}

// BlendMode identifies how a node composites over its backdrop.
type BlendMode string

// Blend modes that count as "no blending" and are omitted from context.
const (
	BlendNormal      BlendMode = "NORMAL"
	BlendPassThrough BlendMode = "PASS_THROUGH"
)

// TextAlign values for horizontal and vertical text alignment.
const (
	AlignLeft   = "LEFT"
	AlignCenter = "CENTER"
	AlignRight  = "RIGHT"
	AlignTop    = "TOP"
	AlignBottom = "BOTTOM"
)

// LayoutMode identifies the auto-layout direction of a container.
type LayoutMode string

// Layout modes.
const (
	LayoutNone       LayoutMode = "NONE"
	LayoutHorizontal LayoutMode = "HORIZONTAL"
	LayoutVertical   LayoutMode = "VERTICAL"
)

// RGB is a color in the unit cube. Channels are in [0, 1].
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// PaintType discriminates the variant of a Paint.
type PaintType string

// Supported paint types.
const (
	PaintSolid          PaintType = "SOLID"
	PaintGradientLinear PaintType = "GRADIENT_LINEAR"
	PaintGradientRadial PaintType = "GRADIENT_RADIAL"
	PaintImage          PaintType = "IMAGE"
)

// Paint is one fill or stroke entry. Color is meaningful for solid paints;
// BoundVariableID carries the design-token binding when the host reports one.
type Paint struct {
	Type            PaintType `json:"type"`
	Color           *RGB      `json:"color,omitempty"`
	Opacity         *float64  `json:"opacity,omitempty"`
	Visible         *bool     `json:"visible,omitempty"`
	BoundVariableID string    `json:"bound_variable_id,omitempty"`
}

// Effect is a visual effect such as a drop shadow or blur.
type Effect struct {
	Type   string   `json:"type"`
	Radius float64  `json:"radius,omitempty"`
	Color  *RGB     `json:"color,omitempty"`
	Offset *Vector2 `json:"offset,omitempty"`
}

// Vector2 is a 2D offset.
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TextProps carries the text capability of KindText nodes.
type TextProps struct {
	Characters string  `json:"characters"`
	FontFamily string  `json:"font_family,omitempty"`
	FontStyle  string  `json:"font_style,omitempty"`
	FontSize   float64 `json:"font_size,omitempty"`
	AlignH     string  `json:"align_h,omitempty"`
	AlignV     string  `json:"align_v,omitempty"`
}

// LayoutProps carries the auto-layout capability of container nodes.
type LayoutProps struct {
	Mode        LayoutMode `json:"mode"`
	ItemSpacing float64    `json:"item_spacing,omitempty"`
	PaddingL    float64    `json:"padding_l,omitempty"`
	PaddingR    float64    `json:"padding_r,omitempty"`
	PaddingT    float64    `json:"padding_t,omitempty"`
	PaddingB    float64    `json:"padding_b,omitempty"`
}

// Node is one element of the host's document tree as mirrored to the core.
// Optional capability fields are pointers: a nil pointer means the host did
// not report the property (or the kind cannot possess it), and the
// serializer must omit it rather than fail.
type Node struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Kind NodeKind `json:"kind"`

	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Opacity      *float64     `json:"opacity,omitempty"`
	Visible      *bool        `json:"visible,omitempty"`
	CornerRadius *float64     `json:"corner_radius,omitempty"`
	BlendMode    BlendMode    `json:"blend_mode,omitempty"`
	Fills        []Paint      `json:"fills,omitempty"`
	Strokes      []Paint      `json:"strokes,omitempty"`
	Effects      []Effect     `json:"effects,omitempty"`
	Text         *TextProps   `json:"text,omitempty"`
	Layout       *LayoutProps `json:"layout,omitempty"`

	// ComponentID links an instance back to its defining component.
	ComponentID string `json:"component_id,omitempty"`

	// Children is nil for leaf kinds. A child-bearing kind with no
	// children carries an empty non-nil slice.
	Children []*Node `json:"children,omitempty"`
}

// RightEdge returns the x coordinate of the node's right edge.
func (n *Node) RightEdge() float64 {
	return n.X + n.Width
}
