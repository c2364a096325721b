// Package scene converts the host's document tree into a bounded textual
// context for the model: per-node serialization with default-value
// omission, and token-budgeted depth degradation.
package scene

import "github.com/witxhhaven/fig-design-assistant/pkg/document"

// Property names an omittable node property.
type Property string

// Omittable properties.
const (
	PropOpacity      Property = "opacity"
	PropVisible      Property = "visible"
	PropCornerRadius Property = "corner_radius"
	PropBlendMode    Property = "blend_mode"
	PropTextAlignH   Property = "text_align_h"
	PropTextAlignV   Property = "text_align_v"
	PropLayoutMode   Property = "layout_mode"
	PropPaintOpacity Property = "paint_opacity"
)

// propertyDefaults is the single source of truth for which values are
// considered "the default" and therefore omitted from serialized output.
// Each entry lists every value that counts as default for that property.
var propertyDefaults = map[Property][]any{
	PropOpacity:      {1.0},
	PropVisible:      {true},
	PropCornerRadius: {0.0},
	PropBlendMode:    {document.BlendNormal, document.BlendPassThrough},
	PropTextAlignH:   {document.AlignLeft, ""},
	PropTextAlignV:   {document.AlignTop, ""},
	PropLayoutMode:   {document.LayoutNone, document.LayoutMode("")},
	PropPaintOpacity: {1.0},
}

// isDefault reports whether v matches one of the property's default values.
// Unknown properties are never default, so they are always emitted.
func isDefault(prop Property, v any) bool {
	for _, d := range propertyDefaults[prop] {
		if d == v {
			return true
		}
	}
	return false
}
