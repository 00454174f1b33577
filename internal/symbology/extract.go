// Package symbology interprets a layer's renderer tree into normalized,
// comparable values: the point Symbol, the area/line Style and the
// LabelInfo. All functions are pure; missing structure yields nil or zero
// values and only uninterpretable values are reported as errors.
package symbology

import (
	"fmt"

	"github.com/papapumpkin/aprx/internal/document"
)

// Symbol is the normalized top symbol layer of a layer's renderer.
type Symbol struct {
	Type    string
	Enabled bool
	Size    float64
	Color   *RGBA // nil for unrecognized layer types or when no color is found
}

// Stroke is an enabled solid outline.
type Stroke struct {
	Width float64
	Color RGBA
}

// Fill is an enabled solid fill.
type Fill struct {
	Color RGBA
}

// Style is the merged stroke and fill of a symbol-layer stack. Stroke and
// fill are independent; either, both or neither may be set.
type Style struct {
	Stroke *Stroke
	Fill   *Fill
}

const stackField = "renderer.symbol.symbol.symbolLayers"

// stack descends renderer -> symbol -> symbol and returns its symbolLayers.
// found is false when any of the three objects is missing.
func stack(layer document.Object) (layers []any, found bool) {
	sym, ok := layer.Path("renderer", "symbol", "symbol")
	if !ok {
		return nil, false
	}
	layers, _ = sym.Array("symbolLayers")
	return layers, true
}

// ExtractSymbol returns the top (last) entry of the layer's symbol-layer
// stack. It returns nil, nil when the renderer tree is missing or the stack
// is empty.
func ExtractSymbol(layer document.Object) (*Symbol, error) {
	layers, _ := stack(layer)
	top, ok := last(layers)
	if !ok {
		return nil, nil
	}

	sl, err := decodeLayer(top, fmt.Sprintf("%s[%d]", stackField, len(layers)-1))
	if err != nil {
		return nil, withLayer(err, layerName(layer))
	}

	h := sl.header()
	out := &Symbol{Type: h.Type, Enabled: h.Enabled, Size: h.Size}
	switch l := sl.(type) {
	case VectorMarker:
		out.Color = l.Color
	case CharacterMarker:
		out.Color = l.Color
	case SolidStroke, SolidFill, OtherLayer:
		// Not a marker; the symbol carries no color.
	}
	return out, nil
}

// ExtractStyle merges the whole symbol-layer stack in order: the last
// enabled solid stroke and the last enabled solid fill win. Disabled layers
// are skipped without being decoded. It returns nil, nil when the renderer
// tree is missing and an empty Style when only the stack is missing.
func ExtractStyle(layer document.Object) (*Style, error) {
	layers, found := stack(layer)
	if !found {
		return nil, nil
	}

	out := &Style{}
	for i, v := range layers {
		obj, ok := document.AsObject(v)
		if !ok {
			continue
		}
		if on, _ := obj.Bool("enable"); !on {
			continue
		}
		sl, err := decodeLayer(obj, fmt.Sprintf("%s[%d]", stackField, i))
		if err != nil {
			return nil, withLayer(err, layerName(layer))
		}
		switch l := sl.(type) {
		case SolidStroke:
			if l.Color != nil {
				out.Stroke = &Stroke{Width: l.Width, Color: *l.Color}
			}
		case SolidFill:
			if l.Color != nil {
				out.Fill = &Fill{Color: *l.Color}
			}
		case VectorMarker, CharacterMarker, OtherLayer:
		}
	}
	return out, nil
}

func layerName(layer document.Object) string {
	name, _ := layer.String("name")
	return name
}
