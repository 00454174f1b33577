package symbology

import (
	"fmt"

	"github.com/papapumpkin/aprx/internal/document"
)

// Symbol layer type tags handled explicitly.
const (
	TypeSolidStroke     = "CIMSolidStroke"
	TypeSolidFill       = "CIMSolidFill"
	TypeVectorMarker    = "CIMVectorMarker"
	TypeCharacterMarker = "CIMCharacterMarker"
)

// Header holds the fields every symbol layer reports whatever its type.
type Header struct {
	Type    string
	Enabled bool
	Size    float64
}

func (h Header) header() Header { return h }

// SymbolLayer is one decoded entry of a symbol-layer stack. The set of
// implementations is closed: SolidStroke, SolidFill, VectorMarker,
// CharacterMarker and OtherLayer.
type SymbolLayer interface {
	header() Header
}

// SolidStroke is a CIMSolidStroke outline.
type SolidStroke struct {
	Header
	Width float64
	Color *RGBA
}

// SolidFill is a CIMSolidFill area fill.
type SolidFill struct {
	Header
	Color *RGBA
}

// VectorMarker is a CIMVectorMarker. Color is taken from the top symbol
// layer of its top marker graphic; lower graphics are not consulted.
type VectorMarker struct {
	Header
	Color *RGBA
}

// CharacterMarker is a CIMCharacterMarker (a font glyph). Color is taken
// from the top layer of its glyph symbol.
type CharacterMarker struct {
	Header
	Color *RGBA
}

// OtherLayer is any symbol layer type without a dedicated decoder, such as
// hatch fills or picture markers.
type OtherLayer struct {
	Header
}

// DecodeSymbolLayer decodes one symbol-layer object into its variant.
func DecodeSymbolLayer(obj document.Object) (SymbolLayer, error) {
	return decodeLayer(obj, "symbolLayer")
}

// DecodeSymbolLayers decodes every object entry of a symbol-layer stack,
// keeping stack order. Non-object entries are skipped.
func DecodeSymbolLayers(stack []any) ([]SymbolLayer, error) {
	out := make([]SymbolLayer, 0, len(stack))
	for i, v := range stack {
		obj, ok := document.AsObject(v)
		if !ok {
			continue
		}
		sl, err := decodeLayer(obj, fmt.Sprintf("symbolLayers[%d]", i))
		if err != nil {
			return nil, err
		}
		out = append(out, sl)
	}
	return out, nil
}

func decodeLayer(obj document.Object, field string) (SymbolLayer, error) {
	h := decodeHeader(obj)
	switch h.Type {
	case TypeSolidStroke:
		c, err := readColor(obj, field)
		if err != nil {
			return nil, err
		}
		w, _ := obj.Number("width")
		return SolidStroke{Header: h, Width: w, Color: c}, nil

	case TypeSolidFill:
		c, err := readColor(obj, field)
		if err != nil {
			return nil, err
		}
		return SolidFill{Header: h, Color: c}, nil

	case TypeVectorMarker:
		c, err := vectorMarkerColor(obj, field)
		if err != nil {
			return nil, err
		}
		return VectorMarker{Header: h, Color: c}, nil

	case TypeCharacterMarker:
		c, err := characterMarkerColor(obj, field)
		if err != nil {
			return nil, err
		}
		return CharacterMarker{Header: h, Color: c}, nil
	}
	return OtherLayer{Header: h}, nil
}

func decodeHeader(obj document.Object) Header {
	var h Header
	h.Type, _ = obj.String("type")
	h.Enabled, _ = obj.Bool("enable")
	h.Size, _ = obj.Number("size")
	return h
}

// vectorMarkerColor follows markerGraphics[last] -> its symbol layers[last]
// -> color.
func vectorMarkerColor(obj document.Object, field string) (*RGBA, error) {
	graphics, _ := obj.Array("markerGraphics")
	g, ok := last(graphics)
	if !ok {
		return nil, nil
	}
	gField := fmt.Sprintf("%s.markerGraphics[%d]", field, len(graphics)-1)

	stack, sField := nestedStack(g, gField)
	top, ok := last(stack)
	if !ok {
		return nil, nil
	}
	return readColor(top, fmt.Sprintf("%s[%d]", sField, len(stack)-1))
}

// characterMarkerColor follows symbol.symbolLayers[last] -> color.
func characterMarkerColor(obj document.Object, field string) (*RGBA, error) {
	sym, ok := obj.Child("symbol")
	if !ok {
		return nil, nil
	}
	stack, _ := sym.Array("symbolLayers")
	top, ok := last(stack)
	if !ok {
		return nil, nil
	}
	return readColor(top, fmt.Sprintf("%s.symbol.symbolLayers[%d]", field, len(stack)-1))
}

// nestedStack returns the symbol-layer stack of a marker graphic. Graphics
// normally wrap it in a symbol object; some writers inline it.
func nestedStack(g document.Object, field string) ([]any, string) {
	if sym, ok := g.Child("symbol"); ok {
		if stack, ok := sym.Array("symbolLayers"); ok {
			return stack, field + ".symbol.symbolLayers"
		}
	}
	stack, _ := g.Array("symbolLayers")
	return stack, field + ".symbolLayers"
}

// last returns the final element of arr when it is an object.
func last(arr []any) (document.Object, bool) {
	if len(arr) == 0 {
		return nil, false
	}
	return document.AsObject(arr[len(arr)-1])
}
