package symbology

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/papapumpkin/aprx/internal/document"
)

// RGBA is a color with integer channels. Alpha uses the 0-100 scale of the
// archive format.
type RGBA struct {
	R, G, B, A int
}

// Equal reports whether all four channels match exactly.
func (c RGBA) Equal(other RGBA) bool {
	return c == other
}

// String formats c as "r,g,b,a", the form ParseRGBA accepts.
func (c RGBA) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", c.R, c.G, c.B, c.A)
}

// ParseRGBA parses "r,g,b,a". The alpha channel may be omitted and then
// defaults to 100 (opaque).
func ParseRGBA(s string) (RGBA, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return RGBA{}, fmt.Errorf("color %q: want 3 or 4 comma-separated channels", s)
	}
	ch := [4]int{0, 0, 0, 100}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return RGBA{}, fmt.Errorf("color %q: channel %d: %w", s, i, err)
		}
		ch[i] = n
	}
	return RGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

// readColor reads the color of a symbol layer. The color is normally an
// object {"type": "CIMRGBColor", "values": [r, g, b, a]}; a bare channel
// array is accepted too. Colors in other models and colors without values
// yield nil. A values field of the wrong shape is an error.
func readColor(layer document.Object, field string) (*RGBA, error) {
	v, ok := layer.Value("color")
	if !ok {
		return nil, nil
	}
	if arr, ok := v.([]any); ok {
		return channels(arr, field+".color")
	}
	obj, ok := document.AsObject(v)
	if !ok {
		return nil, malformed(field+".color", "want object or channel array, got %T", v)
	}
	if t, ok := obj.String("type"); ok && t != "CIMRGBColor" {
		return nil, nil
	}
	vals, ok := obj.Value("values")
	if !ok {
		return nil, nil
	}
	arr, ok := vals.([]any)
	if !ok {
		return nil, malformed(field+".color.values", "want array, got %T", vals)
	}
	return channels(arr, field+".color.values")
}

func channels(arr []any, field string) (*RGBA, error) {
	if len(arr) != 4 {
		return nil, malformed(field, "want 4 channels, got %d", len(arr))
	}
	var ch [4]int
	for i, v := range arr {
		f, ok := v.(float64)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, malformed(field, "channel %d is not a number: %v", i, v)
		}
		ch[i] = int(math.Round(f))
	}
	return &RGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}
