package symbology

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/papapumpkin/aprx/internal/document"
)

// layerJSON parses a layer document fixture.
func layerJSON(t *testing.T, src string) document.Object {
	t.Helper()
	doc, err := document.Parse("layer.json", []byte(src))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc.Root
}

// withStack wraps symbol layers in the renderer -> symbol -> symbol tree.
func withStack(layers string) string {
	return `{"name":"Fixture","renderer":{"type":"CIMSimpleRenderer","symbol":{"type":"CIMSymbolReference","symbol":{"type":"CIMPolygonSymbol","symbolLayers":` + layers + `}}}}`
}

func rgba(r, g, b, a int) *RGBA { return &RGBA{R: r, G: g, B: b, A: a} }

func TestExtractStyle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want *Style
	}{
		{
			name: "disabled fill ignored",
			src: withStack(`[
				{"type":"CIMSolidFill","enable":false,"color":{"type":"CIMRGBColor","values":[1,2,3,100]}},
				{"type":"CIMSolidFill","enable":true,"color":{"type":"CIMRGBColor","values":[10,20,30,100]}}
			]`),
			want: &Style{Fill: &Fill{Color: RGBA{10, 20, 30, 100}}},
		},
		{
			name: "stroke and fill are independent",
			src: withStack(`[
				{"type":"CIMSolidStroke","enable":true,"width":2,"color":{"type":"CIMRGBColor","values":[255,190,190,100]}},
				{"type":"CIMSolidFill","enable":true,"color":{"type":"CIMRGBColor","values":[156,156,156,100]}}
			]`),
			want: &Style{
				Stroke: &Stroke{Width: 2, Color: RGBA{255, 190, 190, 100}},
				Fill:   &Fill{Color: RGBA{156, 156, 156, 100}},
			},
		},
		{
			name: "last enabled stroke wins",
			src: withStack(`[
				{"type":"CIMSolidStroke","enable":true,"width":1,"color":[0,0,0,100]},
				{"type":"CIMSolidStroke","enable":true,"width":3,"color":[9,9,9,50]},
				{"type":"CIMSolidStroke","enable":false,"width":7,"color":[1,1,1,100]}
			]`),
			want: &Style{Stroke: &Stroke{Width: 3, Color: RGBA{9, 9, 9, 50}}},
		},
		{
			name: "disabled layer with malformed color is not decoded",
			src: withStack(`[
				{"type":"CIMSolidFill","enable":false,"color":{"values":[1,2]}},
				{"type":"CIMSolidFill","enable":true,"color":[4,5,6,100]}
			]`),
			want: &Style{Fill: &Fill{Color: RGBA{4, 5, 6, 100}}},
		},
		{
			name: "missing enable defaults to disabled",
			src:  withStack(`[{"type":"CIMSolidFill","color":[4,5,6,100]}]`),
			want: &Style{},
		},
		{
			name: "non rgb color model yields no fill",
			src:  withStack(`[{"type":"CIMSolidFill","enable":true,"color":{"type":"CIMHSVColor","values":[0,0,50,100]}}]`),
			want: &Style{},
		},
		{
			name: "other layer types ignored",
			src:  withStack(`[{"type":"CIMHatchFill","enable":true}, "junk", 4]`),
			want: &Style{},
		},
		{
			name: "missing stack is empty style",
			src:  `{"renderer":{"symbol":{"symbol":{"type":"CIMPolygonSymbol"}}}}`,
			want: &Style{},
		},
		{
			name: "missing renderer",
			src:  `{"name":"No renderer"}`,
			want: nil,
		},
		{
			name: "missing inner symbol",
			src:  `{"renderer":{"symbol":{"type":"CIMSymbolReference"}}}`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ExtractStyle(layerJSON(t, tt.src))
			if err != nil {
				t.Fatalf("ExtractStyle: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExtractStyle mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractStyle_Malformed(t *testing.T) {
	t.Parallel()

	for name, src := range map[string]string{
		"three channels": withStack(`[{"type":"CIMSolidFill","enable":true,"color":{"values":[1,2,3]}}]`),
		"string channel": withStack(`[{"type":"CIMSolidStroke","enable":true,"color":{"values":[1,"2",3,4]}}]`),
		"values object":  withStack(`[{"type":"CIMSolidFill","enable":true,"color":{"values":{"r":1}}}]`),
		"color scalar":   withStack(`[{"type":"CIMSolidFill","enable":true,"color":7}]`),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ExtractStyle(layerJSON(t, src))
			if !errors.Is(err, ErrMalformedSymbology) {
				t.Fatalf("error = %v, want ErrMalformedSymbology", err)
			}
			var se *SymbologyError
			if !errors.As(err, &se) {
				t.Fatalf("error %T is not a *SymbologyError", err)
			}
			if se.Layer != "Fixture" {
				t.Errorf("Layer = %q, want %q", se.Layer, "Fixture")
			}
			if se.Field == "" {
				t.Error("Field is empty")
			}
		})
	}
}

func TestExtractSymbol(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want *Symbol
	}{
		{
			name: "vector marker uses last graphic and its last layer",
			src: withStack(`[
				{"type":"CIMVectorMarker","enable":true,"size":8,"markerGraphics":[
					{"type":"CIMMarkerGraphic","symbol":{"symbolLayers":[
						{"type":"CIMSolidFill","enable":true,"color":{"values":[1,1,1,100]}}
					]}},
					{"type":"CIMMarkerGraphic","symbol":{"symbolLayers":[
						{"type":"CIMSolidStroke","enable":true,"color":{"values":[0,0,0,100]}},
						{"type":"CIMSolidFill","enable":true,"color":{"values":[133,0,44,100]}}
					]}}
				]}
			]`),
			want: &Symbol{Type: TypeVectorMarker, Enabled: true, Size: 8, Color: rgba(133, 0, 44, 100)},
		},
		{
			name: "vector marker with inline symbol layers",
			src: withStack(`[
				{"type":"CIMVectorMarker","enable":true,"size":4,"markerGraphics":[
					{"symbolLayers":[{"type":"CIMSolidFill","color":[7,8,9,100]}]}
				]}
			]`),
			want: &Symbol{Type: TypeVectorMarker, Enabled: true, Size: 4, Color: rgba(7, 8, 9, 100)},
		},
		{
			name: "character marker",
			src: withStack(`[
				{"type":"CIMSolidFill","enable":true,"color":[0,0,0,100]},
				{"type":"CIMCharacterMarker","enable":true,"size":12,"symbol":{"symbolLayers":[
					{"type":"CIMSolidStroke","color":{"values":[5,5,5,100]}},
					{"type":"CIMSolidFill","color":{"values":[255,0,0,80]}}
				]}}
			]`),
			want: &Symbol{Type: TypeCharacterMarker, Enabled: true, Size: 12, Color: rgba(255, 0, 0, 80)},
		},
		{
			name: "other tag reports header only",
			src:  withStack(`[{"type":"CIMPictureMarker","enable":true,"size":16}]`),
			want: &Symbol{Type: "CIMPictureMarker", Enabled: true, Size: 16},
		},
		{
			name: "defaults when header fields are missing",
			src:  withStack(`[{"type":"CIMVectorMarker"}]`),
			want: &Symbol{Type: TypeVectorMarker},
		},
		{
			name: "empty stack",
			src:  withStack(`[]`),
			want: nil,
		},
		{
			name: "missing renderer",
			src:  `{}`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ExtractSymbol(layerJSON(t, tt.src))
			if err != nil {
				t.Fatalf("ExtractSymbol: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExtractSymbol mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractSymbol_MalformedMarkerColor(t *testing.T) {
	t.Parallel()
	src := withStack(`[{"type":"CIMVectorMarker","enable":true,"markerGraphics":[
		{"symbol":{"symbolLayers":[{"type":"CIMSolidFill","color":{"values":[1,2,3,4,5]}}]}}
	]}]`)
	_, err := ExtractSymbol(layerJSON(t, src))
	if !errors.Is(err, ErrMalformedSymbology) {
		t.Fatalf("error = %v, want ErrMalformedSymbology", err)
	}
}

func TestExtractLabels(t *testing.T) {
	t.Parallel()

	const populated = `"labelClasses":[
		{"expression":"$feature.NAME","expressionEngine":"Arcade",
		 "textSymbol":{"type":"CIMSymbolReference","symbol":{"type":"CIMTextSymbol","fontFamilyName":"Tahoma","fontStyleName":"Bold","height":10}}},
		{"expression":"[OTHER]","expressionEngine":"VBScript"}
	]`

	tests := []struct {
		name string
		src  string
		want LabelInfo
	}{
		{
			name: "hidden ignores label classes",
			src:  `{"labelVisibility":false,` + populated + `}`,
			want: LabelInfo{},
		},
		{
			name: "visibility defaults to hidden",
			src:  `{` + populated + `}`,
			want: LabelInfo{},
		},
		{
			name: "shown uses first class",
			src:  `{"labelVisibility":true,` + populated + `}`,
			want: LabelInfo{
				Shown:      true,
				Font:       &Font{Family: "Tahoma", Style: "Bold", Size: 10},
				Expression: &Expression{Value: "$feature.NAME", Engine: "Arcade"},
			},
		},
		{
			name: "shown without classes",
			src:  `{"labelVisibility":true,"labelClasses":[]}`,
			want: LabelInfo{Shown: true},
		},
		{
			name: "shown with absent classes",
			src:  `{"labelVisibility":true}`,
			want: LabelInfo{Shown: true},
		},
		{
			name: "class without text symbol",
			src:  `{"labelVisibility":true,"labelClasses":[{"expression":"x"}]}`,
			want: LabelInfo{Shown: true, Expression: &Expression{Value: "x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ExtractLabels(layerJSON(t, tt.src))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExtractLabels mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeSymbolLayers(t *testing.T) {
	t.Parallel()
	root := layerJSON(t, `{"stack":[
		{"type":"CIMSolidStroke","enable":true,"width":1.5,"color":[1,2,3,100]},
		{"type":"CIMSolidFill","enable":false},
		"skip-me",
		{"type":"CIMHatchFill","enable":true}
	]}`)
	stack, _ := root.Array("stack")

	got, err := DecodeSymbolLayers(stack)
	if err != nil {
		t.Fatalf("DecodeSymbolLayers: %v", err)
	}
	want := []SymbolLayer{
		SolidStroke{Header: Header{Type: TypeSolidStroke, Enabled: true}, Width: 1.5, Color: rgba(1, 2, 3, 100)},
		SolidFill{Header: Header{Type: TypeSolidFill}},
		OtherLayer{Header: Header{Type: "CIMHatchFill", Enabled: true}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeSymbolLayers mismatch (-want +got):\n%s", diff)
	}
}

func TestRGBA(t *testing.T) {
	t.Parallel()

	if (RGBA{1, 2, 3, 100}).Equal(RGBA{1, 2, 3, 99}) {
		t.Error("colors differing in alpha compared equal")
	}
	if !(RGBA{1, 2, 3, 100}).Equal(RGBA{1, 2, 3, 100}) {
		t.Error("identical colors compared unequal")
	}

	tests := []struct {
		in      string
		want    RGBA
		wantErr bool
	}{
		{"133,0,44,100", RGBA{133, 0, 44, 100}, false},
		{" 1, 2 ,3 ", RGBA{1, 2, 3, 100}, false},
		{"1,2", RGBA{}, true},
		{"a,b,c,d", RGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseRGBA(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRGBA(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRGBA(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := (RGBA{9, 8, 7, 6}).String(); got != "9,8,7,6" {
		t.Errorf("String() = %q", got)
	}
}

func TestReadColor_Rounds(t *testing.T) {
	t.Parallel()
	root := layerJSON(t, `{"color":{"type":"CIMRGBColor","values":[132.6,0.4,44,99.5]}}`)
	got, err := readColor(root, "x")
	if err != nil {
		t.Fatalf("readColor: %v", err)
	}
	if diff := cmp.Diff(rgba(133, 0, 44, 100), got); diff != "" {
		t.Errorf("readColor mismatch (-want +got):\n%s", diff)
	}
}
