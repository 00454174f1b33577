package symbology

import "github.com/papapumpkin/aprx/internal/document"

// Font describes the text symbol of a label class.
type Font struct {
	Family string
	Style  string
	Size   float64
}

// Expression is the label text expression and the engine evaluating it
// (Arcade, Python, VBScript, JScript).
type Expression struct {
	Value  string
	Engine string
}

// LabelInfo summarizes a layer's labeling.
type LabelInfo struct {
	Shown      bool
	Font       *Font
	Expression *Expression
}

// ExtractLabels reads labelVisibility and the first label class. Hidden
// labels report nothing else, whatever the label classes contain. Shown
// labels without any label class report Shown only.
func ExtractLabels(layer document.Object) LabelInfo {
	shown, _ := layer.Bool("labelVisibility")
	if !shown {
		return LabelInfo{}
	}

	info := LabelInfo{Shown: true}
	classes, _ := layer.Array("labelClasses")
	if len(classes) == 0 {
		return info
	}
	cls, ok := document.AsObject(classes[0])
	if !ok {
		return info
	}

	if ts, ok := textSymbol(cls); ok {
		f := &Font{}
		f.Family, _ = ts.String("fontFamilyName")
		f.Style, _ = ts.String("fontStyleName")
		f.Size, _ = ts.Number("height")
		info.Font = f
	}
	if v, ok := cls.String("expression"); ok {
		engine, _ := cls.String("expressionEngine")
		info.Expression = &Expression{Value: v, Engine: engine}
	}
	return info
}

// textSymbol returns the CIMTextSymbol of a label class, which is usually
// wrapped in a symbol reference.
func textSymbol(cls document.Object) (document.Object, bool) {
	ref, ok := cls.Child("textSymbol")
	if !ok {
		return nil, false
	}
	if sym, ok := ref.Child("symbol"); ok {
		return sym, true
	}
	return ref, true
}
