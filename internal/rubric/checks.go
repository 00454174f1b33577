package rubric

import (
	"fmt"
	"math"
	"strings"

	"github.com/papapumpkin/aprx/internal/project"
	"github.com/papapumpkin/aprx/internal/symbology"
)

const widthEpsilon = 1e-9

func checkStyle(l *project.Layer, c Criterion) []string {
	style, err := l.Style()
	if err != nil {
		return []string{err.Error()}
	}
	if style == nil {
		return []string{fmt.Sprintf("layer %s has no renderer", l.ID())}
	}

	var problems []string
	if c.Fill != "" {
		if style.Fill == nil {
			problems = append(problems, "no enabled fill")
		} else {
			problems = appendColor(problems, "fill", style.Fill.Color, c.Fill)
		}
	}
	if c.Stroke != "" || c.StrokeWidth != 0 {
		if style.Stroke == nil {
			problems = append(problems, "no enabled stroke")
		} else {
			if c.Stroke != "" {
				problems = appendColor(problems, "stroke", style.Stroke.Color, c.Stroke)
			}
			if c.StrokeWidth != 0 && math.Abs(style.Stroke.Width-c.StrokeWidth) > widthEpsilon {
				problems = append(problems, fmt.Sprintf("stroke width is %g, want %g", style.Stroke.Width, c.StrokeWidth))
			}
		}
	}
	return problems
}

func checkSymbol(l *project.Layer, c Criterion) []string {
	sym, err := l.Symbol()
	if err != nil {
		return []string{err.Error()}
	}
	if sym == nil {
		return []string{fmt.Sprintf("layer %s has no symbol", l.ID())}
	}

	var problems []string
	if c.SymbolType != "" && sym.Type != c.SymbolType {
		problems = append(problems, fmt.Sprintf("symbol type is %s, want %s", sym.Type, c.SymbolType))
	}
	if c.Color != "" {
		if sym.Color == nil {
			problems = append(problems, "symbol has no color")
		} else {
			problems = appendColor(problems, "symbol color", *sym.Color, c.Color)
		}
	}
	if c.Size != 0 && math.Abs(sym.Size-c.Size) > widthEpsilon {
		problems = append(problems, fmt.Sprintf("symbol size is %g, want %g", sym.Size, c.Size))
	}
	return problems
}

func checkLabels(l *project.Layer, c Criterion) []string {
	info := l.Labels()

	var problems []string
	if c.Shown != nil && info.Shown != *c.Shown {
		problems = append(problems, fmt.Sprintf("labels shown is %t, want %t", info.Shown, *c.Shown))
	}
	if c.FontFamily != "" || c.FontStyle != "" {
		switch {
		case info.Font == nil:
			problems = append(problems, "no label font")
		default:
			if c.FontFamily != "" && !strings.EqualFold(info.Font.Family, c.FontFamily) {
				problems = append(problems, fmt.Sprintf("font family is %q, want %q", info.Font.Family, c.FontFamily))
			}
			if c.FontStyle != "" && !strings.EqualFold(info.Font.Style, c.FontStyle) {
				problems = append(problems, fmt.Sprintf("font style is %q, want %q", info.Font.Style, c.FontStyle))
			}
		}
	}
	if c.Expression != "" {
		switch {
		case info.Expression == nil:
			problems = append(problems, "no label expression")
		case strings.TrimSpace(info.Expression.Value) != strings.TrimSpace(c.Expression):
			problems = append(problems, fmt.Sprintf("expression is %q, want %q", info.Expression.Value, c.Expression))
		}
	}
	return problems
}

func appendColor(problems []string, what string, got symbology.RGBA, want string) []string {
	exp, err := symbology.ParseRGBA(want)
	if err != nil {
		return append(problems, fmt.Sprintf("%s: %v", what, err))
	}
	if !got.Equal(exp) {
		return append(problems, fmt.Sprintf("%s is %s, want %s", what, got, exp))
	}
	return problems
}
