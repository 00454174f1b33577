package rubric

import (
	"fmt"
	"strings"

	"github.com/papapumpkin/aprx/internal/mapview"
	"github.com/papapumpkin/aprx/internal/project"
)

// CaptureOptions tunes FromProject.
type CaptureOptions struct {
	Title     string
	MapPrefix string            // map to capture; empty uses the first map
	Points    float64           // points per criterion; 0 means 1
	MinLayers int               // map_import threshold; 0 means min(4, layers)
	Tolerance mapview.Tolerance // written as the baseline tolerance
}

// FromProject captures the state of a reference project as a baseline: a
// map_import criterion over the layers of the captured map, one style or
// symbol criterion per styled layer, one labels criterion per labeled layer,
// and a map_view criterion for the first map frame that has a view.
func FromProject(p *project.Project, opts CaptureOptions) (*Baseline, error) {
	points := opts.Points
	if points == 0 {
		points = 1
	}

	maps := mapsWithPrefix(p, opts.MapPrefix)
	if len(maps) == 0 {
		return nil, fmt.Errorf("rubric: capture: no map named %q*", opts.MapPrefix)
	}
	m := maps[0]
	prefix := opts.MapPrefix
	if prefix == "" {
		prefix = m.Name()
	}

	layers, err := m.Layers()
	if err != nil {
		return nil, fmt.Errorf("rubric: capture: %w", err)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("rubric: capture: map %q has no layers", m.Name())
	}

	b := &Baseline{Title: opts.Title, Tolerance: opts.Tolerance}
	ids := make([]string, 0, len(layers))
	for _, l := range layers {
		ids = append(ids, l.ID())
	}
	need := opts.MinLayers
	if need == 0 || need > len(ids) {
		need = min(4, len(ids))
	}
	b.Criteria = append(b.Criteria, Criterion{
		ID:         "map-import",
		Kind:       KindMapImport,
		Points:     points,
		NamePrefix: prefix,
		LayerIDs:   ids,
		MinLayers:  need,
	})

	for _, l := range layers {
		cs, err := captureLayer(l, prefix, points)
		if err != nil {
			return nil, fmt.Errorf("rubric: capture: %w", err)
		}
		b.Criteria = append(b.Criteria, cs...)
	}

	if c, ok := captureView(p, prefix, points); ok {
		b.Criteria = append(b.Criteria, c)
	}
	return b, nil
}

func captureLayer(l *project.Layer, mapPrefix string, points float64) ([]Criterion, error) {
	var out []Criterion

	style, err := l.Style()
	if err != nil {
		return nil, err
	}
	switch {
	case style != nil && (style.Fill != nil || style.Stroke != nil):
		c := Criterion{ID: l.ID() + "-style", Kind: KindLayerStyle, Points: points, Map: mapPrefix, LayerID: l.ID()}
		if style.Fill != nil {
			c.Fill = style.Fill.Color.String()
		}
		if style.Stroke != nil {
			c.Stroke = style.Stroke.Color.String()
			c.StrokeWidth = style.Stroke.Width
		}
		out = append(out, c)
	default:
		sym, err := l.Symbol()
		if err != nil {
			return nil, err
		}
		if sym != nil && sym.Color != nil {
			out = append(out, Criterion{
				ID:         l.ID() + "-symbol",
				Kind:       KindLayerSymbol,
				Points:     points,
				Map:        mapPrefix,
				LayerID:    l.ID(),
				SymbolType: sym.Type,
				Color:      sym.Color.String(),
				Size:       sym.Size,
			})
		}
	}

	if info := l.Labels(); info.Shown {
		shown := true
		c := Criterion{ID: l.ID() + "-labels", Kind: KindLabels, Points: points, Map: mapPrefix, LayerID: l.ID(), Shown: &shown}
		if info.Font != nil {
			c.FontFamily = info.Font.Family
			c.FontStyle = info.Font.Style
		}
		if info.Expression != nil {
			c.Expression = strings.TrimSpace(info.Expression.Value)
		}
		out = append(out, c)
	}
	return out, nil
}

func captureView(p *project.Project, mapPrefix string, points float64) (Criterion, bool) {
	for _, lay := range p.Layouts() {
		frames, err := lay.MapFrames()
		if err != nil {
			continue
		}
		for _, f := range frames {
			m, ok := f.ResolveMap(p)
			if !ok || !strings.HasPrefix(m.Name(), mapPrefix) {
				continue
			}
			view, ok := f.View()
			if !ok {
				continue
			}
			return Criterion{
				ID:     "map-view",
				Kind:   KindMapView,
				Points: points,
				Map:    mapPrefix,
				Layout: lay.Name(),
				View:   &mapview.MapView{X: view.X, Y: view.Y, Scale: view.Scale},
			}, true
		}
	}
	return Criterion{}, false
}
