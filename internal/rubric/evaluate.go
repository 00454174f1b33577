package rubric

import (
	"fmt"
	"strings"

	"github.com/papapumpkin/aprx/internal/mapview"
	"github.com/papapumpkin/aprx/internal/project"
)

// Evaluate grades p against b. Every criterion yields one CheckResult; a
// criterion whose target cannot be found fails with a detail instead of
// aborting the evaluation. b should have passed Validate.
func Evaluate(p *project.Project, b *Baseline) *Result {
	res := &Result{MaxScore: b.MaxScore()}
	for _, c := range b.Criteria {
		passed, detail := evaluate(p, b, c)
		cr := CheckResult{
			ID:     c.ID,
			Kind:   c.Kind,
			Passed: passed,
			Max:    c.Points,
			Detail: detail,
		}
		if passed {
			cr.Points = c.Points
			res.Score += c.Points
		}
		res.Checks = append(res.Checks, cr)
	}
	return res
}

func evaluate(p *project.Project, b *Baseline, c Criterion) (bool, string) {
	switch c.Kind {
	case KindMapImport:
		return checkMapImport(p, c)
	case KindLayerStyle:
		return withLayer(p, c, checkStyle)
	case KindLayerSymbol:
		return withLayer(p, c, checkSymbol)
	case KindLabels:
		return withLayer(p, c, checkLabels)
	case KindMapView:
		tol := b.Tolerance
		if c.Tolerance != nil {
			tol = *c.Tolerance
		}
		return checkMapView(p, c, tol)
	default:
		return false, fmt.Sprintf("unknown kind %q", c.Kind)
	}
}

// mapsWithPrefix returns the maps whose name starts with prefix, in
// catalog order.
func mapsWithPrefix(p *project.Project, prefix string) []*project.Map {
	var out []*project.Map
	for _, m := range p.Maps() {
		if strings.HasPrefix(m.Name(), prefix) {
			out = append(out, m)
		}
	}
	return out
}

// findLayer returns the first layer with the given id among the maps
// matching mapPrefix. Maps whose layers cannot be resolved are passed over;
// their errors end up in the detail when nothing is found.
func findLayer(p *project.Project, mapPrefix, id string) (*project.Layer, string) {
	maps := mapsWithPrefix(p, mapPrefix)
	if len(maps) == 0 {
		if mapPrefix == "" {
			return nil, "project has no maps"
		}
		return nil, fmt.Sprintf("no map named %q*", mapPrefix)
	}
	var problems []string
	for _, m := range maps {
		l, ok, err := m.Layer(id)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if ok {
			return l, ""
		}
	}
	detail := fmt.Sprintf("layer %q not found", id)
	if len(problems) > 0 {
		detail += " (" + strings.Join(problems, "; ") + ")"
	}
	return nil, detail
}

func withLayer(p *project.Project, c Criterion, check func(*project.Layer, Criterion) []string) (bool, string) {
	l, detail := findLayer(p, c.Map, c.LayerID)
	if l == nil {
		return false, detail
	}
	problems := check(l, c)
	if len(problems) > 0 {
		return false, strings.Join(problems, "; ")
	}
	return true, ""
}

func checkMapImport(p *project.Project, c Criterion) (bool, string) {
	need := c.MinLayers
	if need == 0 {
		need = len(c.LayerIDs)
	}

	var imported, problems []string
	for _, m := range mapsWithPrefix(p, c.NamePrefix) {
		layers, err := m.Layers()
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		have := make(map[string]bool, len(layers))
		for _, l := range layers {
			have[l.ID()] = true
		}
		n := 0
		for _, id := range c.LayerIDs {
			if have[id] {
				n++
			}
		}
		if n >= need {
			imported = append(imported, m.Name())
		}
	}

	switch len(imported) {
	case 0:
		detail := fmt.Sprintf("no map named %q* with at least %d of %s", c.NamePrefix, need, strings.Join(c.LayerIDs, ", "))
		if len(problems) > 0 {
			detail += " (" + strings.Join(problems, "; ") + ")"
		}
		return false, detail
	case 1:
		return true, ""
	default:
		return true, fmt.Sprintf("warning: %d maps imported: %s", len(imported), strings.Join(imported, ", "))
	}
}

func checkMapView(p *project.Project, c Criterion, tol mapview.Tolerance) (bool, string) {
	if c.View == nil {
		return false, "no expected view"
	}
	var problems []string
	for _, lay := range p.Layouts() {
		if !strings.HasPrefix(lay.Name(), c.Layout) {
			continue
		}
		frames, err := lay.MapFrames()
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		for _, f := range frames {
			if c.Map != "" {
				m, ok := f.ResolveMap(p)
				if !ok || !strings.HasPrefix(m.Name(), c.Map) {
					continue
				}
			}
			view, ok := f.View()
			if !ok {
				continue
			}
			if !mapview.Equal(view, *c.View, tol) {
				return false, fmt.Sprintf("%s %q shows %s, want %s", lay.Name(), f.Name(), view, *c.View)
			}
			return true, ""
		}
	}
	detail := "no map frame with a view"
	if c.Map != "" {
		detail = fmt.Sprintf("no map frame showing %q* with a view", c.Map)
	}
	if len(problems) > 0 {
		detail += " (" + strings.Join(problems, "; ") + ")"
	}
	return false, detail
}
