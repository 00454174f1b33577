package ui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/papapumpkin/aprx/internal/project"
	"github.com/papapumpkin/aprx/internal/symbology"
)

// Project prints the contents of an opened project: archive entries, catalog
// items, maps with their layers and layouts with their map frames. Layers
// that cannot be decoded are reported inline; only a broken map or layout
// document stops the listing.
func (p *Printer) Project(proj *project.Project) error {
	fmt.Fprintln(p.w, styleHeading.Render(proj.Path()))

	entries := proj.Entries()
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	fmt.Fprintf(p.w, "\n%s %s\n", styleBold.Render("entries"),
		styleMuted.Render(fmt.Sprintf("(%d, %s)", len(entries), humanize.Bytes(uint64(total)))))
	for _, e := range entries {
		fmt.Fprintf(p.w, "  %-48s %10s\n", e.Name, humanize.Bytes(uint64(e.Size)))
	}

	items := proj.Catalog().Items()
	fmt.Fprintf(p.w, "\n%s %s\n", styleBold.Render("catalog"), styleMuted.Render(fmt.Sprintf("(%d)", len(items))))
	for _, it := range items {
		path := it.CatalogPath
		if path == "" {
			path = "-"
		}
		fmt.Fprintf(p.w, "  %-6s %-24s %-8s %s\n", it.Kind, it.Name, it.PathForm, styleMuted.Render(path))
	}

	for _, m := range proj.Maps() {
		if err := p.mapSection(m); err != nil {
			return err
		}
	}
	for _, l := range proj.Layouts() {
		if err := p.layoutSection(proj, l); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) mapSection(m *project.Map) error {
	layers, err := m.Layers()
	if err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	fmt.Fprintf(p.w, "\n%s %s %s\n", styleBold.Render("map"), m.Name(),
		styleMuted.Render(fmt.Sprintf("(%d layers)", len(layers))))
	for _, l := range layers {
		fmt.Fprintf(p.w, "  %s %s %s\n", iconItem, l.ID(), styleMuted.Render(l.Name()))
		for _, line := range describeLayer(l) {
			fmt.Fprintf(p.w, "      %s\n", line)
		}
	}
	return nil
}

func (p *Printer) layoutSection(proj *project.Project, l *project.Layout) error {
	frames, err := l.MapFrames()
	if err != nil {
		return fmt.Errorf("ui: layout %q: %w", l.Name(), err)
	}
	fmt.Fprintf(p.w, "\n%s %s %s\n", styleBold.Render("layout"), l.Name(),
		styleMuted.Render(fmt.Sprintf("(%d map frames)", len(frames))))
	for _, f := range frames {
		target := styleWarning.Render("unresolved " + f.MapURI())
		if m, ok := f.ResolveMap(proj); ok {
			target = m.Name()
		}
		view := "no camera"
		if v, ok := f.View(); ok {
			view = v.String()
		}
		fmt.Fprintf(p.w, "  %s %s -> %s %s\n", iconItem, f.Name(), target, styleMuted.Render(view))
	}
	return nil
}

// describeLayer returns one line per known property of l.
func describeLayer(l *project.Layer) []string {
	var lines []string
	if style, err := l.Style(); err != nil {
		lines = append(lines, styleDanger.Render("style: "+err.Error()))
	} else if s := formatStyle(style); s != "" {
		lines = append(lines, "style: "+s)
	}
	if sym, err := l.Symbol(); err != nil {
		lines = append(lines, styleDanger.Render("symbol: "+err.Error()))
	} else if sym != nil {
		lines = append(lines, "symbol: "+formatSymbol(sym))
	}
	if labels := l.Labels(); labels.Shown {
		lines = append(lines, "labels: "+formatLabels(labels))
	}
	return lines
}

func formatStyle(s *symbology.Style) string {
	if s == nil {
		return ""
	}
	var parts []string
	if s.Fill != nil {
		parts = append(parts, "fill "+s.Fill.Color.String())
	}
	if s.Stroke != nil {
		parts = append(parts, fmt.Sprintf("stroke %s width %g", s.Stroke.Color, s.Stroke.Width))
	}
	return strings.Join(parts, ", ")
}

func formatSymbol(s *symbology.Symbol) string {
	out := s.Type
	if !s.Enabled {
		out += " (disabled)"
	}
	if s.Size > 0 {
		out += fmt.Sprintf(" size %g", s.Size)
	}
	if s.Color != nil {
		out += " color " + s.Color.String()
	}
	return out
}

func formatLabels(li symbology.LabelInfo) string {
	out := "shown"
	if li.Font != nil {
		out += fmt.Sprintf(", %s %s %gpt", li.Font.Family, li.Font.Style, li.Font.Size)
	}
	if li.Expression != nil {
		out += fmt.Sprintf(", %s %s", li.Expression.Engine, li.Expression.Value)
	}
	return out
}
