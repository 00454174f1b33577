// Package rubric grades an opened project against a baseline: a TOML file
// holding the reference state of an exercise as a list of scored criteria.
package rubric

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/papapumpkin/aprx/internal/mapview"
	"github.com/papapumpkin/aprx/internal/symbology"
)

// Kind names what a criterion inspects.
type Kind string

// Criterion kinds.
const (
	// KindMapImport checks that a map with the expected layers was imported.
	KindMapImport Kind = "map_import"
	// KindLayerStyle checks the fill and stroke of a polygon or line layer.
	KindLayerStyle Kind = "layer_style"
	// KindLayerSymbol checks the type, color and size of a marker layer.
	KindLayerSymbol Kind = "layer_symbol"
	// KindLabels checks label visibility, font and expression.
	KindLabels Kind = "labels"
	// KindMapView checks the camera of a layout's map frame.
	KindMapView Kind = "map_view"
)

// Baseline is the parsed content of a baseline file.
type Baseline struct {
	Title     string            `toml:"title"`
	Tolerance mapview.Tolerance `toml:"tolerance"`
	Criteria  []Criterion       `toml:"criteria"`
}

// Criterion is one scored check. Which fields apply depends on Kind; unset
// optional fields are not checked.
type Criterion struct {
	ID          string  `toml:"id"`
	Kind        Kind    `toml:"kind"`
	Points      float64 `toml:"points"`
	Description string  `toml:"description,omitempty"`

	// Map restricts the search to maps whose name starts with this prefix.
	Map string `toml:"map,omitempty"`

	// map_import
	NamePrefix string   `toml:"name_prefix,omitempty"`
	LayerIDs   []string `toml:"layer_ids,omitempty"`
	MinLayers  int      `toml:"min_layers,omitempty"`

	// layer_style, layer_symbol, labels
	LayerID string `toml:"layer_id,omitempty"`

	// layer_style
	Fill        string  `toml:"fill,omitempty"`
	Stroke      string  `toml:"stroke,omitempty"`
	StrokeWidth float64 `toml:"stroke_width,omitempty"`

	// layer_symbol
	SymbolType string  `toml:"symbol_type,omitempty"`
	Color      string  `toml:"color,omitempty"`
	Size       float64 `toml:"size,omitempty"`

	// labels
	Shown      *bool  `toml:"shown,omitempty"`
	FontFamily string `toml:"font_family,omitempty"`
	FontStyle  string `toml:"font_style,omitempty"`
	Expression string `toml:"expression,omitempty"`

	// map_view
	Layout    string             `toml:"layout,omitempty"`
	View      *mapview.MapView   `toml:"view,omitempty"`
	Tolerance *mapview.Tolerance `toml:"tolerance,omitempty"`
}

// Load reads and parses the baseline file at path. A missing file is
// reported as ErrNoBaseline.
func Load(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoBaseline, path)
		}
		return nil, fmt.Errorf("rubric: reading %s: %w", path, err)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rubric: parsing %s: %w", path, err)
	}
	return b, nil
}

// Parse decodes a baseline. Unknown keys are rejected so a misspelled field
// does not silently disable a check.
func Parse(data []byte) (*Baseline, error) {
	var b Baseline
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Write encodes b as TOML to path, creating parent directories.
func Write(path string, b *Baseline) error {
	data, err := toml.Marshal(b)
	if err != nil {
		return fmt.Errorf("rubric: encoding baseline: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("rubric: creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("rubric: writing %s: %w", path, err)
	}
	return nil
}

// MaxScore returns the sum of all criterion points.
func (b *Baseline) MaxScore() float64 {
	var total float64
	for _, c := range b.Criteria {
		total += c.Points
	}
	return total
}

// Validate checks every criterion for the fields its kind needs, unique ids
// and parseable colors. It returns all problems found.
func (b *Baseline) Validate() []error {
	var errs []error
	if len(b.Criteria) == 0 {
		errs = append(errs, fmt.Errorf("%w: baseline has no criteria", ErrInvalidCriterion))
	}
	if b.Tolerance.X < 0 || b.Tolerance.Y < 0 || b.Tolerance.Scale < 0 {
		errs = append(errs, fmt.Errorf("%w: tolerance must not be negative", ErrInvalidCriterion))
	}

	seen := make(map[string]int)
	for i, c := range b.Criteria {
		if c.ID == "" {
			errs = append(errs, invalid(i, c, "id", "required"))
		} else if prev, ok := seen[c.ID]; ok {
			errs = append(errs, invalid(i, c, "id", "already used by criteria[%d]", prev))
		} else {
			seen[c.ID] = i
		}
		if c.Points <= 0 {
			errs = append(errs, invalid(i, c, "points", "must be > 0, got %g", c.Points))
		}
		errs = append(errs, validateKind(i, c)...)
	}
	return errs
}

func validateKind(i int, c Criterion) []error {
	var errs []error
	needLayer := func() {
		if c.LayerID == "" {
			errs = append(errs, invalid(i, c, "layer_id", "required for %s", c.Kind))
		}
	}
	color := func(field, value string) {
		if value == "" {
			return
		}
		if _, err := symbology.ParseRGBA(value); err != nil {
			errs = append(errs, invalid(i, c, field, "%v", err))
		}
	}

	switch c.Kind {
	case KindMapImport:
		if len(c.LayerIDs) == 0 {
			errs = append(errs, invalid(i, c, "layer_ids", "required for %s", c.Kind))
		}
		if c.MinLayers < 0 || c.MinLayers > len(c.LayerIDs) {
			errs = append(errs, invalid(i, c, "min_layers", "must be between 0 and %d, got %d", len(c.LayerIDs), c.MinLayers))
		}
	case KindLayerStyle:
		needLayer()
		if c.Fill == "" && c.Stroke == "" && c.StrokeWidth == 0 {
			errs = append(errs, invalid(i, c, "", "layer_style needs fill, stroke or stroke_width"))
		}
		color("fill", c.Fill)
		color("stroke", c.Stroke)
	case KindLayerSymbol:
		needLayer()
		if c.SymbolType == "" && c.Color == "" && c.Size == 0 {
			errs = append(errs, invalid(i, c, "", "layer_symbol needs symbol_type, color or size"))
		}
		color("color", c.Color)
	case KindLabels:
		needLayer()
		if c.Shown == nil && c.FontFamily == "" && c.FontStyle == "" && c.Expression == "" {
			errs = append(errs, invalid(i, c, "", "labels needs shown, font_family, font_style or expression"))
		}
	case KindMapView:
		if c.View == nil {
			errs = append(errs, invalid(i, c, "view", "required for %s", c.Kind))
		}
		if t := c.Tolerance; t != nil && (t.X < 0 || t.Y < 0 || t.Scale < 0) {
			errs = append(errs, invalid(i, c, "tolerance", "must not be negative"))
		}
	default:
		errs = append(errs, invalid(i, c, "kind", "unknown kind %q", c.Kind))
	}
	return errs
}
