package project_test

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/papapumpkin/aprx/internal/archive"
	"github.com/papapumpkin/aprx/internal/mapview"
	"github.com/papapumpkin/aprx/internal/project"
	"github.com/papapumpkin/aprx/internal/project/projecttest"
	"github.com/papapumpkin/aprx/internal/symbology"
)

func openFixture(t *testing.T, f projecttest.Fixture) *project.Project {
	t.Helper()
	path := f.Write(t, t.TempDir(), "student.aprx")
	p, err := project.Open(path, project.WithWorkDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Open(%q): %v", path, err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestOpen_MapsAndLayouts(t *testing.T) {
	t.Parallel()
	f := projecttest.Default()
	f.ExtraMaps = []string{"Map"}
	p := openFixture(t, f)

	var maps []string
	for _, m := range p.Maps() {
		maps = append(maps, m.Name())
	}
	if diff := cmp.Diff([]string{"Layers", "Map"}, maps); diff != "" {
		t.Errorf("Maps() mismatch (-want +got):\n%s", diff)
	}
	if got := len(p.Layouts()); got != 1 {
		t.Fatalf("len(Layouts()) = %d, want 1", got)
	}
	// Only the manifest has been parsed so far.
	if got := p.Documents().Parses(); got != 1 {
		t.Errorf("Parses() after Open = %d, want 1", got)
	}
}

func TestOpen_InvalidArchive(t *testing.T) {
	t.Parallel()
	path := t.TempDir() + "/bad.aprx"
	if err := os.WriteFile(path, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := project.Open(path)
	if !errors.Is(err, archive.ErrArchive) {
		t.Fatalf("Open error = %v, want ErrArchive", err)
	}
}

func TestMapLayers(t *testing.T) {
	t.Parallel()
	p := openFixture(t, projecttest.Default())
	m := p.Maps()[0]

	layers, err := m.Layers()
	if err != nil {
		t.Fatalf("Layers: %v", err)
	}
	var ids, names []string
	for _, l := range layers {
		ids = append(ids, l.ID())
		names = append(names, l.Name())
	}
	wantIDs := []string{"towns", "roads", "lakes", "cantons", "dem", "hillshadech", "towns2"}
	if diff := cmp.Diff(wantIDs, ids); diff != "" {
		t.Errorf("layer ids mismatch (-want +got):\n%s", diff)
	}
	// Two layers share the display name but keep distinct ids.
	if names[0] != names[6] || ids[0] == ids[6] {
		t.Errorf("names %q/%q ids %q/%q", names[0], names[6], ids[0], ids[6])
	}

	// Resolving again hands back the same cached documents.
	before := p.Documents().Parses()
	again, err := m.Layers()
	if err != nil {
		t.Fatalf("second Layers: %v", err)
	}
	if got := p.Documents().Parses(); got != before {
		t.Errorf("second Layers parsed %d more documents", got-before)
	}
	if !sameDoc(layers[2], again[2]) {
		t.Error("layer resolved twice is backed by different documents")
	}
}

func sameDoc(a, b *project.Layer) bool {
	ra, rb := a.Raw(), b.Raw()
	ra["__probe"] = true
	defer delete(ra, "__probe")
	_, ok := rb["__probe"]
	return ok
}

func TestMapLayers_MissingReference(t *testing.T) {
	t.Parallel()
	f := projecttest.Default()
	f.BrokenLayers = true
	p := openFixture(t, f)

	_, err := p.Maps()[0].Layers()
	if !errors.Is(err, archive.ErrNotFound) {
		t.Fatalf("Layers error = %v, want ErrNotFound", err)
	}
	// The session is still usable.
	if _, err := p.Layouts()[0].MapFrames(); err != nil {
		t.Errorf("MapFrames after failed Layers: %v", err)
	}
}

func TestLayerSymbology(t *testing.T) {
	t.Parallel()
	p := openFixture(t, projecttest.Default())
	m := p.Maps()[0]

	lakes, ok, err := m.Layer("lakes")
	if err != nil || !ok {
		t.Fatalf("Layer(lakes) = %v, %v", ok, err)
	}
	style, err := lakes.Style()
	if err != nil {
		t.Fatalf("Style: %v", err)
	}
	want := &symbology.Style{
		Stroke: &symbology.Stroke{Width: 2, Color: symbology.RGBA{R: 255, G: 190, B: 190, A: 100}},
		Fill:   &symbology.Fill{Color: symbology.RGBA{R: 156, G: 156, B: 156, A: 100}},
	}
	if diff := cmp.Diff(want, style); diff != "" {
		t.Errorf("lakes Style mismatch (-want +got):\n%s", diff)
	}

	labels := lakes.Labels()
	if !labels.Shown || labels.Font == nil || labels.Font.Family != "Tahoma" {
		t.Errorf("lakes Labels = %+v", labels)
	}

	towns, _, _ := m.Layer("towns")
	sym, err := towns.Symbol()
	if err != nil {
		t.Fatalf("Symbol: %v", err)
	}
	if sym == nil || sym.Color == nil || !sym.Color.Equal(symbology.RGBA{R: 133, G: 0, B: 44, A: 100}) {
		t.Errorf("towns Symbol = %+v", sym)
	}

	dem, _, _ := m.Layer("dem")
	if s, err := dem.Style(); err != nil || s != nil {
		t.Errorf("dem Style = %+v, %v; want nil, nil", s, err)
	}
}

func TestLayoutMapFrames(t *testing.T) {
	t.Parallel()
	p := openFixture(t, projecttest.Default())

	frames, err := p.Layouts()[0].MapFrames()
	if err != nil {
		t.Fatalf("MapFrames: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("len(frames) = %d, want 2", len(frames))
	}

	main := frames[0]
	m, ok := main.ResolveMap(p)
	if !ok || m.Name() != "Layers" {
		t.Fatalf("ResolveMap = %v, %v", m, ok)
	}
	if m != p.Maps()[0] {
		t.Error("ResolveMap returned a different *Map than Maps()")
	}

	view, ok := main.View()
	if !ok {
		t.Fatal("View() reported no camera")
	}
	want := mapview.MapView{X: 2600000, Y: 1200000, Scale: 250000, Width: 800, Height: 600}
	if diff := cmp.Diff(want, view); diff != "" {
		t.Errorf("View mismatch (-want +got):\n%s", diff)
	}

	overview := frames[1]
	if overview.Name() != "Overview" {
		t.Errorf("second frame name = %q", overview.Name())
	}
	if got := overview.MapURI(); got != "CIMPATH=map/unknown.json" {
		t.Errorf("fallback MapURI = %q", got)
	}
	if _, ok := overview.ResolveMap(p); ok {
		t.Error("frame with unknown map resolved")
	}
	if _, ok := overview.View(); ok {
		t.Error("frame without camera reported a view")
	}
}

func TestMapWithURI_Ambiguous(t *testing.T) {
	t.Parallel()
	p := openFixture(t, projecttest.Default())
	if _, ok := p.MapWithURI("CIMPATH=map/map.json"); !ok {
		t.Fatal("unique map not found")
	}
	if _, ok := p.MapWithURI("ArcGIS Colors"); ok {
		t.Error("non-map item resolved as a map")
	}
}

func TestClose(t *testing.T) {
	t.Parallel()
	var log bytes.Buffer
	path := projecttest.Default().Write(t, t.TempDir(), "p.aprx")
	p, err := project.Open(path, project.WithLog(&log))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if !strings.Contains(log.String(), "[aprx] opened") || strings.Count(log.String(), "closed") != 1 {
		t.Errorf("unexpected log:\n%s", log.String())
	}
}
