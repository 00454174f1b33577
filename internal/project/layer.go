package project

import (
	"fmt"
	"path"
	"strings"

	"github.com/papapumpkin/aprx/internal/document"
	"github.com/papapumpkin/aprx/internal/symbology"
)

// Layer is one layer definition document. Its symbology views are derived
// from the cached document on every call.
type Layer struct {
	path string
	doc  *document.Document
}

// ID is the lower-cased file stem of the layer's internal path. It stays
// unique when two layers share a display name.
func (l *Layer) ID() string {
	base := path.Base(l.path)
	return strings.ToLower(strings.TrimSuffix(base, path.Ext(base)))
}

// Name returns the name shown in the layer tree.
func (l *Layer) Name() string {
	name, _ := l.doc.Root.String("name")
	return name
}

// Type returns the CIM layer type tag, e.g. CIMFeatureLayer.
func (l *Layer) Type() string {
	t, _ := l.doc.Root.String("type")
	return t
}

// Path returns the layer's internal path.
func (l *Layer) Path() string { return l.path }

// Raw returns the layer's decoded document.
func (l *Layer) Raw() document.Object { return l.doc.Root }

// Symbol returns the layer's top symbol layer, or nil when it has none.
func (l *Layer) Symbol() (*symbology.Symbol, error) {
	s, err := symbology.ExtractSymbol(l.doc.Root)
	if err != nil {
		return nil, fmt.Errorf("project: layer %s: %w", l.ID(), err)
	}
	return s, nil
}

// Style returns the merged stroke and fill, or nil without a renderer.
func (l *Layer) Style() (*symbology.Style, error) {
	s, err := symbology.ExtractStyle(l.doc.Root)
	if err != nil {
		return nil, fmt.Errorf("project: layer %s: %w", l.ID(), err)
	}
	return s, nil
}

// Labels returns the layer's labeling summary.
func (l *Layer) Labels() symbology.LabelInfo {
	return symbology.ExtractLabels(l.doc.Root)
}

// String returns a short description for logs.
func (l *Layer) String() string { return fmt.Sprintf("<Layer: %q (%s)>", l.Name(), l.ID()) }
