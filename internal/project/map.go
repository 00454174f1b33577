package project

import (
	"fmt"

	"github.com/papapumpkin/aprx/internal/catalog"
	"github.com/papapumpkin/aprx/internal/document"
)

// Map is a catalog map. Its document is read on first use.
type Map struct {
	item  catalog.Item
	cache *document.Cache
}

// ID returns the catalog identifier.
func (m *Map) ID() string { return m.item.ID }

// Name returns the display name.
func (m *Map) Name() string { return m.item.Name }

// URI returns the raw catalog path, the form layouts use to reference maps.
func (m *Map) URI() string { return m.item.CatalogPath }

// Item returns the underlying catalog item.
func (m *Map) Item() catalog.Item { return m.item }

// Document returns the map's parsed document.
func (m *Map) Document() (*document.Document, error) {
	doc, err := m.cache.Get(m.item.InternalPath)
	if err != nil {
		return nil, fmt.Errorf("project: map %q: %w", m.item.Name, err)
	}
	return doc, nil
}

// LayerRefs returns the internal paths of the layers the map lists, in
// drawing-order as stored. Entries that are not internal references are
// left out.
func (m *Map) LayerRefs() ([]string, error) {
	doc, err := m.Document()
	if err != nil {
		return nil, err
	}
	arr, _ := doc.Root.Array("layers")
	refs := make([]string, 0, len(arr))
	for _, v := range arr {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if p, ok := catalog.ParseRef(s); ok {
			refs = append(refs, p)
		}
	}
	return refs, nil
}

// Layers resolves every layer reference through the document cache. A
// reference to a missing document is returned as an error.
func (m *Map) Layers() ([]*Layer, error) {
	refs, err := m.LayerRefs()
	if err != nil {
		return nil, err
	}
	layers := make([]*Layer, 0, len(refs))
	for _, ref := range refs {
		doc, err := m.cache.Get(ref)
		if err != nil {
			return nil, fmt.Errorf("project: map %q: layer %s: %w", m.item.Name, ref, err)
		}
		layers = append(layers, &Layer{path: ref, doc: doc})
	}
	return layers, nil
}

// Layer returns the first layer whose ID equals id.
func (m *Map) Layer(id string) (*Layer, bool, error) {
	layers, err := m.Layers()
	if err != nil {
		return nil, false, err
	}
	for _, l := range layers {
		if l.ID() == id {
			return l, true, nil
		}
	}
	return nil, false, nil
}

// String returns a short description for logs.
func (m *Map) String() string { return fmt.Sprintf("<Map: %q>", m.item.Name) }
