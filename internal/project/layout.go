package project

import (
	"fmt"

	"github.com/papapumpkin/aprx/internal/catalog"
	"github.com/papapumpkin/aprx/internal/document"
	"github.com/papapumpkin/aprx/internal/mapview"
)

// MapFrameType is the element type tag of a map frame.
const MapFrameType = "CIMMapFrame"

// Layout is a catalog layout (a printable page).
type Layout struct {
	item  catalog.Item
	cache *document.Cache
}

// ID returns the catalog identifier.
func (l *Layout) ID() string { return l.item.ID }

// Name returns the display name.
func (l *Layout) Name() string { return l.item.Name }

// URI returns the raw catalog path.
func (l *Layout) URI() string { return l.item.CatalogPath }

// Document returns the layout's parsed document.
func (l *Layout) Document() (*document.Document, error) {
	doc, err := l.cache.Get(l.item.InternalPath)
	if err != nil {
		return nil, fmt.Errorf("project: layout %q: %w", l.item.Name, err)
	}
	return doc, nil
}

// MapFrames returns the map-frame elements of the layout in element order.
// Inline elements need no further reads; elements stored as CIMPATH=
// references are loaded through the document cache.
func (l *Layout) MapFrames() ([]*MapFrame, error) {
	doc, err := l.Document()
	if err != nil {
		return nil, err
	}
	arr, _ := doc.Root.Array("elements")

	var frames []*MapFrame
	for _, v := range arr {
		elem, err := l.element(v)
		if err != nil {
			return nil, err
		}
		if elem == nil {
			continue
		}
		if t, _ := elem.String("type"); t == MapFrameType {
			frames = append(frames, &MapFrame{elem: elem})
		}
	}
	return frames, nil
}

func (l *Layout) element(v any) (document.Object, error) {
	if obj, ok := document.AsObject(v); ok {
		return obj, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, nil
	}
	ref, ok := catalog.ParseRef(s)
	if !ok {
		return nil, nil
	}
	doc, err := l.cache.Get(ref)
	if err != nil {
		return nil, fmt.Errorf("project: layout %q: element %s: %w", l.item.Name, ref, err)
	}
	return doc.Root, nil
}

// String returns a short description for logs.
func (l *Layout) String() string { return fmt.Sprintf("<Layout: %q>", l.item.Name) }

// MapFrame is a layout element showing a map. It wraps the element's own
// data; resolving its map goes through the Project that owns it.
type MapFrame struct {
	elem document.Object
}

// Name returns the element name, e.g. "Map Frame".
func (f *MapFrame) Name() string {
	n, _ := f.elem.String("name")
	return n
}

// Raw returns the element's decoded data.
func (f *MapFrame) Raw() document.Object { return f.elem }

// MapURI returns the reference to the displayed map: the explicit uRI when
// set, otherwise the view's viewableObjectPath.
func (f *MapFrame) MapURI() string {
	if uri, ok := f.elem.String("uRI"); ok && uri != "" {
		return uri
	}
	if view, ok := f.elem.Child("view"); ok {
		uri, _ := view.String("viewableObjectPath")
		return uri
	}
	return ""
}

// ResolveMap looks the frame's map up in p. It reports false when the
// reference is empty, unknown, ambiguous or not a map.
func (f *MapFrame) ResolveMap(p *Project) (*Map, bool) {
	uri := f.MapURI()
	if uri == "" {
		return nil, false
	}
	return p.MapWithURI(uri)
}

// View reads the frame's camera. It reports false when the element has no
// view camera.
func (f *MapFrame) View() (mapview.MapView, bool) {
	cam, ok := f.elem.Path("view", "camera")
	if !ok {
		return mapview.MapView{}, false
	}
	var v mapview.MapView
	v.X, _ = cam.Number("x")
	v.Y, _ = cam.Number("y")
	v.Scale, _ = cam.Number("scale")
	v.Width, _ = cam.Number("viewportWidth")
	v.Height, _ = cam.Number("viewportHeight")
	return v, true
}
