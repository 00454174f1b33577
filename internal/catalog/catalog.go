// Package catalog reads the project manifest into typed catalog items and
// resolves catalog-path references between them.
package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/papapumpkin/aprx/internal/archive"
	"github.com/papapumpkin/aprx/internal/document"
)

// RefPrefix marks a catalog path or reference that points at a document
// inside the archive.
const RefPrefix = "CIMPATH="

// Kind classifies a catalog item by its manifest type tag.
type Kind int

// Catalog item kinds.
const (
	KindOther Kind = iota
	KindMap
	KindLayout
)

// KindOf maps a manifest itemType tag onto a Kind.
func KindOf(tag string) Kind {
	switch tag {
	case "Map":
		return KindMap
	case "Layout":
		return KindLayout
	}
	return KindOther
}

// String returns the manifest tag for k.
func (k Kind) String() string {
	switch k {
	case KindMap:
		return "Map"
	case KindLayout:
		return "Layout"
	}
	return "Other"
}

// PathForm tells which of the catalog-path shapes an item carries.
type PathForm int

// Catalog path forms.
const (
	FormAbsent   PathForm = iota // no catalogPath field
	FormInternal                 // CIMPATH=<internal path>
	FormName                     // bare name such as "ArcGIS Colors"
	FormExternal                 // filesystem path outside the archive
)

// String returns a short label for f.
func (f PathForm) String() string {
	switch f {
	case FormInternal:
		return "internal"
	case FormName:
		return "name"
	case FormExternal:
		return "external"
	}
	return "absent"
}

// ParseRef extracts the internal path from a CIMPATH= reference.
func ParseRef(s string) (string, bool) {
	rest, ok := strings.CutPrefix(s, RefPrefix)
	if !ok || rest == "" {
		return "", false
	}
	return rest, true
}

// ParseCatalogPath classifies a raw catalogPath value. Only the internal
// form yields a path; the other forms are valid and simply carry none.
func ParseCatalogPath(raw string, present bool) (PathForm, string) {
	if !present {
		return FormAbsent, ""
	}
	if p, ok := ParseRef(raw); ok {
		return FormInternal, p
	}
	if strings.ContainsAny(raw, `\/`) || hasDrivePrefix(raw) {
		return FormExternal, ""
	}
	return FormName, ""
}

func hasDrivePrefix(s string) bool {
	return len(s) >= 2 && s[1] == ':' &&
		(('a' <= s[0] && s[0] <= 'z') || ('A' <= s[0] && s[0] <= 'Z'))
}

// Item is one manifest entry. Items are immutable once loaded.
type Item struct {
	ID           string
	Kind         Kind
	Type         string // raw itemType tag
	Name         string
	CatalogPath  string // raw catalogPath, empty when absent
	PathForm     PathForm
	InternalPath string // set only for FormInternal
}

// Index holds every catalog item of one project.
type Index struct {
	items []Item
	byID  map[string]int
}

// Load reads the manifest through c and builds the index. Entries that are
// not objects are skipped.
func Load(c *document.Cache) (*Index, error) {
	doc, err := c.Get(archive.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("catalog: load manifest: %w", err)
	}
	return FromManifest(doc.Root), nil
}

// FromManifest builds an index from an already parsed manifest.
func FromManifest(root document.Object) *Index {
	idx := &Index{byID: make(map[string]int)}
	for _, entry := range root.Objects("projectItems") {
		raw, present := entry.String("catalogPath")
		form, internal := ParseCatalogPath(raw, present)
		typ, _ := entry.String("itemType")
		name, _ := entry.String("name")

		it := Item{
			ID:           idText(entry),
			Kind:         KindOf(typ),
			Type:         typ,
			Name:         name,
			CatalogPath:  raw,
			PathForm:     form,
			InternalPath: internal,
		}
		if _, dup := idx.byID[it.ID]; !dup {
			idx.byID[it.ID] = len(idx.items)
		}
		idx.items = append(idx.items, it)
	}
	return idx
}

// idText reads the item identifier, which manifests store either as a
// string or as a number.
func idText(entry document.Object) string {
	if s, ok := entry.String("iD"); ok {
		return s
	}
	if n, ok := entry.Number("iD"); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// Items returns all items in manifest order.
func (x *Index) Items() []Item {
	out := make([]Item, len(x.items))
	copy(out, x.items)
	return out
}

// ItemsOf returns the items of kind k in manifest order.
func (x *Index) ItemsOf(k Kind) []Item {
	var out []Item
	for _, it := range x.items {
		if it.Kind == k {
			out = append(out, it)
		}
	}
	return out
}

// ByID returns the first item with the given identifier.
func (x *Index) ByID(id string) (Item, bool) {
	i, ok := x.byID[id]
	if !ok {
		return Item{}, false
	}
	return x.items[i], true
}

// ResolveByURI returns the single item whose raw catalog path equals uri.
// Zero or several matches both report false; an ambiguous reference is
// never resolved to an arbitrary item.
func (x *Index) ResolveByURI(uri string) (Item, bool) {
	var (
		found Item
		n     int
	)
	for _, it := range x.items {
		if it.PathForm != FormAbsent && it.CatalogPath == uri {
			found = it
			n++
		}
	}
	if n != 1 {
		return Item{}, false
	}
	return found, true
}
