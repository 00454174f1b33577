// Package project opens a project archive as one resolution session and
// exposes its maps, layouts, map frames and layers. A Project owns the
// extracted working area and the document cache; both are released by Close.
package project

import (
	"fmt"
	"io"
	"sync"

	"github.com/papapumpkin/aprx/internal/archive"
	"github.com/papapumpkin/aprx/internal/catalog"
	"github.com/papapumpkin/aprx/internal/document"
)

// Project is one opened archive. Maps and layouts are built once at Open
// without reading their documents; documents load lazily on first use.
type Project struct {
	path     string
	provider *archive.Provider
	cache    *document.Cache
	catalog  *catalog.Index
	log      io.Writer

	maps    []*Map
	layouts []*Layout
	byID    map[string]*Map

	closeOnce sync.Once
	closeErr  error
}

// Option configures Open.
type Option func(*options)

type options struct {
	workDir string
	log     io.Writer
}

// WithWorkDir extracts archives below dir instead of the OS temp dir.
func WithWorkDir(dir string) Option {
	return func(o *options) { o.workDir = dir }
}

// WithLog writes verbose progress lines to w.
func WithLog(w io.Writer) Option {
	return func(o *options) { o.log = w }
}

// Open extracts the archive at path, loads the catalog and prepares the map
// and layout wrappers.
func Open(path string, opts ...Option) (*Project, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var archiveOpts []archive.Option
	if o.workDir != "" {
		archiveOpts = append(archiveOpts, archive.WithBaseDir(o.workDir))
	}
	prov, err := archive.Open(path, archiveOpts...)
	if err != nil {
		return nil, fmt.Errorf("project: open %s: %w", path, err)
	}

	cache := document.NewCache(prov)
	idx, err := catalog.Load(cache)
	if err != nil {
		_ = prov.Close()
		return nil, fmt.Errorf("project: open %s: %w", path, err)
	}

	p := &Project{
		path:     path,
		provider: prov,
		cache:    cache,
		catalog:  idx,
		log:      o.log,
		byID:     make(map[string]*Map),
	}
	p.buildItems()
	p.logf("opened %s: %d catalog items, %d maps, %d layouts", path, len(idx.Items()), len(p.maps), len(p.layouts))
	return p, nil
}

func (p *Project) buildItems() {
	for _, it := range p.catalog.ItemsOf(catalog.KindMap) {
		if it.InternalPath == "" {
			p.logf("skipping map %q: catalog path %q is not an internal reference", it.Name, it.CatalogPath)
			continue
		}
		m := &Map{item: it, cache: p.cache}
		p.maps = append(p.maps, m)
		p.byID[it.ID] = m
	}
	for _, it := range p.catalog.ItemsOf(catalog.KindLayout) {
		if it.InternalPath == "" {
			p.logf("skipping layout %q: catalog path %q is not an internal reference", it.Name, it.CatalogPath)
			continue
		}
		p.layouts = append(p.layouts, &Layout{item: it, cache: p.cache})
	}
}

// Path returns the archive path the project was opened from.
func (p *Project) Path() string { return p.path }

// Catalog returns the project's catalog index.
func (p *Project) Catalog() *catalog.Index { return p.catalog }

// Documents returns the project's document cache.
func (p *Project) Documents() *document.Cache { return p.cache }

// Entries lists the files stored in the archive.
func (p *Project) Entries() []archive.Entry { return p.provider.Entries() }

// Maps returns the maps of the catalog in manifest order.
func (p *Project) Maps() []*Map {
	out := make([]*Map, len(p.maps))
	copy(out, p.maps)
	return out
}

// Layouts returns the layouts of the catalog in manifest order.
func (p *Project) Layouts() []*Layout {
	out := make([]*Layout, len(p.layouts))
	copy(out, p.layouts)
	return out
}

// MapWithURI returns the map whose catalog path equals uri. It reports
// false when no single catalog item matches or the match is not a map.
func (p *Project) MapWithURI(uri string) (*Map, bool) {
	it, ok := p.catalog.ResolveByURI(uri)
	if !ok || it.Kind != catalog.KindMap {
		return nil, false
	}
	m, ok := p.byID[it.ID]
	return m, ok
}

// Close releases the extracted working area. It is safe to call more than
// once; later calls return the first call's result.
func (p *Project) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.provider.Close()
		p.logf("closed %s", p.path)
	})
	return p.closeErr
}

func (p *Project) logf(format string, args ...any) {
	if p.log == nil {
		return
	}
	fmt.Fprintf(p.log, "[aprx] "+format+"\n", args...)
}
