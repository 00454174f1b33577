// Package document loads the JSON sub-documents of a project archive and
// memoizes them per internal path. A Cache belongs to one opened project;
// every holder of a document shares the pointer the cache hands out.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// ErrMalformedDocument indicates the bytes at an internal path are not a
// JSON object.
var ErrMalformedDocument = errors.New("malformed document")

// Reader returns the raw bytes of an internal path. *archive.Provider
// satisfies it.
type Reader interface {
	Read(internalPath string) ([]byte, error)
}

// Document is one parsed sub-document.
type Document struct {
	Path string
	Root Object
}

// Parse decodes data as the document stored at internalPath.
func Parse(internalPath string, data []byte) (*Document, error) {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("document: parse %s: %w: %w", internalPath, ErrMalformedDocument, err)
	}
	if root == nil {
		return nil, fmt.Errorf("document: parse %s: %w: top level is not an object", internalPath, ErrMalformedDocument)
	}
	return &Document{Path: internalPath, Root: Object(root)}, nil
}

// Cache memoizes parsed documents by internal path. It is safe for
// concurrent use; concurrent first requests for a path share one read and
// one parse. Failed loads are not stored.
type Cache struct {
	r Reader

	mu     sync.RWMutex
	docs   map[string]*Document
	flight singleflight.Group
	parses atomic.Int64
}

// NewCache returns an empty cache reading through r.
func NewCache(r Reader) *Cache {
	return &Cache{r: r, docs: make(map[string]*Document)}
}

// Key normalizes an internal path to the form the cache stores it under.
func Key(internalPath string) string {
	p := strings.TrimLeft(strings.ReplaceAll(internalPath, `\`, "/"), "/")
	return path.Clean(p)
}

// Get returns the document at internalPath, reading and parsing it on first
// use. Later calls return the same *Document.
func (c *Cache) Get(internalPath string) (*Document, error) {
	key := Key(internalPath)
	if doc, ok := c.lookup(key); ok {
		return doc, nil
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		// A flight that finished between our lookup and Do has already
		// stored the document.
		if doc, ok := c.lookup(key); ok {
			return doc, nil
		}
		data, err := c.r.Read(key)
		if err != nil {
			return nil, err
		}
		doc, err := Parse(key, data)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.docs[key] = doc
		c.mu.Unlock()
		c.parses.Add(1)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

func (c *Cache) lookup(key string) (*Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[key]
	return doc, ok
}

// Parses returns how many documents this cache has parsed successfully.
func (c *Cache) Parses() int {
	return int(c.parses.Load())
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}
