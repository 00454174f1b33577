// Package archive extracts a project archive (.aprx, a zip container) into a
// private working directory and serves its entries by internal path. The
// working directory belongs to exactly one Provider and is removed on Close.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
)

// ManifestPath is the internal path of the catalog manifest every project
// archive must contain.
const ManifestPath = "GISProject.json"

// Sentinel errors returned by Open and Read.
var (
	// ErrArchive indicates the input is not a readable project archive or
	// lacks the manifest entry.
	ErrArchive = errors.New("invalid project archive")
	// ErrNotFound indicates an internal path does not exist inside the archive.
	ErrNotFound = errors.New("entry not found in archive")
	// ErrClosed indicates the provider's working area was already released.
	ErrClosed = errors.New("archive provider closed")
)

// Entry describes one file extracted from the archive.
type Entry struct {
	Name string // internal POSIX-style path
	Size int64  // uncompressed size in bytes
}

// Provider exposes the decompressed contents of one archive. It is safe for
// concurrent reads.
type Provider struct {
	source  string
	dir     string
	entries []Entry

	mu     sync.RWMutex
	closed bool
}

// Option configures Open.
type Option func(*options)

type options struct {
	baseDir string
}

// WithBaseDir places the working area under dir instead of the OS temp dir.
func WithBaseDir(dir string) Option {
	return func(o *options) { o.baseDir = dir }
}

// Open extracts the archive at archivePath into a fresh working area. On any
// failure the working area is removed before Open returns, so callers never
// observe a partially extracted provider.
func Open(archivePath string, opts ...Option) (*Provider, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w: %w", archivePath, ErrArchive, err)
	}
	defer zr.Close()

	dir, err := os.MkdirTemp(o.baseDir, "aprx_")
	if err != nil {
		return nil, fmt.Errorf("archive: create working area: %w", err)
	}

	p := &Provider{source: archivePath, dir: dir}
	if err := p.extract(&zr.Reader); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	if !p.Exists(ManifestPath) {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("archive: %s: %w: missing %s", archivePath, ErrArchive, ManifestPath)
	}
	return p, nil
}

// extract writes every zip entry below p.dir, rejecting names that would
// land outside it.
func (p *Provider) extract(zr *zip.Reader) error {
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, `\`, "/")
		clean := path.Clean(strings.TrimLeft(name, "/"))
		if clean == "." {
			continue
		}
		if clean == ".." || strings.HasPrefix(clean, "../") {
			return fmt.Errorf("archive: %s: %w: entry %q escapes archive root", p.source, ErrArchive, f.Name)
		}

		target := filepath.Join(p.dir, filepath.FromSlash(clean))
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("archive: %s: %w: create %s: %w", p.source, ErrArchive, clean, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("archive: %s: %w: create %s: %w", p.source, ErrArchive, path.Dir(clean), err)
		}
		n, err := writeEntry(f, target)
		if err != nil {
			return fmt.Errorf("archive: %s: %w: extract %s: %w", p.source, ErrArchive, clean, err)
		}
		p.entries = append(p.entries, Entry{Name: clean, Size: n})
	}
	sort.Slice(p.entries, func(i, j int) bool { return p.entries[i].Name < p.entries[j].Name })
	return nil
}

func writeEntry(f *zip.File, target string) (int64, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, copyErr := io.Copy(out, rc)
	if closeErr := out.Close(); copyErr == nil {
		copyErr = closeErr
	}
	return n, copyErr
}

// Read returns the bytes stored at internalPath.
func (p *Provider) Read(internalPath string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, fmt.Errorf("archive: read %s: %w", internalPath, ErrClosed)
	}

	target := p.resolve(internalPath)
	if info, err := os.Stat(target); err == nil && !info.Mode().IsRegular() {
		return nil, fmt.Errorf("archive: read %s: %w", internalPath, ErrNotFound)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return nil, fmt.Errorf("archive: read %s: %w", internalPath, ErrNotFound)
		}
		return nil, fmt.Errorf("archive: read %s: %w", internalPath, err)
	}
	return data, nil
}

// Exists reports whether internalPath names a regular file in the archive.
func (p *Provider) Exists(internalPath string) bool {
	info, err := os.Stat(p.resolve(internalPath))
	return err == nil && info.Mode().IsRegular()
}

// Entries lists the extracted files sorted by name.
func (p *Provider) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Source returns the path of the archive this provider was opened from.
func (p *Provider) Source() string { return p.source }

// Dir returns the working area. It no longer exists after Close.
func (p *Provider) Dir() string { return p.dir }

// Close releases the working area. Calling Close more than once is a no-op.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if err := os.RemoveAll(p.dir); err != nil {
		return fmt.Errorf("archive: remove working area %s: %w", p.dir, err)
	}
	return nil
}

// resolve maps an internal path onto the working area. Rooting the path
// before cleaning keeps ".." segments from leaving the working area.
func (p *Provider) resolve(internalPath string) string {
	clean := path.Clean("/" + strings.ReplaceAll(internalPath, `\`, "/"))
	return filepath.Join(p.dir, filepath.FromSlash(clean))
}
