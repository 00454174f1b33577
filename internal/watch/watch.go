// Package watch reports changed archives below a submissions directory. The
// directory and its non-hidden subdirectories are watched with fsnotify;
// bursts of events on one file are debounced into a single Change.
package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event on a file before
// its change is reported.
const DefaultDebounce = 250 * time.Millisecond

// minTick bounds how often pending changes are checked.
const minTick = time.Millisecond

// ErrStarted is returned by Start on a watcher that was already started or
// stopped.
var ErrStarted = errors.New("watch: already started or stopped")

// ChangeKind describes the type of file change detected.
type ChangeKind int

const (
	// ChangeWritten means the file was created or rewritten.
	ChangeWritten ChangeKind = iota
	// ChangeRemoved means the file no longer exists.
	ChangeRemoved
)

// String returns a lower-case label for logs.
func (k ChangeKind) String() string {
	if k == ChangeRemoved {
		return "removed"
	}
	return "written"
}

// Change is a settled change to a matching file.
type Change struct {
	Kind ChangeKind
	Path string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period; non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher monitors a submissions directory for archive changes.
type Watcher struct {
	Dir     string
	Changes <-chan Change // closed by Stop

	match    func(path string) bool
	debounce time.Duration
	changes  chan Change
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	started bool
	stopped bool
	watcher  *fsnotify.Watcher
}

// New creates a watcher for dir reporting files for which match returns
// true.
func New(dir string, match func(path string) bool, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	ch := make(chan Change, 16)
	w := &Watcher{
		Dir:      dir,
		Changes:  ch,
		match:    match,
		debounce: DefaultDebounce,
		changes:  ch,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		watcher:  fw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start watches Dir and each of its non-hidden subdirectories, then begins
// delivering changes. Subdirectories created later are added as they appear.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.started || w.stopped {
		w.mu.Unlock()
		return ErrStarted
	}
	w.started = true
	w.mu.Unlock()

	fail := func(err error) error {
		w.watcher.Close()
		close(w.done)
		return err
	}
	if err := w.watcher.Add(w.Dir); err != nil {
		return fail(fmt.Errorf("watch: %s: %w", w.Dir, err))
	}
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		return fail(fmt.Errorf("watch: %s: %w", w.Dir, err))
	}
	for _, e := range entries {
		if e.IsDir() && !hidden(e.Name()) {
			if err := w.watcher.Add(filepath.Join(w.Dir, e.Name())); err != nil {
				return fail(fmt.Errorf("watch: %s: %w", e.Name(), err))
			}
		}
	}

	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel. It is safe to call more
// than once, and on a watcher that was never started.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		started := w.started
		w.mu.Unlock()

		close(w.stop)
		w.watcher.Close()
		if started {
			<-w.done
		}
		close(w.changes)
	})
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(max(w.debounce/2, minTick))
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event, pending)

		case now := <-ticker.C:
			for file, t := range pending {
				if now.Sub(t) >= w.debounce {
					delete(pending, file)
					if !w.emit(file) {
						return
					}
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal.
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event, pending map[string]time.Time) {
	if hidden(filepath.Base(event.Name)) {
		return
	}
	if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == filepath.Clean(w.Dir) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addDir(event.Name, pending)
			return
		}
	}
	if !w.match(event.Name) {
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		pending[event.Name] = time.Now()
	}
}

// addDir watches a new student directory and queues the files already in
// it, which may have been written before the watch was in place.
func (w *Watcher) addDir(dir string, pending map[string]time.Time) {
	if err := w.watcher.Add(dir); err != nil {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	now := time.Now()
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if !e.IsDir() && !hidden(e.Name()) && w.match(p) {
			pending[p] = now
		}
	}
}

// emit delivers the change for file. It reports false when the watcher is
// stopping.
func (w *Watcher) emit(file string) bool {
	c := Change{Kind: ChangeWritten, Path: file}
	if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
		c.Kind = ChangeRemoved
	}
	select {
	case w.changes <- c:
		return true
	case <-w.stop:
		return false
	}
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
