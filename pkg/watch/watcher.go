// Package watch keeps a session in step with a directory of N-Triples
// vocabulary files: each file's triples are imported when it appears,
// diffed when it changes and retracted when it is removed.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/fsnotify.v1"

	"github.com/coolbeans/skosgraph/pkg/skos"
	"github.com/coolbeans/skosgraph/pkg/store"
)

// FileExtension is the suffix of watched vocabulary files.
const FileExtension = ".nt"

// Target receives the triples of the watched files. *skos.Session
// implements it.
type Target interface {
	Import(ctx context.Context, triples []store.Triple) (skos.ImportResult, error)
	Retract(ctx context.Context, triples []store.Triple) (int, error)
}

// Event reports what one file change did to the target.
type Event struct {
	Kind      string `json:"kind"` // load, create, modify or remove
	Path      string `json:"path"`
	Asserted  int    `json:"asserted"`
	Completed int    `json:"completed"`
	Retracted int    `json:"retracted"`
	Err       error  `json:"-"`
}

// Watcher mirrors a vocabulary directory into a target.
type Watcher struct {
	mu       sync.Mutex
	dir      string
	target   Target
	logger   *slog.Logger
	files    map[string][]store.Triple
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	done     chan struct{}
	onChange func(Event)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithOnChange registers a callback run after every handled file event.
func WithOnChange(fn func(Event)) Option {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// New creates a watcher for dir.
func New(dir string, target Target, opts ...Option) *Watcher {
	w := &Watcher{
		dir:    dir,
		target: target,
		logger: slog.Default(),
		files:  make(map[string][]store.Triple),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Files returns the tracked file paths, sorted.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.files))
	for path := range w.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// LoadDirectory imports every vocabulary file in the directory. A missing
// directory loads nothing. Files that fail are reported together; the
// others stay loaded.
func (w *Watcher) LoadDirectory(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking directory %s: %w", w.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", w.dir)
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", w.dir, err)
	}

	var loadErrors []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), FileExtension) {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if event := w.SyncFile(ctx, path, "load"); event.Err != nil {
			loadErrors = append(loadErrors, fmt.Errorf("%s: %w", entry.Name(), event.Err))
		}
	}
	return errors.Join(loadErrors...)
}

// SyncFile brings the target in line with the file's current content:
// triples no longer in the file are retracted, new ones imported. If the
// import is rejected the retraction is undone and the previous content
// stays tracked.
func (w *Watcher) SyncFile(ctx context.Context, path, kind string) Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	event := Event{Kind: kind, Path: path}

	triples, err := readFile(path)
	if err != nil {
		event.Err = err
		w.report(event)
		return event
	}

	previous := w.files[path]
	added := difference(triples, previous)
	removed := w.unshared(path, difference(previous, triples))

	if len(removed) > 0 {
		count, err := w.target.Retract(ctx, removed)
		if err != nil {
			event.Err = fmt.Errorf("retracting: %w", err)
			w.report(event)
			return event
		}
		event.Retracted = count
	}

	if len(added) > 0 {
		result, err := w.target.Import(ctx, added)
		if err != nil {
			event.Err = fmt.Errorf("importing: %w", err)
			if len(removed) > 0 {
				if _, restoreErr := w.target.Import(ctx, removed); restoreErr != nil {
					w.logger.Error("restoring retracted triples", "path", path, "error", restoreErr)
				}
			}
			event.Retracted = 0
			w.report(event)
			return event
		}
		event.Asserted, event.Completed = result.Asserted, result.Completed
	}

	w.files[path] = triples
	w.report(event)
	return event
}

// RemoveFile retracts the triples a removed file contributed.
func (w *Watcher) RemoveFile(ctx context.Context, path string) Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	event := Event{Kind: "remove", Path: path}
	previous, tracked := w.files[path]
	if !tracked {
		return event
	}

	if removed := w.unshared(path, previous); len(removed) > 0 {
		count, err := w.target.Retract(ctx, removed)
		if err != nil {
			event.Err = fmt.Errorf("retracting: %w", err)
			w.report(event)
			return event
		}
		event.Retracted = count
	}

	delete(w.files, path)
	w.report(event)
	return event
}

// Watch starts watching the directory. Events are handled until ctx is
// done or Stop is called.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching directory %s: %w", w.dir, err)
	}

	w.watcher = watcher
	w.stopChan = make(chan struct{})
	w.done = make(chan struct{})
	go w.watchLoop(ctx)

	w.logger.Info("watching vocabulary directory", "dir", w.dir)
	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	if w.stopChan == nil {
		return
	}
	close(w.stopChan)
	w.watcher.Close()
	<-w.done
	w.stopChan = nil
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, FileExtension) {
				continue
			}

			switch {
			case event.Op&fsnotify.Create == fsnotify.Create:
				w.SyncFile(ctx, event.Name, "create")
			case event.Op&fsnotify.Write == fsnotify.Write:
				w.SyncFile(ctx, event.Name, "modify")
			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				w.RemoveFile(ctx, event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) report(event Event) {
	if event.Err != nil {
		w.logger.Error("vocabulary file rejected", "kind", event.Kind, "path", event.Path, "error", event.Err)
	} else {
		w.logger.Info("vocabulary file synced", "kind", event.Kind, "path", event.Path,
			"asserted", event.Asserted, "completed", event.Completed, "retracted", event.Retracted)
	}
	if w.onChange != nil {
		w.onChange(event)
	}
}

// unshared drops triples that another tracked file still provides.
func (w *Watcher) unshared(path string, triples []store.Triple) []store.Triple {
	var kept []store.Triple
	for _, triple := range triples {
		shared := false
		for other, otherTriples := range w.files {
			if other != path && containsTriple(otherTriples, triple) {
				shared = true
				break
			}
		}
		if !shared {
			kept = append(kept, triple)
		}
	}
	return kept
}

func readFile(path string) ([]store.Triple, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	triples, err := store.ReadNTriples(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return triples, nil
}

// difference returns the triples of a that are not in b.
func difference(a, b []store.Triple) []store.Triple {
	inB := make(map[string]bool, len(b))
	for _, triple := range b {
		inB[triple.Key()] = true
	}

	var out []store.Triple
	for _, triple := range a {
		if !inB[triple.Key()] {
			out = append(out, triple)
		}
	}
	return out
}

func containsTriple(triples []store.Triple, target store.Triple) bool {
	key := target.Key()
	for _, triple := range triples {
		if triple.Key() == key {
			return true
		}
	}
	return false
}
