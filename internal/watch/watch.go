// Package watch reports external changes to a layouts directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"pkt.systems/pslog"
)

// Options configures a Watcher.
type Options struct {
	// Ext limits notifications to files with this extension (without dot).
	// Empty reports every file.
	Ext    string
	Logger pslog.Logger
}

// Watcher watches a single directory, which need not exist yet. Until it
// does, the nearest existing ancestor is watched and the directory is picked
// up once created.
type Watcher struct {
	fs       *fsnotify.Watcher
	dir      string
	ext      string
	onChange func()
	log      pslog.Logger

	mu      sync.Mutex
	watched string
	started bool

	done      chan struct{}
	ready     chan struct{}
	stopped   chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// New returns a Watcher for dir. onChange runs on the watcher goroutine for
// every create, remove, rename or write of a matching file in dir, and when
// dir itself appears or disappears.
func New(dir string, onChange func(), opts Options) (*Watcher, error) {
	if dir == "" {
		return nil, errors.New("watch dir is required")
	}
	if onChange == nil {
		return nil, errors.New("watch callback is required")
	}
	if opts.Logger == nil {
		opts.Logger = pslog.Ctx(context.Background())
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		fs:       fsw,
		dir:      filepath.Clean(dir),
		ext:      strings.TrimPrefix(opts.Ext, "."),
		onChange: onChange,
		log:      opts.Logger.With("dir", filepath.Clean(dir)),
		done:     make(chan struct{}),
		ready:    make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	if _, err := w.arm(); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Dir returns the watched layouts directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Watched returns the path currently registered with the OS: the directory
// itself, or its nearest existing ancestor.
func (w *Watcher) Watched() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watched
}

// Start launches the event loop. Later calls do nothing.
func (w *Watcher) Start() {
	w.startOnce.Do(func() {
		w.mu.Lock()
		w.started = true
		w.mu.Unlock()
		go w.loop()
	})
}

// Ready is closed once the event loop runs.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Close stops the event loop and releases the OS watch.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.startOnce.Do(func() {})
		close(w.done)
		err = w.fs.Close()
		w.mu.Lock()
		started := w.started
		w.mu.Unlock()
		if started {
			<-w.stopped
		}
	})
	return err
}

func (w *Watcher) loop() {
	defer close(w.stopped)
	close(w.ready)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("layouts watch error", "err", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	name := filepath.Clean(event.Name)
	w.log.Trace("layouts watch event", "op", event.Op.String(), "path", name)
	switch {
	case name == w.dir:
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Create) {
			w.rearm()
		}
	case isAncestor(name, w.dir):
		if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			w.rearm()
		}
	case filepath.Dir(name) == w.dir:
		if !w.relevant(name) {
			return
		}
		if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Write) {
			w.onChange()
		}
	}
}

func (w *Watcher) relevant(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".tmp-") {
		return false
	}
	if w.ext == "" {
		return true
	}
	return strings.TrimPrefix(filepath.Ext(base), ".") == w.ext
}

// rearm moves the OS watch to the nearest existing path and reports a change
// when the directory itself came or went.
func (w *Watcher) rearm() {
	before := w.Watched()
	after, err := w.arm()
	if err != nil {
		w.log.Warn("layouts watch rearm failed", "err", err)
		return
	}
	if before == after {
		return
	}
	w.log.Debug("layouts watch moved", "from", before, "to", after)
	if before == w.dir || after == w.dir {
		w.onChange()
	}
}

// arm registers the nearest existing path, retrying while the tree changes
// underneath.
func (w *Watcher) arm() (string, error) {
	for attempt := 0; attempt < 8; attempt++ {
		target, err := nearestExisting(w.dir)
		if err != nil {
			return "", err
		}
		w.mu.Lock()
		current := w.watched
		w.mu.Unlock()
		if target != current {
			if err := w.fs.Add(target); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				return "", fmt.Errorf("watch %s: %w", target, err)
			}
			if current != "" {
				_ = w.fs.Remove(current)
			}
			w.mu.Lock()
			w.watched = target
			w.mu.Unlock()
		}
		again, err := nearestExisting(w.dir)
		if err != nil {
			return "", err
		}
		if again == target {
			return target, nil
		}
	}
	return w.Watched(), nil
}

func nearestExisting(dir string) (string, error) {
	path := dir
	for {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(path)
		if parent == path {
			return "", fmt.Errorf("no existing ancestor of %s", dir)
		}
		path = parent
	}
}

func isAncestor(path, dir string) bool {
	rel, err := filepath.Rel(path, dir)
	if err != nil || rel == "." {
		return false
	}
	return !strings.HasPrefix(rel, "..")
}
