// internal/watcher/watcher.go
package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultIgnores are directory names never tracked. The checkpoint
// store itself must be excluded or every checkpoint would immediately
// dirty the tracker.
var defaultIgnores = []string{".evoguard", ".git", "node_modules"}

// Tracker watches a project root recursively and accumulates the set
// of files changed since the last Drain. Events are debounced per path
// so rapid successive writes count once.
type Tracker struct {
	root       string
	debounce   time.Duration
	ignores    []string
	watcher    *fsnotify.Watcher
	done       chan struct{}
	started    bool
	closed     bool
	mu         sync.Mutex
	dirty      map[string]struct{}
	dirtyMu    sync.Mutex
	debouncer  map[string]*time.Timer
	debounceMu sync.Mutex
}

// New creates a Tracker rooted at the given directory. Existing
// subdirectories are watched immediately; directories created later
// are picked up from their create events.
func New(root string, debounce time.Duration) (*Tracker, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	t := &Tracker{
		root:      abs,
		debounce:  debounce,
		ignores:   defaultIgnores,
		watcher:   fsw,
		done:      make(chan struct{}),
		dirty:     make(map[string]struct{}),
		debouncer: make(map[string]*time.Timer),
	}

	if err := t.addRecursive(abs); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch path %s: %w", root, err)
	}

	return t, nil
}

// Start starts the event loop.
func (t *Tracker) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("tracker is closed")
	}
	if t.started {
		return fmt.Errorf("tracker already started")
	}
	t.started = true

	go t.watch()

	return nil
}

// Drain returns the accumulated changed paths, relative to the root,
// and resets the set.
func (t *Tracker) Drain() []string {
	t.dirtyMu.Lock()
	defer t.dirtyMu.Unlock()

	if len(t.dirty) == 0 {
		return nil
	}
	paths := make([]string, 0, len(t.dirty))
	for p := range t.dirty {
		paths = append(paths, p)
	}
	t.dirty = make(map[string]struct{})
	return paths
}

// Close stops watching and cleans up resources.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	if t.started {
		close(t.done)
	}

	t.debounceMu.Lock()
	for _, timer := range t.debouncer {
		timer.Stop()
	}
	t.debouncer = make(map[string]*time.Timer)
	t.debounceMu.Unlock()

	return t.watcher.Close()
}

// addRecursive registers a directory and all its non-ignored
// subdirectories.
func (t *Tracker) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if t.ignored(path) {
			return filepath.SkipDir
		}
		return t.watcher.Add(path)
	})
}

func (t *Tracker) ignored(path string) bool {
	rel, err := filepath.Rel(t.root, path)
	if err != nil || rel == "." {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, part := range parts {
		for _, ig := range t.ignores {
			if part == ig {
				return true
			}
		}
	}
	return false
}

// watch is the main event loop
func (t *Tracker) watch() {
	for {
		select {
		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			t.handleEvent(event)

		case _, ok := <-t.watcher.Errors:
			if !ok {
				return
			}

		case <-t.done:
			return
		}
	}
}

// handleEvent marks a changed file dirty, debounced per path. New
// directories are added to the watch set; deletes and renames of
// tracked files still count as changes.
func (t *Tracker) handleEvent(event fsnotify.Event) {
	if t.ignored(event.Name) {
		return
	}

	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			t.addRecursive(event.Name)
			return
		}
	}

	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	if event.Op&relevant == 0 {
		return
	}

	rel, err := filepath.Rel(t.root, event.Name)
	if err != nil {
		return
	}
	t.debounceMark(filepath.ToSlash(rel))
}

// debounceMark coalesces rapid events for the same path into one mark.
func (t *Tracker) debounceMark(rel string) {
	t.debounceMu.Lock()
	defer t.debounceMu.Unlock()

	if timer, exists := t.debouncer[rel]; exists {
		timer.Stop()
	}

	t.debouncer[rel] = time.AfterFunc(t.debounce, func() {
		t.debounceMu.Lock()
		delete(t.debouncer, rel)
		t.debounceMu.Unlock()

		t.dirtyMu.Lock()
		t.dirty[rel] = struct{}{}
		t.dirtyMu.Unlock()
	})
}
