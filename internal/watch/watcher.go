// Package watch rebuilds the site when its sources change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"shadowsite/internal/logging"
)

// DefaultDebounce is how long a path must stay quiet before it triggers a
// rebuild.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc receives the settled paths of one batch, sorted.
type RebuildFunc func(ctx context.Context, changed []string) error

// Watcher watches the site's sources and calls a RebuildFunc once a burst
// of changes has settled. Directories are watched recursively and new
// subdirectories are picked up as they appear.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	roots       []string
	ignore      []string
	watched     map[string]bool
	rebuild     RebuildFunc
	debounceMap map[string]time.Time
	debounceDur time.Duration
	tick        time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// Stats tracks watcher activity.
type Stats struct {
	FilesCreated  int
	FilesModified int
	FilesDeleted  int
	Rebuilds      int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
	LastEventType string
	LastRebuild   time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounceDur = d
		}
	}
}

// WithIgnore skips any path with a component equal to one of names.
func WithIgnore(names ...string) Option {
	return func(w *Watcher) { w.ignore = append(w.ignore, names...) }
}

// New creates a Watcher over roots. Roots may be files or directories and
// need not exist yet; missing ones are reported at Start.
func New(roots []string, rebuild RebuildFunc, opts ...Option) (*Watcher, error) {
	if rebuild == nil {
		return nil, errors.New("watch: nil rebuild func")
	}
	if len(roots) == 0 {
		return nil, errors.New("watch: nothing to watch")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	w := &Watcher{
		watcher:     fw,
		roots:       cleanAll(roots),
		watched:     make(map[string]bool),
		rebuild:     rebuild,
		debounceMap: make(map[string]time.Time),
		debounceDur: DefaultDebounce,
		tick:        100 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.debounceDur < w.tick {
		w.tick = w.debounceDur
	}
	return w, nil
}

func cleanAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, filepath.Clean(p))
	}
	return out
}

// Start begins watching. It does not block; call Stop to release the
// watcher.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	log := logging.Get(logging.CategoryWatch)
	for _, root := range w.roots {
		info, err := os.Stat(root)
		if err != nil {
			log.Warnf("not watching %s: %v", root, err)
			continue
		}
		if info.IsDir() {
			w.addTree(root)
			continue
		}
		// Watch the parent so editors that replace files on save still
		// produce events.
		w.addDir(filepath.Dir(root))
	}
	log.Infof("watching %d directories", len(w.WatchedDirs()))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Errorf("error closing watcher: %v", err)
	}
	logging.Get(logging.CategoryWatch).Debug("stopped")
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	log := logging.Get(logging.CategoryWatch)
	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("context cancelled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
			log.Errorf("watcher error: %v", err)

		case <-ticker.C:
			w.processDebouncedEvents(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if w.ignored(path) || !w.relevant(path) {
		return
	}
	if event.Op == fsnotify.Chmod {
		return
	}

	eventType := "modify"
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.addTree(path)
		}
	case event.Op&fsnotify.Remove != 0:
		eventType = "delete"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	}

	w.mu.Lock()
	switch eventType {
	case "create":
		w.stats.FilesCreated++
	case "delete", "rename":
		w.stats.FilesDeleted++
		delete(w.watched, path)
	default:
		w.stats.FilesModified++
	}
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = path
	w.stats.LastEventType = eventType
	w.debounceMap[path] = time.Now()
	w.mu.Unlock()

	logging.Get(logging.CategoryWatch).Debugf("%s %s", eventType, path)
}

// processDebouncedEvents rebuilds once every pending path has been quiet
// for the debounce period, so a burst of saves yields one build.
func (w *Watcher) processDebouncedEvents(ctx context.Context) {
	w.mu.Lock()
	if len(w.debounceMap) == 0 {
		w.mu.Unlock()
		return
	}
	now := time.Now()
	for _, last := range w.debounceMap {
		if now.Sub(last) < w.debounceDur {
			w.mu.Unlock()
			return
		}
	}
	changed := make([]string, 0, len(w.debounceMap))
	for path := range w.debounceMap {
		changed = append(changed, path)
	}
	w.debounceMap = make(map[string]time.Time)
	w.mu.Unlock()

	sort.Strings(changed)
	log := logging.Get(logging.CategoryWatch)
	log.Infof("rebuilding after %d change(s)", len(changed))

	err := w.rebuild(ctx, changed)

	w.mu.Lock()
	w.stats.Rebuilds++
	w.stats.LastRebuild = time.Now()
	if err != nil {
		w.stats.Errors++
	}
	w.mu.Unlock()
	if err != nil {
		log.Errorf("rebuild failed: %v", err)
	}
}

// relevant reports whether path lies under a watched root. Events for
// siblings of a watched file root are dropped.
func (w *Watcher) relevant(path string) bool {
	for _, root := range w.roots {
		if path == root {
			return true
		}
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

func (w *Watcher) ignored(path string) bool {
	if len(w.ignore) == 0 {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		for _, name := range w.ignore {
			if part == name {
				return true
			}
		}
	}
	return false
}

func (w *Watcher) addTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		w.addDir(path)
		return nil
	})
}

func (w *Watcher) addDir(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[dir] {
		return
	}
	if err := w.watcher.Add(dir); err != nil {
		logging.Get(logging.CategoryWatch).Warnf("watch %s: %v", dir, err)
		return
	}
	w.watched[dir] = true
}

// GetStats returns a copy of the current statistics.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// ResetStats clears all statistics.
func (w *Watcher) ResetStats() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats = Stats{}
}

// IsWatching returns true if the watcher is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// WatchedDirs returns the watched directories, sorted.
func (w *Watcher) WatchedDirs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	dirs := make([]string, 0, len(w.watched))
	for d := range w.watched {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}
