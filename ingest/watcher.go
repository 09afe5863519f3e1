package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/codeguardian/source"
)

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Directory selects the files to watch below its root.
	Directory *Directory

	// DebounceDelay is how long to wait for more changes before processing.
	DebounceDelay time.Duration

	// Logger for logging events.
	Logger *slog.Logger
}

// WatchOperation indicates the type of change.
type WatchOperation string

const (
	OpCreate WatchOperation = "create"
	OpModify WatchOperation = "modify"
	OpDelete WatchOperation = "delete"
)

// WatchEvent is emitted when a watched file's content changes.
type WatchEvent struct {
	// Path relative to the watched root, slash-separated.
	Path string

	Operation WatchOperation

	// Unit holds the new content (zero for deletes).
	Unit source.Unit

	// Err is set when the file could not be read.
	Err error
}

// Watcher watches a directory tree and emits a WatchEvent each time a
// selected file's content actually changes.
type Watcher struct {
	dir     *Directory
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	delay   time.Duration

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op // absolute path → most recent operation

	hashMu sync.RWMutex
	hashes map[string]string // relative path → content hash

	events chan WatchEvent
}

// NewWatcher creates a watcher.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	if config.Directory == nil {
		return nil, fmt.Errorf("watcher directory is required")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	delay := config.DebounceDelay
	if delay == 0 {
		delay = 100 * time.Millisecond
	}

	return &Watcher{
		dir:     config.Directory,
		watcher: fsw,
		logger:  logger,
		delay:   delay,
		pending: make(map[string]fsnotify.Op),
		hashes:  make(map[string]string),
		events:  make(chan WatchEvent, 100),
	}, nil
}

// Events returns the channel of watch events.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Start emits an initial create event for every selected file, then
// begins watching for changes until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.dir.Root()); err != nil {
		return err
	}

	files, err := w.dir.Files(ctx)
	if err != nil {
		return err
	}

	go w.processEvents(ctx, files)

	w.logger.Info("File watcher started",
		"root", w.dir.Root(),
		"files", len(files),
		"debounce", w.delay)

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && skipDir(entry.Name()) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}
		return nil
	})
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules"
}

func (w *Watcher) processEvents(ctx context.Context, initial []string) {
	defer close(w.events)

	for _, rel := range initial {
		event, ok := w.process(rel, fsnotify.Create)
		if ok && !w.sendEvent(ctx, event) {
			return
		}
	}

	ticker := time.NewTicker(w.delay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !skipDir(filepath.Base(path)) {
				if err := w.watcher.Add(path); err != nil {
					w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
	}

	rel, err := w.rel(path)
	if err != nil || !w.dir.Match(rel) {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("File change detected", "path", rel, "op", event.Op.String())
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for _, path := range slices.Sorted(maps.Keys(toProcess)) {
		select {
		case <-ctx.Done():
			return
		default:
		}
		rel, err := w.rel(path)
		if err != nil {
			continue
		}
		if event, ok := w.process(rel, toProcess[path]); ok {
			if !w.sendEvent(ctx, event) {
				return
			}
		}
	}
}

// process reads one file and returns an event when its content changed.
func (w *Watcher) process(rel string, op fsnotify.Op) (WatchEvent, bool) {
	event := WatchEvent{Path: rel}

	if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) || !w.exists(rel) {
		w.hashMu.Lock()
		_, known := w.hashes[rel]
		delete(w.hashes, rel)
		w.hashMu.Unlock()
		event.Operation = OpDelete
		return event, known
	}

	unit, err := w.dir.Read(rel)
	if err != nil {
		event.Operation = OpModify
		event.Err = err
		return event, true
	}

	hash := unit.Hash()
	w.hashMu.Lock()
	oldHash, hadHash := w.hashes[rel]
	w.hashes[rel] = hash
	w.hashMu.Unlock()

	if hadHash && oldHash == hash {
		return event, false
	}

	event.Operation = OpModify
	if !hadHash {
		event.Operation = OpCreate
	}
	event.Unit = unit
	return event, true
}

func (w *Watcher) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(w.dir.Root(), filepath.FromSlash(rel)))
	return err == nil
}

func (w *Watcher) rel(path string) (string, error) {
	rel, err := filepath.Rel(w.dir.Root(), path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// sendEvent blocks until the consumer takes event, so a recorded hash always
// has a delivered event. It returns false once ctx is done.
func (w *Watcher) sendEvent(ctx context.Context, event WatchEvent) bool {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event",
			"path", event.Path,
			"op", event.Operation)
		return true
	case <-ctx.Done():
		return false
	}
}
