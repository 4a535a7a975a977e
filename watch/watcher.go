// Package watch re-optimizes source files as they change on disk. Events
// are debounced so editor save bursts collapse into one run per file, and
// a content hash suppresses re-optimization when a write left the bytes
// unchanged.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/semtrim/lang"
	"github.com/c360studio/semtrim/listing"
)

// Config configures the file watcher
type Config struct {
	// Roots are the directories to watch
	Roots []string

	// Include and Exclude are glob patterns applied to root-relative
	// paths, with the same semantics as listing resolution
	Include []string
	Exclude []string

	// Debounce is how long to wait for more changes before processing
	Debounce time.Duration

	// Metrics receives per-file observations when set
	Metrics *Metrics

	// Logger for logging events
	Logger *slog.Logger
}

// Operation indicates the type of file operation
type Operation string

const (
	OpCreate Operation = "create"
	OpModify Operation = "modify"
	OpDelete Operation = "delete"
)

// Event represents a re-optimized or deleted file
type Event struct {
	// File identifies the file by root and relative path
	File listing.File

	// Operation is the type of change
	Operation Operation

	// Result is the optimization outcome (nil for delete operations)
	Result *listing.FileResult
}

// Watcher watches for source changes and emits optimization results
type Watcher struct {
	cfg     Config
	builder *listing.Builder
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	include []string

	// Debouncing: collect changes before processing
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op // path → most recent operation

	// State tracking for change suppression
	hashMu sync.RWMutex
	hashes map[string]string // path → content hash

	// Output channel
	events chan Event
}

// NewWatcher creates a file watcher feeding changed files through builder.
func NewWatcher(cfg Config, builder *listing.Builder) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	include := cfg.Include
	if len(include) == 0 {
		include = []string{"**/*"}
	}

	return &Watcher{
		cfg:     cfg,
		builder: builder,
		watcher: fsw,
		logger:  logger,
		include: include,
		pending: make(map[string]fsnotify.Op),
		hashes:  make(map[string]string),
		events:  make(chan Event, 100),
	}, nil
}

// Events returns the channel of watch events
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Prime resolves the currently matching files and records their content
// hashes, so the first watch cycle only reacts to real changes. It
// returns the resolved files for an initial full run.
func (w *Watcher) Prime(ctx context.Context) ([]listing.File, error) {
	files, err := listing.Resolve(w.cfg.Roots, w.cfg.Include, w.cfg.Exclude, nil)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if data, err := os.ReadFile(f.Path()); err == nil {
			w.setHash(f.Path(), contentHash(data))
		}
	}
	return files, nil
}

// Start begins watching the roots for changes. Stop must only be called
// after the context passed here is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	for _, root := range w.cfg.Roots {
		if err := w.addWatchesRecursive(root); err != nil {
			return err
		}
	}

	go w.processEvents(ctx)

	w.logger.Info("File watcher started",
		"roots", w.cfg.Roots,
		"debounce", w.cfg.Debounce)

	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	close(w.events)
	return w.watcher.Close()
}

func (w *Watcher) setHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

func (w *Watcher) getHash(path string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	hash, ok := w.hashes[path]
	return hash, ok
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// addWatchesRecursive adds watches to all directories under root
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Only watch directories
		if !info.IsDir() {
			return nil
		}

		// Skip vendor and hidden directories
		base := filepath.Base(path)
		if path != root && (base == "vendor" || strings.HasPrefix(base, ".")) {
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

// processEvents handles fsnotify events with debouncing
func (w *Watcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Debounce)
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

// handleFSEvent processes a single fsnotify event
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	// Watch newly created directories
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.handleNewDirectory(path)
			return
		}
	}

	f, ok := w.fileFor(path)
	if !ok {
		return
	}

	// Accumulate pending changes; the most recent operation wins, so an
	// editor's remove-then-create save dance ends as a create
	w.pendingMu.Lock()
	w.pending[path] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("File change detected",
		"path", f.Rel,
		"op", event.Op.String())
}

// handleNewDirectory adds a watch to a newly created directory
func (w *Watcher) handleNewDirectory(path string) {
	base := filepath.Base(path)
	if base == "vendor" || strings.HasPrefix(base, ".") {
		return
	}

	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("Failed to watch new directory",
			"path", path,
			"error", err)
	} else {
		w.logger.Debug("Added watch for new directory", "path", path)
	}
}

// fileFor maps an absolute path back to a watched root, applying the
// include/exclude patterns and the language registry filter.
func (w *Watcher) fileFor(path string) (listing.File, bool) {
	for _, root := range w.cfg.Roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		rel = filepath.ToSlash(rel)
		if !matchAny(w.include, rel) || matchAny(w.cfg.Exclude, rel) {
			continue
		}
		if !lang.Supported(path) {
			continue
		}
		return listing.File{Root: root, Rel: rel}, true
	}
	return listing.File{}, false
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// flushPending processes accumulated changes
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}

	// Copy and clear pending
	toProcess := make(map[string]fsnotify.Op)
	for k, v := range w.pending {
		toProcess[k] = v
	}
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		f, ok := w.fileFor(path)
		if !ok {
			continue
		}
		event := Event{File: f}

		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			event.Operation = OpDelete

			w.hashMu.Lock()
			delete(w.hashes, path)
			w.hashMu.Unlock()

			w.sendEvent(event)
			continue
		}

		// The file may be gone by the time the debounce fires
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				event.Operation = OpDelete
				w.sendEvent(event)
			} else {
				w.logger.Warn("Failed to read changed file", "path", path, "error", err)
			}
			continue
		}

		// Skip writes that left the content unchanged
		hash := contentHash(data)
		oldHash, hadHash := w.getHash(path)
		if hadHash && oldHash == hash {
			continue
		}

		start := time.Now()
		doc, err := w.builder.Build(ctx, []listing.File{f})
		if err != nil {
			// Only cancellation reaches here; per-file failures ride in
			// the result
			return
		}
		result := doc.Files[0]

		w.setHash(path, hash)
		w.cfg.Metrics.Observe(result.Saved(), time.Since(start))

		if op.Has(fsnotify.Create) || !hadHash {
			event.Operation = OpCreate
		} else {
			event.Operation = OpModify
		}
		event.Result = &result

		w.sendEvent(event)
	}
}

// sendEvent sends an event to the output channel
func (w *Watcher) sendEvent(event Event) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event",
			"path", event.File.Rel,
			"op", event.Operation)
	default:
		w.logger.Warn("Event channel full, dropping event",
			"path", event.File.Rel)
	}
}
