package watch

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/semtrim/config"
	"github.com/c360studio/semtrim/listing"
	"github.com/c360studio/semtrim/optimize"
	"github.com/c360studio/semtrim/tokens"

	_ "github.com/c360studio/semtrim/lang/golang"
)

const watchedSource = `package demo

func Exported() int {
	total := alpha + beta + gamma
	total += delta * epsilon
	return total
}
`

func newTestWatcher(t *testing.T, root string) *Watcher {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Optimize.FunctionBodies.Policy = optimize.PolicyStripAll
	builder, err := listing.NewBuilder(cfg, tokens.Estimator{})
	if err != nil {
		t.Fatalf("failed to create builder: %v", err)
	}

	w, err := NewWatcher(Config{Roots: []string{root}}, builder)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	t.Cleanup(func() { w.watcher.Close() })
	return w
}

// takeEvent drains one queued event without blocking.
func takeEvent(t *testing.T, w *Watcher) (Event, bool) {
	t.Helper()
	select {
	case ev := <-w.events:
		return ev, true
	default:
		return Event{}, false
	}
}

func TestNewWatcher_Defaults(t *testing.T) {
	w := newTestWatcher(t, t.TempDir())

	if w.cfg.Debounce != 500*time.Millisecond {
		t.Errorf("expected 500ms default debounce, got %v", w.cfg.Debounce)
	}
	if len(w.include) != 1 || w.include[0] != "**/*" {
		t.Errorf("expected default include pattern, got %v", w.include)
	}
}

func TestContentHash(t *testing.T) {
	a := contentHash([]byte("package a\n"))
	b := contentHash([]byte("package b\n"))

	if a == b {
		t.Error("different content should hash differently")
	}
	if a != contentHash([]byte("package a\n")) {
		t.Error("hashing is not deterministic")
	}
}

func TestWatcher_FileFor(t *testing.T) {
	root := t.TempDir()
	w := newTestWatcher(t, root)
	w.cfg.Exclude = []string{"**/*_test.go"}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"supported file under root", filepath.Join(root, "main.go"), true},
		{"nested supported file", filepath.Join(root, "pkg", "util.go"), true},
		{"excluded file", filepath.Join(root, "main_test.go"), false},
		{"unsupported extension", filepath.Join(root, "notes.txt"), false},
		{"outside the roots", "/elsewhere/main.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := w.fileFor(tt.path)
			if ok != tt.want {
				t.Errorf("fileFor(%s) = %v, want %v", tt.path, ok, tt.want)
			}
			if ok && f.Root != root {
				t.Errorf("expected root %s, got %s", root, f.Root)
			}
		})
	}
}

func TestWatcher_FlushPending_OptimizesChangedFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "demo.go")
	if err := os.WriteFile(path, []byte(watchedSource), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	w := newTestWatcher(t, root)
	ctx := context.Background()

	// First write: no recorded hash, so the file counts as created
	w.pending[path] = fsnotify.Write
	w.flushPending(ctx)

	ev, ok := takeEvent(t, w)
	if !ok {
		t.Fatal("expected an event after the first flush")
	}
	if ev.Operation != OpCreate {
		t.Errorf("expected create, got %s", ev.Operation)
	}
	if ev.Result == nil {
		t.Fatal("expected an optimization result")
	}
	if !strings.Contains(string(ev.Result.Text), "function body omitted") {
		t.Errorf("expected stripped body in result, got:\n%s", ev.Result.Text)
	}
	if ev.Result.Saved() <= 0 {
		t.Errorf("expected positive savings, got %d", ev.Result.Saved())
	}

	// Touch without content change: suppressed by the hash check
	w.pending[path] = fsnotify.Write
	w.flushPending(ctx)
	if _, ok := takeEvent(t, w); ok {
		t.Error("unchanged content should not produce an event")
	}

	// Real modification: reported as modify
	if err := os.WriteFile(path, []byte(watchedSource+"\nvar extra = 1\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite file: %v", err)
	}
	w.pending[path] = fsnotify.Write
	w.flushPending(ctx)

	ev, ok = takeEvent(t, w)
	if !ok {
		t.Fatal("expected an event after the modification")
	}
	if ev.Operation != OpModify {
		t.Errorf("expected modify, got %s", ev.Operation)
	}
}

func TestWatcher_FlushPending_Delete(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "demo.go")
	w := newTestWatcher(t, root)
	w.setHash(path, "stale")

	w.pending[path] = fsnotify.Remove
	w.flushPending(context.Background())

	ev, ok := takeEvent(t, w)
	if !ok {
		t.Fatal("expected a delete event")
	}
	if ev.Operation != OpDelete {
		t.Errorf("expected delete, got %s", ev.Operation)
	}
	if ev.Result != nil {
		t.Error("delete events carry no result")
	}
	if _, still := w.getHash(path); still {
		t.Error("hash should be dropped on delete")
	}
}

func TestWatcher_Prime_SuppressesUnchangedFiles(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "demo.go")
	if err := os.WriteFile(path, []byte(watchedSource), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	w := newTestWatcher(t, root)
	files, err := w.Prime(context.Background())
	if err != nil {
		t.Fatalf("Prime() error = %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 primed file, got %d", len(files))
	}

	// A spurious event on a primed, unchanged file is suppressed
	w.pending[path] = fsnotify.Write
	w.flushPending(context.Background())
	if _, ok := takeEvent(t, w); ok {
		t.Error("primed unchanged file should not produce an event")
	}
}

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics()
	m.Observe(10, 2*time.Millisecond)
	m.Observe(-5, time.Millisecond)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	body := rec.Body.String()

	if !strings.Contains(body, "semtrim_watch_files_reoptimized_total 2") {
		t.Errorf("expected 2 reoptimized files in scrape:\n%s", body)
	}
	// Negative savings are not subtracted
	if !strings.Contains(body, "semtrim_watch_tokens_saved_total 10") {
		t.Errorf("expected 10 saved tokens in scrape:\n%s", body)
	}
	if !strings.Contains(body, "semtrim_watch_optimize_duration_seconds_count 2") {
		t.Errorf("expected 2 duration observations in scrape:\n%s", body)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.Observe(5, time.Millisecond) // must not panic
}

func TestMetrics_ServeStopsWithContext(t *testing.T) {
	m := NewMetrics()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- m.Serve(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop after cancellation")
	}
}
