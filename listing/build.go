package listing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/c360studio/semtrim/config"
	"github.com/c360studio/semtrim/lang"
	"github.com/c360studio/semtrim/optimize"
	"github.com/c360studio/semtrim/tokens"
)

// FileResult is the outcome of optimizing one file.
type FileResult struct {
	File     File
	Language string
	// Text is the optimized source. When Err is set it holds however far
	// the passes got, or the original bytes; the file stays in the
	// listing rather than silently disappearing.
	Text  []byte
	Stats []optimize.NodeStat
	// TokensBefore and TokensAfter count the whole file.
	TokensBefore int
	TokensAfter  int
	Err          error
}

// Saved returns the tokens removed from this file.
func (r FileResult) Saved() int {
	return r.TokensBefore - r.TokensAfter
}

// Document is an assembled listing, in input file order.
type Document struct {
	Files []FileResult
}

// TokensBefore sums the original token counts.
func (d *Document) TokensBefore() int {
	total := 0
	for _, f := range d.Files {
		total += f.TokensBefore
	}
	return total
}

// TokensAfter sums the optimized token counts.
func (d *Document) TokensAfter() int {
	total := 0
	for _, f := range d.Files {
		total += f.TokensAfter
	}
	return total
}

// Saved returns the total tokens removed.
func (d *Document) Saved() int {
	return d.TokensBefore() - d.TokensAfter()
}

// Failed returns how many files carried an error.
func (d *Document) Failed() int {
	n := 0
	for _, f := range d.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Builder optimizes files and assembles listing documents. Safe for a
// single Build call at a time; the engine cache is shared across calls.
type Builder struct {
	cfg      *config.Config
	counter  tokens.Counter
	registry *lang.Registry
	logger   *slog.Logger

	mu      sync.Mutex
	engines map[string]*optimize.Engine
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger for per-file warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithRegistry sets the language registry. Defaults to the process-wide
// registry populated by the language packages.
func WithRegistry(registry *lang.Registry) Option {
	return func(b *Builder) {
		if registry != nil {
			b.registry = registry
		}
	}
}

// NewBuilder creates a listing builder.
func NewBuilder(cfg *config.Config, counter tokens.Counter, opts ...Option) (*Builder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if counter == nil {
		return nil, fmt.Errorf("token counter is required")
	}
	b := &Builder{
		cfg:      cfg,
		counter:  counter,
		registry: lang.DefaultRegistry,
		logger:   slog.Default(),
		engines:  make(map[string]*optimize.Engine),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Build optimizes every file through a worker pool bounded by the
// configured worker count and returns the assembled document. Document
// order matches the input order regardless of completion order.
// Cancellation is honored between files: dispatched files finish, queued
// ones are abandoned, and the context error is returned.
func (b *Builder) Build(ctx context.Context, files []File) (*Document, error) {
	results := make([]FileResult, len(files))

	workers := b.cfg.Listing.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					results[i] = FileResult{File: files[i], Err: err}
					continue
				}
				results[i] = b.processFile(ctx, files[i])
			}
		}()
	}

dispatch:
	for i := range files {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Document{Files: results}, nil
}

// processFile runs the three category passes over one file, re-parsing
// between passes because each splice invalidates the previous tree's
// offsets.
func (b *Builder) processFile(ctx context.Context, f File) FileResult {
	res := FileResult{File: f}

	src, err := os.ReadFile(f.Path())
	if err != nil {
		res.Err = fmt.Errorf("reading file: %w", err)
		return res
	}
	res.Text = src
	res.TokensBefore = b.counter.Count(string(src))
	res.TokensAfter = res.TokensBefore

	language, err := b.registry.ForFile(f.Rel)
	if err != nil {
		res.Err = err
		b.logger.Warn("skipping optimization", "path", f.Path(), "error", err)
		return res
	}
	res.Language = language.Name

	engine, err := b.engineFor(language)
	if err != nil {
		res.Err = err
		b.logger.Warn("skipping optimization", "path", f.Path(), "error", err)
		return res
	}

	current := src
	for _, category := range optimize.Categories() {
		tree, err := lang.Parse(ctx, language, current)
		if err != nil {
			res.Err = fmt.Errorf("%s pass: %w", category, err)
			break
		}
		result, err := engine.Optimize(tree.RootNode(), current, category)
		tree.Close()
		if err != nil {
			res.Err = fmt.Errorf("%s pass: %w", category, err)
			break
		}
		if result.Changed {
			current = result.Text
		}
		res.Stats = append(res.Stats, result.Stats...)
	}

	res.Text = current
	res.TokensAfter = b.counter.Count(string(current))
	if res.Err != nil {
		b.logger.Warn("file optimization incomplete", "path", f.Path(), "error", res.Err)
	}
	return res
}

// engineFor returns the cached engine for the language, building it on
// first use. Engines are stateless across files, so one instance serves
// every worker.
func (b *Builder) engineFor(language *lang.Language) (*optimize.Engine, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e, ok := b.engines[language.Name]; ok {
		return e, nil
	}
	e, err := optimize.New(language, b.cfg.ForLanguage(language.Name), b.counter, optimize.WithLogger(b.logger))
	if err != nil {
		return nil, fmt.Errorf("building %s engine: %w", language.Name, err)
	}
	b.engines[language.Name] = e
	return e, nil
}
