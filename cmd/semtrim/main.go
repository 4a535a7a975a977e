// Package main provides the semtrim binary entry point.
// Semtrim builds token-optimized source listings by parsing files with
// tree-sitter and shrinking literals, comments, and function bodies
// under per-category token budgets.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	// Register supported languages via init()
	_ "github.com/c360studio/semtrim/lang/all"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/c360studio/semtrim/config"
	"github.com/c360studio/semtrim/listing"
	"github.com/c360studio/semtrim/report"
	"github.com/c360studio/semtrim/tokens"
	"github.com/c360studio/semtrim/watch"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semtrim"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	// Pick up a local .env; real environment variables win
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type listOptions struct {
	configPath string
	logLevel   string
	encoding   string
	format     string
	output     string
	workers    int
	include    []string
	exclude    []string
	stats      string
	natsURL    string
}

func rootCmd() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "semtrim [path...]",
		Short: "Token-optimized source listings",
		Long: `Semtrim builds source listings sized for language-model context
windows. Files are parsed with tree-sitter and shrunk under per-category
token budgets while the surrounding structure stays intact.

It provides:
- Literal shrinking (strings, sequences, mappings, factory calls)
- Comment policies (keep_all, strip_all, keep_doc, keep_first_sentence)
- Function body stripping with visibility and pattern exceptions

Paths are walked recursively; include/exclude globs select files. The
optimized listing is written to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.encoding, "encoding", "", "Token encoding name, or \"heuristic\"")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Listing format (plain, markdown)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the listing to this file instead of stdout")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Concurrent file workers (0 uses config)")
	cmd.Flags().StringSliceVar(&opts.include, "include", nil, "Include globs, root-relative")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "Exclude globs, root-relative")
	cmd.Flags().StringVar(&opts.stats, "stats", "", "Print a run report to stderr (text, json)")
	cmd.Flags().StringVar(&opts.natsURL, "nats-url", "", "Publish run stats to NATS at this URL")

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	cmd.AddCommand(watchCmd(), configCmd())

	return cmd
}

func runList(opts listOptions, args []string) error {
	started := time.Now()

	logger := newLogger(opts.logLevel)
	slog.SetDefault(logger)

	cfg, err := loadConfig(opts.configPath, logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flags override file configuration
	if opts.encoding != "" {
		cfg.Encoding = opts.encoding
	}
	if opts.format != "" {
		cfg.Listing.Format = opts.format
	}
	if opts.workers > 0 {
		cfg.Listing.Workers = opts.workers
	}
	if len(opts.include) > 0 {
		cfg.Listing.Include = opts.include
	}
	if len(opts.exclude) > 0 {
		cfg.Listing.Exclude = opts.exclude
	}
	if opts.stats != "" {
		cfg.Report.Format = opts.stats
	}
	if opts.natsURL != "" {
		cfg.Report.NATSURL = opts.natsURL
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	roots, err := resolveRoots(args, false)
	if err != nil {
		return err
	}

	counter, err := tokens.New(cfg.Encoding)
	if err != nil {
		return fmt.Errorf("create token counter: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	files, err := listing.Resolve(roots, cfg.Listing.Include, cfg.Listing.Exclude, nil)
	if err != nil {
		return fmt.Errorf("resolve files: %w", err)
	}
	if len(files) == 0 {
		logger.Warn("No files matched", "roots", roots, "include", cfg.Listing.Include)
		return nil
	}

	builder, err := listing.NewBuilder(cfg, counter, listing.WithLogger(logger))
	if err != nil {
		return err
	}

	doc, err := builder.Build(ctx, files)
	if err != nil {
		return fmt.Errorf("build listing: %w", err)
	}

	text, err := listing.Render(doc, cfg.Listing.Format)
	if err != nil {
		return err
	}
	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(text), 0644); err != nil {
			return fmt.Errorf("write listing: %w", err)
		}
	} else {
		fmt.Print(text)
	}

	rep := report.FromDocument(doc, cfg.Encoding, started)
	if opts.stats != "" {
		if err := rep.Render(os.Stderr, cfg.Report.Format); err != nil {
			return err
		}
	}

	pub, err := report.NewPublisher(cfg.Report.NATSURL, cfg.Report.Subject, logger)
	if err != nil {
		return err
	}
	defer pub.Close()
	if err := publishReport(ctx, pub, rep); err != nil {
		logger.Warn("Stats publishing failed", "error", err)
	}

	logger.Info("Listing complete",
		"files", rep.FilesTotal,
		"tokens_before", rep.TokensBefore,
		"tokens_after", rep.TokensAfter,
		"saved", rep.TokensSaved)

	if rep.FilesFailed > 0 {
		return fmt.Errorf("%d of %d files failed", rep.FilesFailed, rep.FilesTotal)
	}
	return nil
}

type watchOptions struct {
	configPath  string
	logLevel    string
	encoding    string
	include     []string
	exclude     []string
	debounce    time.Duration
	metricsAddr string
	natsURL     string
}

func watchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch [path...]",
		Short: "Re-optimize files as they change",
		Long: `Watch monitors the given directories and re-optimizes files as they
are created or modified. Rapid save bursts are debounced, writes that
leave the content unchanged are suppressed, and per-file stats are
published when NATS publishing is configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.encoding, "encoding", "", "Token encoding name, or \"heuristic\"")
	cmd.Flags().StringSliceVar(&opts.include, "include", nil, "Include globs, root-relative")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "Exclude globs, root-relative")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 0, "Quiet period before re-optimizing a changed file")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().StringVar(&opts.natsURL, "nats-url", "", "Publish stats to NATS at this URL")

	return cmd
}

func runWatch(opts watchOptions, args []string) error {
	// Print banner
	printBanner()

	logger := newLogger(opts.logLevel)
	slog.SetDefault(logger)

	cfg, err := loadConfig(opts.configPath, logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flags override file configuration
	if opts.encoding != "" {
		cfg.Encoding = opts.encoding
	}
	if len(opts.include) > 0 {
		cfg.Listing.Include = opts.include
	}
	if len(opts.exclude) > 0 {
		cfg.Listing.Exclude = opts.exclude
	}
	if opts.debounce > 0 {
		cfg.Watch.Debounce = config.Duration(opts.debounce)
	}
	if opts.metricsAddr != "" {
		cfg.Watch.MetricsAddr = opts.metricsAddr
	}
	if opts.natsURL != "" {
		cfg.Report.NATSURL = opts.natsURL
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	roots, err := resolveRoots(args, true)
	if err != nil {
		return err
	}

	counter, err := tokens.New(cfg.Encoding)
	if err != nil {
		return fmt.Errorf("create token counter: %w", err)
	}

	builder, err := listing.NewBuilder(cfg, counter, listing.WithLogger(logger))
	if err != nil {
		return err
	}

	pub, err := report.NewPublisher(cfg.Report.NATSURL, cfg.Report.Subject, logger)
	if err != nil {
		return err
	}
	defer pub.Close()

	// Setup signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var metrics *watch.Metrics
	if cfg.Watch.MetricsAddr != "" {
		metrics = watch.NewMetrics()
		go func() {
			if err := metrics.Serve(ctx, cfg.Watch.MetricsAddr); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
		logger.Info("Serving metrics", "addr", cfg.Watch.MetricsAddr)
	}

	w, err := watch.NewWatcher(watch.Config{
		Roots:    roots,
		Include:  cfg.Listing.Include,
		Exclude:  cfg.Listing.Exclude,
		Debounce: cfg.Watch.Debounce.Duration(),
		Metrics:  metrics,
		Logger:   logger,
	}, builder)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Initial pass over everything that currently matches
	started := time.Now()
	files, err := w.Prime(ctx)
	if err != nil {
		return fmt.Errorf("prime watcher: %w", err)
	}
	if len(files) > 0 {
		doc, err := builder.Build(ctx, files)
		if err != nil {
			return fmt.Errorf("initial optimization: %w", err)
		}
		rep := report.FromDocument(doc, cfg.Encoding, started)
		if err := publishReport(ctx, pub, rep); err != nil {
			logger.Warn("Stats publishing failed", "error", err)
		}
		logger.Info("Initial optimization complete",
			"files", rep.FilesTotal,
			"failed", rep.FilesFailed,
			"saved", rep.TokensSaved)
	}

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("Received shutdown signal")
			if err := w.Stop(); err != nil {
				logger.Error("Error stopping watcher", "error", err)
			}
			slog.Info("Semtrim shutdown complete")
			return nil
		case ev := <-w.Events():
			handleWatchEvent(ctx, logger, pub, ev)
		}
	}
}

func handleWatchEvent(ctx context.Context, logger *slog.Logger, pub *report.Publisher, ev watch.Event) {
	if ev.Operation == watch.OpDelete {
		logger.Info("File removed", "path", ev.File.Rel)
		return
	}
	if ev.Result == nil {
		return
	}

	fr := report.FromFileResult(*ev.Result)
	if fr.Error != "" {
		logger.Warn("File re-optimization failed", "path", fr.Path, "error", fr.Error)
	} else {
		logger.Info("File re-optimized",
			"path", fr.Path,
			"op", string(ev.Operation),
			"tokens_before", fr.TokensBefore,
			"tokens_after", fr.TokensAfter,
			"saved", fr.TokensSaved)
	}

	if err := pub.PublishFile(ctx, fr); err != nil {
		logger.Warn("Stats publishing failed", "path", fr.Path, "error", err)
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage semtrim configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default user config if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.NewLoader(newLogger("info")).EnsureUserConfig()
		},
	})

	return cmd
}

// newLogger builds a text handler at the requested level; unknown names
// fall back to info
func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig loads the layered user/project configuration, or exactly the
// named file when --config is given
func loadConfig(path string, logger *slog.Logger) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.NewLoader(logger).Load()
}

// resolveRoots absolutizes the path arguments, defaulting to the current
// directory, and verifies each exists. Watch mode requires directories
func resolveRoots(args []string, dirOnly bool) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	roots := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolve path %s: %w", arg, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("stat path: %w", err)
		}
		if dirOnly && !info.IsDir() {
			return nil, fmt.Errorf("not a directory: %s", abs)
		}
		roots = append(roots, abs)
	}
	return roots, nil
}

// publishReport sends per-file and run stats when publishing is enabled.
// Publishing never fails the run; callers log the error and continue
func publishReport(ctx context.Context, pub *report.Publisher, rep *report.Report) error {
	if !pub.Enabled() {
		return nil
	}
	for _, fr := range rep.Files {
		if err := pub.PublishFile(ctx, fr); err != nil {
			return err
		}
	}
	return pub.PublishRun(ctx, rep)
}

func printBanner() {
	fmt.Println("╔═══════════════════════════════════════════════╗")
	fmt.Println("║             Semtrim v" + Version + "                     ║")
	fmt.Println("║      Token-Optimized Source Listings          ║")
	fmt.Println("╚═══════════════════════════════════════════════╝")
}
