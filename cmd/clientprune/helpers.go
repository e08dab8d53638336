package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/clientprune/internal/cache"
	"github.com/panbanda/clientprune/internal/output"
	"github.com/panbanda/clientprune/internal/progress"
	"github.com/panbanda/clientprune/internal/scanner"
	"github.com/panbanda/clientprune/internal/vcs"
	"github.com/panbanda/clientprune/pkg/analyzer"
	"github.com/panbanda/clientprune/pkg/analyzer/prune"
	"github.com/panbanda/clientprune/pkg/config"
	"github.com/panbanda/clientprune/pkg/source"
)

// pruneFlags are shared by every command that runs the transform.
func pruneFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "directive",
			Usage: "Directive that marks a client module (repeatable, default from config)",
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Prune every module, not only those with a directive",
		},
		&cli.BoolFlag{
			Name:  "stub",
			Usage: "Replace retained exported implementations with null placeholders",
		},
		&cli.StringFlag{
			Name:  "null-call",
			Usage: "Null the arguments of `key: NAME(...)` object properties",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Modules pruned concurrently (0 = 2x CPUs, default from config)",
		},
	}
}

// loadConfig loads the config named by --config or found in the default
// locations.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// pruneOptions applies command-line overrides to the configured options.
func pruneOptions(c *cli.Context, cfg *config.Config) prune.Options {
	opts := prune.OptionsFromConfig(cfg.Prune)
	if dirs := c.StringSlice("directive"); len(dirs) > 0 {
		opts.Directives = dirs
	}
	if c.Bool("all") {
		opts.RequireDirective = false
	}
	if c.IsSet("stub") {
		opts.StubExports = c.Bool("stub")
	}
	if c.IsSet("null-call") {
		opts.NullCall = c.String("null-call")
	}
	return opts
}

func workers(c *cli.Context, cfg *config.Config) int {
	if c.IsSet("workers") {
		return c.Int("workers")
	}
	return cfg.Workers
}

// openStore returns the result cache, or nil when caching is off. The memory
// layer is only worth it for long-running commands.
func openStore(c *cli.Context, cfg *config.Config, withMemory bool) (cache.Store, error) {
	if c.Bool("no-cache") || !cfg.Cache.Enabled {
		if !withMemory {
			return nil, nil
		}
		return cache.NewMemory(cfg.Cache.MemoryEntries)
	}
	disk, err := cache.NewDisk(cfg.Cache.Dir, cfg.Cache.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	if !withMemory {
		return disk, nil
	}
	mem, err := cache.NewMemory(cfg.Cache.MemoryEntries)
	if err != nil {
		return nil, err
	}
	return cache.Layered{mem, disk}, nil
}

// collectFiles resolves the modules to prune and where to read them from.
// With --ref the modules come from that git revision instead of the working
// tree.
func collectFiles(c *cli.Context, cfg *config.Config) ([]string, source.ContentSource, error) {
	paths := getPaths(c)
	scan := scanner.NewScanner(cfg)

	ref := c.String("ref")
	if ref == "" {
		files, err := scan.ScanPaths(paths)
		if err != nil {
			return nil, nil, err
		}
		return files, source.NewFilesystem(), nil
	}

	var spinner *progress.Tracker
	if !c.Bool("no-progress") {
		spinner = progress.NewSpinner("Reading " + ref + "...")
	}
	files, tree, snap, err := revisionFiles(paths, ref, scan)
	if spinner != nil {
		spinner.FinishSuccess()
	}
	if err != nil {
		return nil, nil, err
	}
	fmt.Fprintf(c.App.ErrWriter, "Read %d modules at %s (%s)\n", len(files), ref, snap.Short())
	return files, tree, nil
}

func revisionFiles(paths []string, ref string, scan *scanner.Scanner) ([]string, *source.TreeSource, *vcs.Snapshot, error) {
	tree, snap, err := source.OpenRevision(paths[0], ref)
	if err != nil {
		return nil, nil, nil, err
	}
	seen := make(map[string]bool)
	var files []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("invalid path %s: %w", p, err)
		}
		found, err := tree.Files(abs, scan.Accept)
		if err != nil {
			return nil, nil, nil, err
		}
		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files, tree, snap, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runAnalysis prunes files, showing a progress bar unless disabled.
func runAnalysis(ctx context.Context, c *cli.Context, a *prune.Analyzer, files []string, label string) (*prune.Analysis, error) {
	if c.Bool("no-progress") {
		return a.Analyze(ctx, files)
	}
	tracker := progress.NewTracker(label, len(files))
	counts := tracker.Analyzer()
	analysis, err := a.Analyze(analyzer.WithTracker(ctx, counts), files)
	if err != nil {
		tracker.FinishError(err)
		return nil, err
	}
	tracker.FinishSuccess()
	if summary := counts.Summary(); summary != "" {
		fmt.Fprintf(c.App.ErrWriter, "  %s: %s\n", label, summary)
	}
	return analysis, nil
}

// newFormatter builds the report formatter from --format, --output and the
// config defaults.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := cfg.Output.Format
	if c.IsSet("format") {
		format = c.String("format")
	}
	if path := c.String("output"); path != "" {
		return output.NewFormatter(output.ParseFormat(format), path, false)
	}
	return output.NewWriterFormatter(output.ParseFormat(format), c.App.Writer, cfg.Output.Color && !color.NoColor), nil
}

// warnFailures prints one line per module that could not be pruned.
func warnFailures(w io.Writer, failures []prune.Failure) {
	for _, f := range failures {
		fmt.Fprintln(w, color.YellowString("skipped %s: %s", f.Path, f.Error))
	}
}

// mirrorPath maps a module path to its location below outDir, keeping its
// position relative to base.
func mirrorPath(outDir, base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(path)
	}
	return filepath.Join(outDir, rel)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// writeInPlace overwrites every changed module with its pruned output.
func writeInPlace(a *prune.Analysis) (int, error) {
	written := 0
	for _, m := range a.Changed() {
		info, err := os.Stat(m.Path)
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(m.Path, m.Output, info.Mode().Perm()); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", m.Path, err)
		}
		written++
	}
	return written, nil
}

// writeMirror writes every module below outDir. Modules that failed to
// prune are copied unchanged so the mirror stays complete.
func writeMirror(a *prune.Analysis, src source.ContentSource, outDir, base string) (int, error) {
	written := 0
	for _, m := range a.Modules {
		if err := writeFile(mirrorPath(outDir, base, m.Path), m.Output); err != nil {
			return written, err
		}
		written++
	}
	for _, f := range a.Failures {
		content, err := src.Read(f.Path)
		if err != nil {
			continue
		}
		if err := writeFile(mirrorPath(outDir, base, f.Path), content); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// mirrorBase is the directory module paths are made relative to when
// mirroring: the single directory argument, or the working directory.
func mirrorBase(c *cli.Context) string {
	paths := getPaths(c)
	if len(paths) == 1 {
		if info, err := os.Stat(paths[0]); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(paths[0]); err == nil {
				return abs
			}
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
