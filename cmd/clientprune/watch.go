package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/clientprune/internal/scanner"
	"github.com/panbanda/clientprune/pkg/analyzer/prune"
	"github.com/panbanda/clientprune/pkg/source"
	"github.com/panbanda/clientprune/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Prune modules into --out-dir and keep them up to date",
		ArgsUsage: "[path]",
		Flags: append(pruneFlags(),
			&cli.StringFlag{
				Name:     "out-dir",
				Usage:    "Directory receiving pruned modules",
				Required: true,
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "Quiet period before a changed module is pruned",
			},
		),
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	root, err := filepath.Abs(getPaths(c)[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	outDir, err := filepath.Abs(c.String("out-dir"))
	if err != nil {
		return fmt.Errorf("invalid --out-dir: %w", err)
	}

	store, err := openStore(c, cfg, true)
	if err != nil {
		return err
	}
	src := source.NewFilesystem()
	a := prune.NewAnalyzer(
		prune.WithTransformOptions(pruneOptions(c, cfg)),
		prune.WithSource(src),
		prune.WithStore(store),
		prune.WithWorkers(workers(c, cfg)),
	)
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	files, err := scanner.NewScanner(cfg).ScanDir(root)
	if err != nil {
		return err
	}
	if len(files) > 0 {
		analysis, err := runAnalysis(ctx, c, a, files, "Pruning modules...")
		if err != nil {
			return err
		}
		warnFailures(c.App.ErrWriter, analysis.Failures)
		written, err := writeMirror(analysis, src, outDir, root)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.ErrWriter, color.GreenString("Wrote %d modules to %s", written, outDir))
	}

	watcher, err := watch.NewWatcher(root, cfg, c.Duration("debounce"))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()
	watcher.SetOutput(c.App.ErrWriter)
	watcher.SetCallback(func(path string) {
		repruneModule(ctx, c, a, src, path, outDir, root)
	})

	if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// repruneModule prunes one changed module into the mirror.
func repruneModule(ctx context.Context, c *cli.Context, a *prune.Analyzer, src source.ContentSource, path, outDir, root string) {
	start := time.Now()
	analysis, err := a.Analyze(ctx, []string{path})
	if err != nil {
		return
	}
	warnFailures(c.App.ErrWriter, analysis.Failures)
	if _, err := writeMirror(analysis, src, outDir, root); err != nil {
		fmt.Fprintln(c.App.ErrWriter, color.RedString("write failed: %v", err))
		return
	}
	for _, m := range analysis.Modules {
		fmt.Fprintf(c.App.ErrWriter, "  %d removed, %d -> %d bytes (%s)\n",
			len(m.Removed), m.BytesBefore, m.BytesAfter, time.Since(start).Round(time.Millisecond))
	}
}
