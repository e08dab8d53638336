package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/clientprune/internal/report"
	"github.com/panbanda/clientprune/pkg/analyzer/prune"
)

var errModulesFailed = errors.New("some modules could not be pruned")

func pruneCmd() *cli.Command {
	return &cli.Command{
		Name:      "prune",
		Aliases:   []string{"p"},
		Usage:     "Remove unreferenced top-level code from client modules",
		ArgsUsage: "[path...]",
		Description: `Prunes every supported module below the given paths.

A single module is printed to stdout unless --write or --out-dir is given.
Several modules require one of them; a report is printed instead.

Examples:
  clientprune prune app/button.tsx
  clientprune prune --write app
  clientprune prune --out-dir .clientprune/out --stub app
  clientprune prune --ref HEAD~1 --out-dir /tmp/prev app`,
		Flags: append(pruneFlags(),
			&cli.BoolFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Usage:   "Rewrite changed modules in place",
			},
			&cli.StringFlag{
				Name:  "out-dir",
				Usage: "Write pruned modules below this directory, mirroring their layout",
			},
			&cli.StringFlag{
				Name:  "ref",
				Usage: "Read modules from this git revision instead of the working tree",
			},
		),
		Action: runPruneCmd,
	}
}

func runPruneCmd(c *cli.Context) error {
	write := c.Bool("write")
	outDir := c.String("out-dir")
	if write && outDir != "" {
		return fmt.Errorf("--write and --out-dir are mutually exclusive")
	}
	if write && c.String("ref") != "" {
		return fmt.Errorf("--write cannot be combined with --ref")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	files, src, err := collectFiles(c, cfg)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(c.App.ErrWriter, color.YellowString("No source files found"))
		return nil
	}
	if !write && outDir == "" && len(files) > 1 {
		return fmt.Errorf("%d modules found: use --write or --out-dir", len(files))
	}

	store, err := openStore(c, cfg, false)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	a := prune.NewAnalyzer(
		prune.WithTransformOptions(pruneOptions(c, cfg)),
		prune.WithSource(src),
		prune.WithStore(store),
		prune.WithWorkers(workers(c, cfg)),
	)
	defer a.Close()

	analysis, err := runAnalysis(ctx, c, a, files, "Pruning modules...")
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}
	warnFailures(c.App.ErrWriter, analysis.Failures)

	if !write && outDir == "" {
		if len(analysis.Modules) == 1 {
			if _, err := c.App.Writer.Write(analysis.Modules[0].Output); err != nil {
				return err
			}
		}
		return failuresError(analysis)
	}

	var written int
	if write {
		written, err = writeInPlace(analysis)
	} else {
		written, err = writeMirror(analysis, src, outDir, mirrorBase(c))
	}
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if err := formatter.Output(report.Build("clientprune", analysis, false)); err != nil {
		return err
	}
	fmt.Fprintln(c.App.ErrWriter, color.GreenString("Wrote %d modules", written))
	return failuresError(analysis)
}

func failuresError(a *prune.Analysis) error {
	if len(a.Failures) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d failed", errModulesFailed, len(a.Failures))
}
