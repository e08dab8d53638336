package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/clientprune/internal/report"
	"github.com/panbanda/clientprune/pkg/analyzer/prune"
)

var errDeadCode = errors.New("removable code found")

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Report removable bindings without writing anything",
		ArgsUsage: "[path...]",
		Flags: append(pruneFlags(),
			&cli.BoolFlag{
				Name:  "fail-on-dead",
				Usage: "Exit with an error when any binding is removable",
			},
			&cli.StringFlag{
				Name:  "ref",
				Usage: "Check modules at this git revision instead of the working tree",
			},
		),
		Action: runCheckCmd,
	}
}

func runCheckCmd(c *cli.Context) error {
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

	analysis, err := runAnalysis(ctx, c, a, files, "Checking modules...")
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if err := formatter.Output(report.Build("Removable bindings", analysis, true)); err != nil {
		return err
	}

	if c.Bool("fail-on-dead") {
		if n := report.Summarize(analysis).Removed; n > 0 {
			return fmt.Errorf("%w: %d bindings", errDeadCode, n)
		}
	}
	return failuresError(analysis)
}
