package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/clientprune/internal/cache"
	"github.com/panbanda/clientprune/internal/output"
	"github.com/panbanda/clientprune/pkg/config"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the result cache",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show the number and size of cached results",
				Action: runCacheStatsCmd,
			},
			{
				Name:  "clear",
				Usage: "Delete cached results",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "expired",
						Usage: "Only delete entries older than the configured TTL",
					},
				},
				Action: runCacheClearCmd,
			},
		},
	}
}

func openDisk(c *cli.Context) (*cache.Disk, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	disk, err := cache.NewDisk(cfg.Cache.Dir, cfg.Cache.TTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return disk, cfg, nil
}

func runCacheStatsCmd(c *cli.Context) error {
	disk, cfg, err := openDisk(c)
	if err != nil {
		return err
	}
	stats, err := disk.Stats()
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	table := output.NewTable("Cache",
		[]string{"Dir", "Entries", "Expired", "Size", "Oldest"},
		[][]string{{
			stats.Dir,
			fmt.Sprint(stats.Entries),
			fmt.Sprint(stats.Expired),
			fmt.Sprintf("%d B", stats.TotalSize),
			stats.OldestAge.Round(time.Second).String(),
		}},
		stats).WithNumeric(1, 2, 3)
	return formatter.Output(table)
}

func runCacheClearCmd(c *cli.Context) error {
	disk, _, err := openDisk(c)
	if err != nil {
		return err
	}
	removed, err := disk.Purge(!c.Bool("expired"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.ErrWriter, color.GreenString("Removed %d cache entries from %s", removed, disk.Dir()))
	return nil
}
