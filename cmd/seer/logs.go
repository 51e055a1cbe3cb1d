package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/seer/internal/config"
	"github.com/five82/seer/internal/logtail"
)

const followInterval = time.Second

func (c *cli) logsCmd() *cobra.Command {
	var (
		lines   int
		level   string
		plain   bool
		follow  bool
		logFile string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show seer's own log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := c.cfg.LogFile
			if logFile != "" {
				expanded, err := config.ExpandPath(logFile)
				if err != nil {
					return err
				}
				path = expanded
			}
			if path == "" {
				return fmt.Errorf("logging to a file is disabled (log_file is empty)")
			}

			all, err := logtail.Read(path, 0)
			if err != nil {
				return err
			}
			if all == nil && !follow {
				c.printf("No log yet at %s\n", path)
				return nil
			}
			shown := filterLines(all, level)
			if lines > 0 && len(shown) > lines {
				shown = shown[len(shown)-lines:]
			}
			c.printLogLines(shown, plain)
			if !follow {
				return nil
			}
			return c.followLog(cmd.Context(), path, len(all), level, plain)
		},
	}
	f := cmd.Flags()
	f.IntVarP(&lines, "lines", "n", 50, "number of entries to show (0 = all)")
	f.StringVar(&level, "level", "", "minimum level: debug, info, warn, error")
	f.BoolVar(&plain, "plain", false, "disable colors")
	f.BoolVarP(&follow, "follow", "f", false, "keep printing new entries")
	f.StringVar(&logFile, "file", "", "log file (default from config)")
	return cmd
}

// followLog prints lines appended after the first seen ones until ctx ends.
// A shorter file means it was rotated, so reading restarts at the top.
func (c *cli) followLog(ctx context.Context, path string, seen int, level string, plain bool) error {
	ticker := time.NewTicker(followInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		all, err := logtail.Read(path, 0)
		if err != nil {
			return err
		}
		if len(all) < seen {
			seen = 0
		}
		c.printLogLines(filterLines(all[seen:], level), plain)
		seen = len(all)
	}
}

// filterLines keeps entries at or above level. Lines that are not zap JSON
// always pass.
func filterLines(lines []string, level string) []string {
	if level == "" {
		return lines
	}
	out := lines[:0:0]
	for _, line := range lines {
		if entry, ok := logtail.Parse(line); ok && !logtail.MatchLevel(entry, level) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func (c *cli) printLogLines(lines []string, plain bool) {
	var formatted []string
	if plain {
		formatted = logtail.FormatLines(lines)
	} else {
		formatted = logtail.DefaultPalette().ColorizeLines(lines)
	}
	for _, line := range formatted {
		fmt.Fprintln(c.out, line)
	}
}
