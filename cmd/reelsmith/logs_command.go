package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"reelsmith/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var runKey string
	var level string
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the run log, optionally for one run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, "reelsmith.log")
			filter := logs.Filter{RunID: runKey, MinLevel: level}
			out := cmd.OutOrStdout()

			opts := logs.TailOptions{Offset: -1, Limit: lines}
			if runKey != "" {
				// A run's records are interleaved with others; scan the whole file.
				opts = logs.TailOptions{Offset: 0}
			}
			result, err := logs.Tail(cmd.Context(), path, opts)
			if err != nil {
				return err
			}
			records := filter.Apply(result.Lines)
			if runKey != "" && len(records) > lines && lines > 0 {
				records = records[len(records)-lines:]
			}
			for _, rec := range records {
				fmt.Fprintln(out, logs.Format(rec))
			}
			if !follow {
				return nil
			}

			offset := result.Offset
			for {
				next, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: offset, Follow: true, Wait: 2 * time.Second})
				if err != nil {
					if errors.Is(err, cmd.Context().Err()) {
						return nil
					}
					return err
				}
				for _, rec := range filter.Apply(next.Lines) {
					fmt.Fprintln(out, logs.Format(rec))
				}
				offset = next.Offset
			}
		},
	}
	cmd.Flags().StringVarP(&runKey, "run", "r", "", "Only show records for this run key")
	cmd.Flags().StringVarP(&level, "level", "l", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of records to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new records")
	return cmd
}
