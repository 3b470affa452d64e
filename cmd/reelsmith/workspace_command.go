package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reelsmith/internal/logging"
	"reelsmith/internal/workspace"
)

func newWorkspaceCommand(ctx *commandContext) *cobra.Command {
	workspaceCmd := &cobra.Command{
		Use:   "workspace",
		Short: "Inspect and clean per-run temporary directories",
	}
	workspaceCmd.AddCommand(newWorkspaceListCommand(ctx))
	workspaceCmd.AddCommand(newWorkspaceCleanCommand(ctx))
	return workspaceCmd
}

func newWorkspaceListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List run directories still on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dirs, err := workspace.List(cfg.Paths.TempDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No run directories")
				return nil
			}
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				rows = append(rows, []string{
					dir.Name,
					dir.ModTime.Local().Format(time.DateTime),
					strconv.FormatFloat(float64(dir.Size)/(1<<20), 'f', 1, 64),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{Header: "Run"},
				{Header: "Modified"},
				{Header: "MiB", Right: true},
			}, rows))
			return nil
		},
	}
}

func newWorkspaceCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove abandoned run directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			maxAge := olderThan
			if maxAge <= 0 {
				maxAge = cfg.StaleAfter()
			}
			if maxAge <= 0 {
				return fmt.Errorf("no age threshold: pass --older-than or set workspace.stale_after_hours")
			}
			result := workspace.CleanStale(cmd.Context(), cfg.Paths.TempDir, maxAge, logging.NewNop())
			out := cmd.OutOrStdout()
			for _, path := range result.Removed {
				fmt.Fprintf(out, "removed %s\n", path)
			}
			for _, failure := range result.Errors {
				fmt.Fprintf(out, "failed %s: %v\n", failure.Path, failure.Error)
			}
			fmt.Fprintf(out, "%d removed, %d failed\n", len(result.Removed), len(result.Errors))
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d run directories could not be removed", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Age threshold (defaults to workspace.stale_after_hours)")
	return cmd
}
