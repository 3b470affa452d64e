package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelsmith/internal/ledger"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/textutil"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run ledger: %w", err)
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			now := time.Now()
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.Key,
					textutil.Truncate(run.Topic, 32),
					string(run.Status),
					run.Elapsed(now).Round(time.Second).String(),
					runOutcome(run),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{Header: "Run"},
				{Header: "Topic"},
				{Header: "Status"},
				{Header: "Elapsed", Right: true},
				{Header: "Outcome"},
			}, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func runOutcome(run ledger.Run) string {
	switch run.Status {
	case ledger.StatusDone:
		if run.OutputPath != "" {
			return run.OutputPath
		}
		return pipeline.OutputFileName(run.Key)
	case ledger.StatusFailed:
		msg := strings.TrimSpace(run.FailureReason)
		if run.ErrorMessage != "" {
			msg += ": " + textutil.Truncate(run.ErrorMessage, 60)
		}
		return msg
	default:
		return run.Detail
	}
}
