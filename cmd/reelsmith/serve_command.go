package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"reelsmith/internal/httpapi"
	"reelsmith/internal/ledger"
	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/workspace"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and serve rendered videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), ctx, bind)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override api.bind (host:port)")
	return cmd
}

func runServer(cmdCtx context.Context, ctx *commandContext, bind string) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if bind != "" {
		cfg.API.Bind = bind
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	logPath := filepath.Join(cfg.Paths.LogDir, "reelsmith.log")
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, cfg.Paths.LogDir, "*.log", logPath)

	store, err := ledger.Open(cfg)
	if err != nil {
		logger.Error("open run ledger", logging.Error(err))
		return err
	}
	defer store.Close()

	if n, err := store.FailInterrupted(signalCtx); err != nil {
		logger.Warn("mark interrupted runs", logging.Error(err))
	} else if n > 0 {
		logging.WarnWithContext(logger, "runs interrupted by previous shutdown marked failed", "runs_interrupted",
			logging.Int("count", int(n)),
			logging.String(logging.FieldImpact, "those videos were never produced"),
		)
	}

	swept := workspace.CleanStale(signalCtx, cfg.Paths.TempDir, cfg.StaleAfter(), logger)
	if len(swept.Removed) > 0 {
		logger.Info("removed stale run directories", logging.Int("count", len(swept.Removed)))
	}

	runner, err := pipeline.New(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	server := httpapi.New(cfg, runner, store, nil, logger)
	if err := server.Start(signalCtx); err != nil {
		return err
	}
	defer server.Stop()

	<-signalCtx.Done()
	logger.Info("reelsmith server shutting down", logging.Int("active_runs", runner.Active()))
	return nil
}
