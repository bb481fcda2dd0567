package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/deusflow/scorenews/internal/config"
	"github.com/deusflow/scorenews/internal/logger"
	"github.com/deusflow/scorenews/internal/metrics"
)

type runFlags struct {
	force  bool
	dryRun bool
}

// newRootCmd returns the scorenews command. Without a subcommand it performs
// one scheduled run.
func newRootCmd() *cobra.Command {
	var flags runFlags
	rootCmd := &cobra.Command{
		Use:           "scorenews",
		Short:         "Post football match updates to a Facebook page",
		Long:          "scorenews is run by a scheduler. Each invocation decides whether to post, picks a match, writes a post with an AI model and publishes it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), flags)
		},
	}

	addRunFlags(rootCmd, &flags)

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newVerifyTokenCmd())
	return rootCmd
}

func newRunCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Perform one scheduled run (the default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), flags)
		},
	}
	addRunFlags(cmd, &flags)
	return cmd
}

func addRunFlags(cmd *cobra.Command, flags *runFlags) {
	cmd.Flags().BoolVar(&flags.force, "force", false, "post now, ignoring the cadence decision (same as FORCE_POST=true)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "log the post instead of publishing it (same as DRY_RUN=true)")
}

// loadConfig reads .env files and the environment, then sets up logging.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.LogLevel, nil)
	return cfg, nil
}

func runOnce(ctx context.Context, flags runFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.ForcePost = cfg.ForcePost || flags.force
	cfg.DryRun = cfg.DryRun || flags.dryRun

	runID := uuid.NewString()
	log := logger.With("run_id", runID)

	if err := cfg.Validate(); err != nil {
		return err
	}

	stats := metrics.NewRun(runID, nil)
	a, cleanup, err := buildApp(ctx, cfg, log)
	if err != nil {
		report := stats.Finish(metrics.OutcomeFailed, "setup", err)
		finishReport(ctx, cfg, report)
		return err
	}
	defer cleanup()

	log.Info("starting run", "force", cfg.ForcePost, "dry_run", cfg.DryRun)
	res, runErr := a.Run(ctx, stats)
	report := stats.Finish(res.Outcome, res.Reason, runErr)
	finishReport(ctx, cfg, report)
	return runErr
}

// finishReport writes the run report and pushes metrics. Failures here never
// change the exit status.
func finishReport(ctx context.Context, cfg *config.Config, report metrics.Report) {
	if err := metrics.WriteReport(cfg.RunReportPath, report); err != nil {
		logger.Warn("could not write run report", "path", cfg.RunReportPath, "error", err)
	}
	if err := metrics.Push(ctx, cfg.PushgatewayURL, report); err != nil {
		logger.Warn("could not push metrics", "error", err)
	}
	logger.Info("run finished",
		"outcome", report.Outcome,
		"reason", report.Reason,
		"duration_ms", report.DurationMS)
}
