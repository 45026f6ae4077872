package run

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flarebyte/chartship/internal/app"
	"github.com/flarebyte/chartship/internal/config"
	"github.com/flarebyte/chartship/internal/logging"
	"github.com/flarebyte/chartship/internal/report"
)

// NewCmd returns the `chartship run` command.
func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "run",
		Short:         "Run every changed chart through build, lint, publish and tag",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString(config.FlagConfig)
			cfg, err := config.Load(config.Options{ConfigFile: cfgPath, Flags: cmd.Flags()})
			if err != nil {
				return fatal(err)
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return execute(ctx, cmd, cfg)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func execute(ctx context.Context, cmd *cobra.Command, cfg config.Run) error {
	logger := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)

	push, err := app.LoadEvent(cfg)
	if err != nil {
		return fatal(err)
	}
	deps, err := app.NewDeps(cfg, push, logger)
	if err != nil {
		return fatal(err)
	}
	outcome, err := app.Run(ctx, cfg, push, deps, logger)
	if err != nil {
		return fatal(err)
	}

	// Success output is a single JSON line.
	if err := report.WriteJSON(cmd.OutOrStdout(), outcome); err != nil {
		return fatal(err)
	}
	if cfg.ReportPath != "" {
		if err := report.WriteYAML(cfg.ReportPath, outcome); err != nil {
			return fatal(err)
		}
	}
	for _, r := range outcome.Results {
		logger.Info("chart finished", "dir", r.Directory.Path, "state", string(r.State))
	}
	return evaluateRunExit(outcome)
}
