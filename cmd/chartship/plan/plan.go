package plan

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/flarebyte/chartship/internal/app"
	"github.com/flarebyte/chartship/internal/config"
	"github.com/flarebyte/chartship/internal/logging"
	"github.com/flarebyte/chartship/internal/pipeline"
)

type planOutput struct {
	Before      string   `json:"before"`
	After       string   `json:"after"`
	Directories []string `json:"directories"`
}

// NewCmd returns `chartship plan`, which prints the chart directories a
// run would process without running any stage.
func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "plan",
		Short:         "Print the chart directories a push changed",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString(config.FlagConfig)
			cfg, err := config.Load(config.Options{
				ConfigFile: cfgPath,
				Flags:      cmd.Flags(),
				Mode:       pipeline.ModeCheck,
			})
			if err != nil {
				return planError{err}
			}
			logger := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			push, err := app.LoadEvent(cfg)
			if err != nil {
				return planError{err}
			}
			deps, err := app.NewDeps(cfg, push, logger)
			if err != nil {
				return planError{err}
			}
			dirs, err := app.Plan(context.Background(), cfg, push, deps)
			if err != nil {
				return planError{err}
			}
			out := planOutput{Before: push.Before, After: push.After, Directories: make([]string, 0, len(dirs))}
			for _, d := range dirs {
				out.Directories = append(out.Directories, d.Path)
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// planError exits 2 like every run-fatal condition.
type planError struct{ err error }

func (e planError) Error() string { return e.err.Error() }
func (e planError) ExitCode() int { return 2 }
func (e planError) Unwrap() error { return e.err }
