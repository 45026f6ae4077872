package root

import (
	"github.com/spf13/cobra"

	"github.com/flarebyte/chartship/cmd/chartship/plan"
	"github.com/flarebyte/chartship/cmd/chartship/run"
	"github.com/flarebyte/chartship/cmd/chartship/version"
)

// NewRootCmd creates the root command for chartship.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chartship",
		Short: "Build, lint, publish and tag the Helm charts a push changed",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help when no subcommand is provided.
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(version.VersionCmd)
	cmd.AddCommand(run.NewCmd())
	cmd.AddCommand(plan.NewCmd())

	return cmd
}

// Execute runs the root command with provided args.
func Execute(args []string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}
