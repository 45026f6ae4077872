package version

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/flarebyte/chartship/internal/buildinfo"
)

var (
	flagShort bool
	flagJSON  bool
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printVersion(cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func printVersion(stdout, stderr io.Writer) error {
	if flagShort {
		_, err := fmt.Fprintln(stdout, buildinfo.Summary())
		return err
	}
	if !flagJSON {
		_, err := fmt.Fprintf(stdout, "chartship %s\n", buildinfo.Summary())
		return err
	}

	// JSON goes to stdout, a human friendly line to stderr.
	_, _ = fmt.Fprintf(stderr, "chartship version: %s\n", buildinfo.Summary())
	out := map[string]any{
		"version":   buildinfo.Summary(),
		"commit":    buildinfo.Commit,
		"date":      buildinfo.Date,
		"built_by":  buildinfo.BuiltBy,
		"go":        runtime.Version(),
		"go_os":     runtime.GOOS,
		"go_arch":   runtime.GOARCH,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	VersionCmd.Flags().BoolVar(&flagShort, "short", false, "Print only the version string")
	VersionCmd.Flags().BoolVar(&flagJSON, "json", false, "Print detailed JSON version info")
}
