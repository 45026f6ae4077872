package config

import (
	"time"

	"github.com/spf13/pflag"
)

// FlagConfig is the flag naming the run-config file.
const FlagConfig = "config"

// RegisterFlags adds every flag Load understands to fs. Flag defaults are
// zero values; unset flags fall through to the other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagConfig, "c", "", "Path to a run-config file (.cue)")
	fs.String("mode", "", "Run mode: push or check (default push)")
	fs.String("repository-url", "", "Chart repository URL (ChartMuseum URL or oci:// reference)")
	fs.String("repository", "", "GitHub repository as owner/name")
	fs.String("vcs", "", "Where diffs and tags go: github or local (default github)")
	fs.String("repo-path", "", "Local repository path for --vcs local")
	fs.String("vcs-username", "", "User for HTTPS pushes of local tags (default x-access-token)")
	fs.String("event-name", "", "Trigger event name")
	fs.String("event-path", "", "Path to the trigger event JSON payload")
	fs.String("before", "", "Base commit, overrides the event payload")
	fs.String("after", "", "Head commit, overrides the event payload")
	fs.String("manifest-file", "", "Chart manifest file name (default Chart.yaml)")
	fs.StringSlice("ignore", nil, "Gitignore-style patterns of chart directories to skip")
	fs.String("helm", "", "Path to the helm binary")
	fs.Int("concurrency", 0, "Maximum pipelines at once (0 = unbounded)")
	fs.Duration("stage-timeout", time.Duration(0), "Per-stage timeout (0 = none)")
	fs.String("log-level", "", "Log level: debug, info, warn, error")
	fs.String("log-format", "", "Log format: text or json")
	fs.String("report", "", "Also write a YAML report to this path")
}
