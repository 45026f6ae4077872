// Package config assembles the immutable run configuration. Sources, from
// lowest to highest precedence: built-in defaults, an optional CUE file,
// environment variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/flarebyte/chartship/internal/command"
	"github.com/flarebyte/chartship/internal/event"
	"github.com/flarebyte/chartship/internal/github"
	"github.com/flarebyte/chartship/internal/helm"
	"github.com/flarebyte/chartship/internal/logging"
	"github.com/flarebyte/chartship/internal/manifest"
	"github.com/flarebyte/chartship/internal/pipeline"
	"github.com/flarebyte/chartship/internal/publish"
	"github.com/flarebyte/chartship/internal/secret"
)

// ErrInvalid marks a configuration that cannot start a run.
var ErrInvalid = errors.New("invalid configuration")

// Repository kinds.
const (
	RepositoryChartMuseum = "chartmuseum"
	RepositoryOCI         = "oci"
)

// VCS kinds.
const (
	VCSGitHub = "github"
	VCSLocal  = "local"
)

// Repository is where charts are published.
type Repository struct {
	Kind      string
	URL       string
	Name      string
	Username  string
	Password  secret.Value
	PlainHTTP bool
}

// VCS is where diffs come from and tags go.
type VCS struct {
	Kind string
	// Username goes with Token on HTTPS pushes of local tags.
	Username string
	Token    secret.Value
	// APIURL is the GitHub REST root.
	APIURL string
	// Repository is owner/name on GitHub.
	Repository string
	// Path is the local clone for the local kind.
	Path string
	// Remote receives local tags when set.
	Remote string
}

// Event locates the trigger.
type Event struct {
	Name   string
	Path   string
	Before string
	After  string
}

type Helm struct {
	Binary          string
	CaptureMaxBytes int
}

type Log struct {
	Level  string
	Format string
}

// Run is the whole configuration of one invocation. It is built once by
// Load and passed by value.
type Run struct {
	Mode         pipeline.Mode
	Repository   Repository
	VCS          VCS
	Event        Event
	ManifestFile string
	Ignore       []string
	Helm         Helm
	Concurrency  int
	StageTimeout time.Duration
	Log          Log
	ReportPath   string
}

// raw mirrors the viper settings tree.
type raw struct {
	Mode       string `mapstructure:"mode"`
	Repository struct {
		Kind      string `mapstructure:"kind"`
		URL       string `mapstructure:"url"`
		Name      string `mapstructure:"name"`
		Username  string `mapstructure:"username"`
		Password  string `mapstructure:"password"`
		PlainHTTP bool   `mapstructure:"plain_http"`
	} `mapstructure:"repository"`
	VCS struct {
		Kind       string `mapstructure:"kind"`
		Username   string `mapstructure:"username"`
		Token      string `mapstructure:"token"`
		APIURL     string `mapstructure:"api_url"`
		Repository string `mapstructure:"repository"`
		Path       string `mapstructure:"path"`
		Remote     string `mapstructure:"remote"`
	} `mapstructure:"vcs"`
	Event struct {
		Name   string `mapstructure:"name"`
		Path   string `mapstructure:"path"`
		Before string `mapstructure:"before"`
		After  string `mapstructure:"after"`
	} `mapstructure:"event"`
	ManifestFile string   `mapstructure:"manifest_file"`
	Ignore       []string `mapstructure:"ignore"`
	Helm         struct {
		Binary          string `mapstructure:"binary"`
		CaptureMaxBytes int    `mapstructure:"capture_max_bytes"`
	} `mapstructure:"helm"`
	Concurrency  int           `mapstructure:"concurrency"`
	StageTimeout time.Duration `mapstructure:"stage_timeout"`
	Log          struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Report struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"report"`
}

// envNames binds each setting to the variables it is read from, first set
// wins. INPUT_* names are how GitHub Actions passes action inputs.
var envNames = map[string][]string{
	"mode":                   {"CHARTSHIP_MODE", "INPUT_MODE"},
	"repository.kind":        {"CHARTSHIP_REPOSITORY_KIND"},
	"repository.url":         {"CHARTSHIP_REPOSITORY_URL", "INPUT_CHARTMUSEUM-URL"},
	"repository.name":        {"CHARTSHIP_REPOSITORY_NAME"},
	"repository.username":    {"CHARTSHIP_REPOSITORY_USERNAME", "INPUT_CHARTMUSEUM-USERNAME"},
	"repository.password":    {"CHARTSHIP_REPOSITORY_PASSWORD", "INPUT_CHARTMUSEUM-PASSWORD"},
	"repository.plain_http":  {"CHARTSHIP_REPOSITORY_PLAIN_HTTP"},
	"vcs.kind":               {"CHARTSHIP_VCS_KIND"},
	"vcs.username":           {"CHARTSHIP_VCS_USERNAME", "GITHUB_ACTOR"},
	"vcs.token":              {"CHARTSHIP_VCS_TOKEN", "INPUT_GITHUB-TOKEN", "GITHUB_TOKEN"},
	"vcs.api_url":            {"CHARTSHIP_VCS_API_URL", "GITHUB_API_URL"},
	"vcs.repository":         {"CHARTSHIP_VCS_REPOSITORY", "GITHUB_REPOSITORY"},
	"vcs.path":               {"CHARTSHIP_VCS_PATH"},
	"vcs.remote":             {"CHARTSHIP_VCS_REMOTE"},
	"event.name":             {"CHARTSHIP_EVENT_NAME", "GITHUB_EVENT_NAME"},
	"event.path":             {"CHARTSHIP_EVENT_PATH", "GITHUB_EVENT_PATH"},
	"event.before":           {"CHARTSHIP_EVENT_BEFORE"},
	"event.after":            {"CHARTSHIP_EVENT_AFTER"},
	"manifest_file":          {"CHARTSHIP_MANIFEST_FILE"},
	"ignore":                 {"CHARTSHIP_IGNORE"},
	"helm.binary":            {"CHARTSHIP_HELM_BINARY"},
	"helm.capture_max_bytes": {"CHARTSHIP_HELM_CAPTURE_MAX_BYTES"},
	"concurrency":            {"CHARTSHIP_CONCURRENCY"},
	"stage_timeout":          {"CHARTSHIP_STAGE_TIMEOUT"},
	"log.level":              {"CHARTSHIP_LOG_LEVEL"},
	"log.format":             {"CHARTSHIP_LOG_FORMAT"},
	"report.path":            {"CHARTSHIP_REPORT_PATH"},
}

// flagKeys maps command-line flag names to settings.
var flagKeys = map[string]string{
	"mode":           "mode",
	"repository-url": "repository.url",
	"repository":     "vcs.repository",
	"vcs":            "vcs.kind",
	"repo-path":      "vcs.path",
	"vcs-username":   "vcs.username",
	"event-name":     "event.name",
	"event-path":     "event.path",
	"before":         "event.before",
	"after":          "event.after",
	"manifest-file":  "manifest_file",
	"ignore":         "ignore",
	"helm":           "helm.binary",
	"concurrency":    "concurrency",
	"stage-timeout":  "stage_timeout",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"report":         "report.path",
}

// Options selects the sources Load reads.
type Options struct {
	// ConfigFile is an optional .cue run-config file.
	ConfigFile string
	// Flags are the parsed command-line flags; only flags the user set
	// override other sources.
	Flags *pflag.FlagSet
	// Mode, when set, overrides every other source.
	Mode pipeline.Mode
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(pipeline.ModePush))
	v.SetDefault("repository.kind", RepositoryChartMuseum)
	v.SetDefault("repository.url", "")
	v.SetDefault("repository.name", publish.DefaultRepoName)
	v.SetDefault("repository.username", "")
	v.SetDefault("repository.password", "")
	v.SetDefault("repository.plain_http", false)
	v.SetDefault("vcs.kind", VCSGitHub)
	v.SetDefault("vcs.username", "")
	v.SetDefault("vcs.token", "")
	v.SetDefault("vcs.api_url", github.DefaultBaseURL)
	v.SetDefault("vcs.repository", "")
	v.SetDefault("vcs.path", ".")
	v.SetDefault("vcs.remote", "")
	v.SetDefault("event.name", "")
	v.SetDefault("event.path", "")
	v.SetDefault("event.before", "")
	v.SetDefault("event.after", "")
	v.SetDefault("manifest_file", manifest.DefaultFilename)
	v.SetDefault("ignore", []string{})
	v.SetDefault("helm.binary", helm.DefaultBinary)
	v.SetDefault("helm.capture_max_bytes", command.DefaultCaptureMaxBytes)
	v.SetDefault("concurrency", 0)
	v.SetDefault("stage_timeout", "0s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatText)
	v.SetDefault("report.path", "")
}

// Load assembles and validates the run configuration.
func Load(opts Options) (Run, error) {
	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		f, err := LoadFile(opts.ConfigFile)
		if err != nil {
			return Run{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if err := v.MergeConfigMap(f); err != nil {
			return Run{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	for key, names := range envNames {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return Run{}, err
		}
	}
	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Run{}, err
				}
			}
		}
	}

	if opts.Mode != "" {
		v.Set("mode", string(opts.Mode))
	}

	var r raw
	if err := v.Unmarshal(&r); err != nil {
		return Run{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	// An unsupported trigger is reported before any missing setting.
	if err := event.CheckTrigger(r.Event.Name, r.Event.Path); err != nil {
		return Run{}, err
	}
	run, err := r.build()
	if err != nil {
		return Run{}, err
	}
	if err := run.Validate(); err != nil {
		return Run{}, err
	}
	return run, nil
}

func (r raw) build() (Run, error) {
	mode, err := pipeline.ParseMode(r.Mode)
	if err != nil {
		return Run{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return Run{
		Mode: mode,
		Repository: Repository{
			Kind:      strings.ToLower(strings.TrimSpace(r.Repository.Kind)),
			URL:       strings.TrimSpace(r.Repository.URL),
			Name:      r.Repository.Name,
			Username:  r.Repository.Username,
			Password:  secret.New(r.Repository.Password),
			PlainHTTP: r.Repository.PlainHTTP,
		},
		VCS: VCS{
			Kind:       strings.ToLower(strings.TrimSpace(r.VCS.Kind)),
			Username:   strings.TrimSpace(r.VCS.Username),
			Token:      secret.New(r.VCS.Token),
			APIURL:     r.VCS.APIURL,
			Repository: r.VCS.Repository,
			Path:       r.VCS.Path,
			Remote:     r.VCS.Remote,
		},
		Event: Event{
			Name:   r.Event.Name,
			Path:   r.Event.Path,
			Before: r.Event.Before,
			After:  r.Event.After,
		},
		ManifestFile: r.ManifestFile,
		Ignore:       compact(r.Ignore),
		Helm:         Helm{Binary: r.Helm.Binary, CaptureMaxBytes: r.Helm.CaptureMaxBytes},
		Concurrency:  r.Concurrency,
		StageTimeout: r.StageTimeout,
		Log:          Log{Level: r.Log.Level, Format: r.Log.Format},
		ReportPath:   r.Report.Path,
	}, nil
}

// Validate reports every problem at once, wrapped in ErrInvalid.
func (c Run) Validate() error {
	var problems []string
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	switch c.Repository.Kind {
	case RepositoryChartMuseum, RepositoryOCI:
	default:
		add("repository.kind %q must be chartmuseum or oci", c.Repository.Kind)
	}
	if c.Mode == pipeline.ModePush {
		if c.Repository.URL == "" {
			add("repository.url is required in push mode")
		}
		if c.Repository.Kind == RepositoryChartMuseum {
			if c.Repository.Username == "" {
				add("repository.username is required in push mode")
			}
			if c.Repository.Password.IsZero() {
				add("repository.password is required in push mode")
			}
		}
	}
	switch c.VCS.Kind {
	case VCSGitHub:
		if c.VCS.Token.IsZero() {
			add("vcs.token is required for github")
		}
		if c.VCS.Repository != "" && !validRepoSlug(c.VCS.Repository) {
			add("vcs.repository %q must be owner/name", c.VCS.Repository)
		}
	case VCSLocal:
		if c.VCS.Path == "" {
			add("vcs.path is required for local")
		}
	default:
		add("vcs.kind %q must be github or local", c.VCS.Kind)
	}
	if c.ManifestFile == "" || strings.ContainsAny(c.ManifestFile, `/\`) {
		add("manifest_file %q must be a plain file name", c.ManifestFile)
	}
	if c.Helm.Binary == "" {
		add("helm.binary is required")
	}
	if c.Helm.CaptureMaxBytes < 0 {
		add("helm.capture_max_bytes must be >= 0")
	}
	if c.Concurrency < 0 {
		add("concurrency must be >= 0")
	}
	if c.StageTimeout < 0 {
		add("stage_timeout must be >= 0")
	}
	if !logging.ValidLevel(c.Log.Level) {
		add("log.level %q must be debug, info, warn or error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		add("log.format %q must be text or json", c.Log.Format)
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

// RepoSlug splits owner/name.
func RepoSlug(s string) (owner, name string, ok bool) {
	owner, name, found := strings.Cut(s, "/")
	if !found || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", false
	}
	return owner, name, true
}

func validRepoSlug(s string) bool {
	_, _, ok := RepoSlug(s)
	return ok
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
