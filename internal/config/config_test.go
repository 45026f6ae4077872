package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarebyte/chartship/internal/event"
	"github.com/flarebyte/chartship/internal/pipeline"
)

// clearEnv blanks every bound variable; viper ignores empty values.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, names := range envNames {
		for _, n := range names {
			t.Setenv(n, "")
		}
	}
}

func pushEnv(t *testing.T) {
	t.Helper()
	t.Setenv("INPUT_CHARTMUSEUM-URL", "https://charts.example.com")
	t.Setenv("INPUT_CHARTMUSEUM-USERNAME", "bot")
	t.Setenv("INPUT_CHARTMUSEUM-PASSWORD", "s3cret")
	t.Setenv("GITHUB_TOKEN", "ghs_token")
	t.Setenv("GITHUB_REPOSITORY", "acme/charts")
}

func TestLoad_ActionEnvironment(t *testing.T) {
	clearEnv(t)
	pushEnv(t)
	t.Setenv("GITHUB_EVENT_NAME", "push")
	t.Setenv("GITHUB_EVENT_PATH", "/tmp/event.json")

	c, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, pipeline.ModePush, c.Mode)
	assert.Equal(t, "https://charts.example.com", c.Repository.URL)
	assert.Equal(t, "bot", c.Repository.Username)
	assert.Equal(t, "s3cret", c.Repository.Password.Reveal())
	assert.Equal(t, "ghs_token", c.VCS.Token.Reveal())
	assert.Equal(t, RepositoryChartMuseum, c.Repository.Kind)
	assert.Equal(t, "chartmuseum", c.Repository.Name)
	assert.Equal(t, VCSGitHub, c.VCS.Kind)
	assert.Equal(t, "acme/charts", c.VCS.Repository)
	assert.Equal(t, "https://api.github.com", c.VCS.APIURL)
	assert.Empty(t, c.VCS.Username)
	assert.Equal(t, Event{Name: "push", Path: "/tmp/event.json"}, c.Event)
	assert.Equal(t, "Chart.yaml", c.ManifestFile)
	assert.Equal(t, Helm{Binary: "helm", CaptureMaxBytes: 1 << 20}, c.Helm)
	assert.Zero(t, c.Concurrency, "extension points default off")
	assert.Zero(t, c.StageTimeout, "extension points default off")
}

func TestLoad_PushModeRequiresRepository(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "ghs_token")

	_, err := Load(Options{})
	require.ErrorIs(t, err, ErrInvalid)
	for _, want := range []string{"repository.url", "repository.username", "repository.password"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad_UnsupportedEventBeforeMissingSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_EVENT_NAME", "pull_request")
	t.Setenv("GITHUB_EVENT_PATH", "/tmp/event.json")

	_, err := Load(Options{})
	require.ErrorIs(t, err, event.ErrUnsupportedEvent)
	assert.NotErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "pull_request")

	clearEnv(t)
	t.Setenv("GITHUB_EVENT_PATH", "/tmp/event.json")
	_, err = Load(Options{Mode: pipeline.ModeCheck})
	require.ErrorIs(t, err, event.ErrUnsupportedEvent)
}

func TestLoad_CheckModeNeedsNoRepository(t *testing.T) {
	clearEnv(t)
	t.Setenv("INPUT_MODE", "check")
	t.Setenv("GITHUB_TOKEN", "ghs_token")

	c, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, pipeline.ModeCheck, c.Mode)
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	pushEnv(t)
	t.Setenv("CHARTSHIP_VCS_REPOSITORY", "not-a-slug")
	t.Setenv("CHARTSHIP_LOG_LEVEL", "loud")

	_, err := Load(Options{})
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "owner/name")
	assert.Contains(t, err.Error(), "log.level")

	clearEnv(t)
	t.Setenv("CHARTSHIP_MODE", "publish")
	_, err = Load(Options{})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_VCSUsername(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHARTSHIP_MODE", "check")
	t.Setenv("CHARTSHIP_VCS_KIND", "local")
	t.Setenv("GITHUB_ACTOR", "octocat")

	c, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, "octocat", c.VCS.Username)

	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--vcs-username", "release-bot"}))
	c, err = Load(Options{Flags: fs})
	require.NoError(t, err)
	assert.Equal(t, "release-bot", c.VCS.Username)
}

func writeCUE(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "chartship.cue")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_PrecedenceFileEnvFlags(t *testing.T) {
	clearEnv(t)
	pushEnv(t)
	cfg := writeCUE(t, `{
  configVersion: "1"
  concurrency: 4
  stage_timeout: "2m"
  ignore: ["deprecated/", "charts/tmp-*"]
  log: { level: "debug", format: "json" }
  helm: { binary: "/opt/helm" }
  vcs: { username: "file-user" }
}
`)
	t.Setenv("CHARTSHIP_CONCURRENCY", "8")

	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.String("log-level", "info", "")
	fs.String("helm", "helm", "")
	require.NoError(t, fs.Parse([]string{"--log-level", "warn"}))

	c, err := Load(Options{ConfigFile: cfg, Flags: fs})
	require.NoError(t, err)
	assert.Equal(t, 8, c.Concurrency, "env beats file")
	assert.Equal(t, 2*time.Minute, c.StageTimeout)
	assert.Equal(t, Log{Level: "warn", Format: "json"}, c.Log)
	assert.Equal(t, "/opt/helm", c.Helm.Binary, "unset flag must not beat file")
	assert.Equal(t, []string{"deprecated/", "charts/tmp-*"}, c.Ignore)
	assert.Equal(t, "file-user", c.VCS.Username)
}

func TestLoadFile_RejectsUnknownAndBadTypes(t *testing.T) {
	cases := map[string]string{
		"unknown key":  "{\n  colour: \"blue\"\n}\n",
		"bad mode":     "{\n  mode: \"publish\"\n}\n",
		"negative cap": "{\n  concurrency: -1\n}\n",
		"bad type":     "{\n  concurrency: \"four\"\n}\n",
	}
	for name, body := range cases {
		_, err := LoadFile(writeCUE(t, body))
		assert.Error(t, err, name)
	}
}

func TestLoadFile_UnknownConfigVersion(t *testing.T) {
	_, err := LoadFile(writeCUE(t, "{\n  configVersion: \"2\"\n}\n"))
	require.Error(t, err)
	assert.Equal(t, "unsupported configVersion: \"2\" (supported: 1)", err.Error())
}

func TestLoadFile_RequiresCUEExtension(t *testing.T) {
	p := filepath.Join(t.TempDir(), "chartship.yaml")
	require.NoError(t, os.WriteFile(p, []byte("mode: check\n"), 0o644))
	_, err := LoadFile(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected .cue")
}

func TestRepoSlug(t *testing.T) {
	o, n, ok := RepoSlug("acme/charts")
	assert.True(t, ok)
	assert.Equal(t, "acme", o)
	assert.Equal(t, "charts", n)
	for _, bad := range []string{"", "acme", "/charts", "acme/", "a/b/c"} {
		_, _, ok := RepoSlug(bad)
		assert.False(t, ok, bad)
	}
}

func TestLoad_ModeOverrideSkipsPublishRequirements(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "ghs_token")
	t.Setenv("INPUT_MODE", "push")

	c, err := Load(Options{Mode: pipeline.ModeCheck})
	require.NoError(t, err)
	assert.Equal(t, pipeline.ModeCheck, c.Mode)
}

func TestRegisterFlags_BindsToSettings(t *testing.T) {
	clearEnv(t)
	pushEnv(t)
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	RegisterFlags(fs)
	args := []string{"--mode", "check", "--ignore", "old/,tmp-*", "--concurrency", "2", "--stage-timeout", "45s", "--before", "aaa", "--after", "bbb"}
	require.NoError(t, fs.Parse(args))
	for name := range flagKeys {
		assert.NotNil(t, fs.Lookup(name), "flag %s not registered", name)
	}

	c, err := Load(Options{Flags: fs})
	require.NoError(t, err)
	assert.Equal(t, pipeline.ModeCheck, c.Mode)
	assert.Equal(t, 2, c.Concurrency)
	assert.Equal(t, 45*time.Second, c.StageTimeout)
	assert.Equal(t, "aaa", c.Event.Before)
	assert.Equal(t, "bbb", c.Event.After)
	assert.Equal(t, []string{"old/", "tmp-*"}, c.Ignore)
}
