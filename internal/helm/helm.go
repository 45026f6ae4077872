// Package helm drives the packaging CLI. Every subcommand is executed
// through a command.Runner so tests can script tool behaviour.
package helm

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/flarebyte/chartship/internal/command"
	"github.com/flarebyte/chartship/internal/secret"
)

// DefaultBinary is the packaging tool looked up on PATH.
const DefaultBinary = "helm"

// ToolError reports a subcommand that ran but did not succeed.
type ToolError struct {
	Subcommand string
	Result     command.Result
}

func (e *ToolError) Error() string {
	var b strings.Builder
	b.WriteString(e.Subcommand)
	if e.Result.TimedOut {
		b.WriteString(": timed out")
	} else {
		fmt.Fprintf(&b, ": exit status %d", e.Result.ExitCode)
	}
	if d := e.Result.Diagnostic(); d != "" {
		b.WriteString(": ")
		b.WriteString(d)
	}
	return b.String()
}

// Client runs helm subcommands.
type Client struct {
	Binary          string
	Runner          command.Runner
	CaptureMaxBytes int
}

// New returns a Client for binary using runner. Empty binary means helm.
func New(binary string, runner command.Runner) *Client {
	if binary == "" {
		binary = DefaultBinary
	}
	if runner == nil {
		runner = command.ProcessRunner{}
	}
	return &Client{Binary: binary, Runner: runner}
}

// DependencyBuild materializes the chart's declared dependencies.
func (c *Client) DependencyBuild(ctx context.Context, dir string) (command.Result, error) {
	return c.run(ctx, "dependency build", "", "dependency", "build", dir)
}

// Lint runs static validation over the chart.
func (c *Client) Lint(ctx context.Context, dir string) (command.Result, error) {
	return c.run(ctx, "lint", "", "lint", dir)
}

// Push uploads the chart directory to a registered ChartMuseum repository
// through the cm-push plugin.
func (c *Client) Push(ctx context.Context, dir, repoName string) (command.Result, error) {
	return c.run(ctx, "cm-push", "", "cm-push", dir, repoName)
}

// RepoAdd registers a repository. The password goes over stdin and never
// appears in the argument list.
func (c *Client) RepoAdd(ctx context.Context, name, url, username string, password secret.Value) (command.Result, error) {
	args := []string{"repo", "add", name, url}
	stdin := ""
	if username != "" {
		args = append(args, "--username", username)
	}
	if !password.IsZero() {
		args = append(args, "--password-stdin")
		stdin = password.Reveal()
	}
	args = append(args, "--force-update")
	return c.run(ctx, "repo add", stdin, args...)
}

// Package builds the chart archive into dest and returns its path.
func (c *Client) Package(ctx context.Context, dir, dest string) (string, command.Result, error) {
	res, err := c.run(ctx, "package", "", "package", dir, "--destination", dest)
	if err != nil {
		return "", res, err
	}
	p, ok := packagedPath(res.Stdout)
	if !ok {
		return "", res, errors.New("package: archive path not reported")
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(dest, filepath.Base(p))
	}
	return p, res, nil
}

const packagedMarker = "saved it to:"

func packagedPath(stdout string) (string, bool) {
	for _, line := range strings.Split(stdout, "\n") {
		if i := strings.Index(line, packagedMarker); i >= 0 {
			p := strings.TrimSpace(line[i+len(packagedMarker):])
			if p != "" {
				return p, true
			}
		}
	}
	return "", false
}

func (c *Client) run(ctx context.Context, name, stdin string, args ...string) (command.Result, error) {
	spec := command.Spec{
		Program:          c.Binary,
		Args:             args,
		Stdin:            stdin,
		CaptureMaxBytes:  c.CaptureMaxBytes,
		KillProcessGroup: true,
	}
	res, err := c.Runner.Run(ctx, spec)
	if err != nil {
		return res, fmt.Errorf("%s: %w", name, err)
	}
	if !res.OK() {
		return res, &ToolError{Subcommand: name, Result: res}
	}
	return res, nil
}
