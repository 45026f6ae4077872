// Package command runs external tool invocations with captured, size-capped
// output and optional timeout enforcement.
package command

import (
	"context"
	"strings"
	"time"
)

const (
	// DefaultCaptureMaxBytes caps each captured stream.
	DefaultCaptureMaxBytes = 1 << 20
	// DefaultTermGrace is the wait between SIGTERM and SIGKILL on timeout.
	DefaultTermGrace = 2 * time.Second
)

// Exit codes reported for runs that never produced a real exit status.
const (
	ExitStartFailed = -1
	ExitTimedOut    = -2
)

// Spec describes one invocation.
type Spec struct {
	Program string
	Args    []string
	// Stdin is written to the process standard input when non-empty.
	Stdin            string
	CaptureMaxBytes  int
	KillProcessGroup bool
}

// Result is the captured outcome of one invocation.
type Result struct {
	ExitCode        int
	Stdout          string
	Stderr          string
	StdoutTruncated bool
	StderrTruncated bool
	TimedOut        bool
}

// OK reports a zero exit status without timeout.
func (r Result) OK() bool { return r.ExitCode == 0 && !r.TimedOut }

// Diagnostic returns the most useful captured text for a failure report:
// stderr when present, otherwise stdout.
func (r Result) Diagnostic() string {
	if s := strings.TrimSpace(r.Stderr); s != "" {
		return s
	}
	return strings.TrimSpace(r.Stdout)
}

// Output joins both captured streams, stdout first.
func (r Result) Output() string {
	out := strings.TrimSpace(r.Stdout)
	if e := strings.TrimSpace(r.Stderr); e != "" {
		if out != "" {
			out += "\n"
		}
		out += e
	}
	return out
}

// Runner executes a Spec. A non-nil error means the process could not be
// started or awaited; a non-zero exit is reported through Result.
type Runner interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}
