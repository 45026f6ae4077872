package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

type limitedBuffer struct {
	max       int
	buf       bytes.Buffer
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if b.max <= 0 {
		return n, nil
	}
	remain := b.max - b.buf.Len()
	if remain > 0 {
		if remain > len(p) {
			remain = len(p)
		}
		_, _ = b.buf.Write(p[:remain])
	}
	if len(p) > remain {
		b.truncated = true
	}
	return n, nil
}

func (b *limitedBuffer) String() string { return b.buf.String() }

// ErrNotFound is returned when the program cannot be located.
var ErrNotFound = errors.New("program not found")

// ProcessRunner runs specs as local child processes.
type ProcessRunner struct{}

// Run starts the process, waits for it, and terminates it when ctx ends
// (SIGTERM, then SIGKILL after DefaultTermGrace). A ctx deadline counts as
// a timeout.
func (ProcessRunner) Run(ctx context.Context, spec Spec) (Result, error) {
	if spec.Program == "" {
		return Result{ExitCode: ExitStartFailed}, errors.New("missing program")
	}
	cmd := exec.Command(spec.Program, spec.Args...)
	if spec.KillProcessGroup {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}
	if spec.Stdin != "" {
		cmd.Stdin = strings.NewReader(spec.Stdin)
	}

	capBytes := spec.CaptureMaxBytes
	if capBytes == 0 {
		capBytes = DefaultCaptureMaxBytes
	}
	outBuf := &limitedBuffer{max: capBytes}
	errBuf := &limitedBuffer{max: capBytes}
	cmd.Stdout = outBuf
	cmd.Stderr = errBuf

	if err := cmd.Start(); err != nil {
		var ee *exec.Error
		if errors.As(err, &ee) {
			return Result{ExitCode: ExitStartFailed}, fmt.Errorf("%w: %s", ErrNotFound, spec.Program)
		}
		return Result{ExitCode: ExitStartFailed}, fmt.Errorf("program %s start failed: %w", spec.Program, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var runErr error
	timedOut := false
	select {
	case runErr = <-done:
	case <-ctx.Done():
		timedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
		runErr = terminate(cmd, spec, done)
	}

	res := Result{
		Stdout:          outBuf.String(),
		Stderr:          errBuf.String(),
		StdoutTruncated: outBuf.truncated,
		StderrTruncated: errBuf.truncated,
		TimedOut:        timedOut,
	}
	if timedOut {
		res.ExitCode = ExitTimedOut
		return res, nil
	}
	if ctx.Err() != nil {
		res.ExitCode = ExitStartFailed
		return res, ctx.Err()
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = ExitStartFailed
		return res, fmt.Errorf("program %s execution failed: %w", spec.Program, runErr)
	}
	return res, nil
}

func terminate(cmd *exec.Cmd, spec Spec, done <-chan error) error {
	signalProcess(cmd, spec.KillProcessGroup, syscall.SIGTERM)
	t := time.NewTimer(DefaultTermGrace)
	defer t.Stop()
	select {
	case err := <-done:
		return err
	case <-t.C:
		signalProcess(cmd, spec.KillProcessGroup, syscall.SIGKILL)
		return <-done
	}
}

func signalProcess(cmd *exec.Cmd, killGroup bool, sig syscall.Signal) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	if killGroup && pid > 0 {
		if err := syscall.Kill(-pid, sig); err == nil {
			return
		}
	}
	_ = cmd.Process.Signal(sig)
}
