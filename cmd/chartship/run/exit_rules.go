package run

import (
	"errors"
	"strings"

	"github.com/flarebyte/chartship/internal/orchestrator"
)

const (
	exitCodeSuccess = 0
	exitCodeFailed  = 1
	exitCodeFatal   = 2
)

type runExitError struct {
	code int
	msg  string
	err  error
}

func (e runExitError) Error() string { return e.msg }
func (e runExitError) ExitCode() int { return e.code }
func (e runExitError) Unwrap() error { return e.err }

// fatal marks an error that stopped the run before or instead of any
// directory result.
func fatal(err error) error {
	var ee runExitError
	if errors.As(err, &ee) {
		return err
	}
	return runExitError{code: exitCodeFatal, msg: err.Error(), err: err}
}

func evaluateRunExit(o orchestrator.RunOutcome) error {
	if !o.Failed {
		return nil
	}
	dirs := o.FailedDirectories()
	msg := "failed charts: " + strings.Join(dirs, ", ")
	if len(dirs) == 0 {
		msg = "run failed"
	}
	return runExitError{code: exitCodeFailed, msg: msg}
}
