package pipeline

import "github.com/flarebyte/chartship/internal/changeset"

// Result is the record of one directory's pipeline. Stages that never ran
// stay Skipped.
type Result struct {
	Directory   changeset.Directory
	Build       StageOutcome
	Lint        StageOutcome
	Publish     StageOutcome
	Tag         StageOutcome
	State       State
	FailedStage Stage
}

// NewResult returns the Pending record for dir.
func NewResult(dir changeset.Directory) Result {
	return Result{
		Directory: dir,
		Build:     Skipped(),
		Lint:      Skipped(),
		Publish:   Skipped(),
		Tag:       Skipped(),
		State:     StatePending,
	}
}

// Failed reports whether the directory ended in the failed state.
func (r Result) Failed() bool { return r.State == StateFailed }

func (r *Result) set(stage Stage, o StageOutcome) {
	switch stage {
	case StageBuild:
		r.Build = o
	case StageLint:
		r.Lint = o
	case StagePublish:
		r.Publish = o
	case StageTag:
		r.Tag = o
	}
}

// advance records o for stage and moves the state. It reports whether the
// pipeline in mode goes on to the next stage.
func (r *Result) advance(stage Stage, o StageOutcome, mode Mode) bool {
	r.set(stage, o)
	next, err := Transition(r.State, stage, o)
	if err != nil {
		r.set(stage, Failed(err.Error()))
		next = StateFailed
	}
	r.State = next
	if next == StateFailed {
		r.FailedStage = stage
	}
	return !IsTerminal(next, mode)
}
