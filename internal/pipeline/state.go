package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects whether a run publishes.
type Mode string

const (
	ModePush  Mode = "push"
	ModeCheck Mode = "check"
)

// ParseMode accepts push or check, case-insensitively. Empty means push.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModePush:
		return ModePush, nil
	case ModeCheck:
		return ModeCheck, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want push or check)", s)
	}
}

// State is the position of one directory in its pipeline.
type State string

const (
	StatePending   State = "pending"
	StateBuilt     State = "built"
	StateLinted    State = "linted"
	StatePublished State = "published"
	StateTagged    State = "tagged"
	StateFailed    State = "failed"
)

// Stage names one step of the pipeline.
type Stage string

const (
	StageBuild   Stage = "build"
	StageLint    Stage = "lint"
	StagePublish Stage = "publish"
	StageTag     Stage = "tag"
)

// Status is the outcome kind of a stage.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// StageOutcome records what happened in one stage. Detail carries the
// sanitized diagnostic of a failure, or an informational note.
type StageOutcome struct {
	Status Status
	Detail string
}

func Succeeded(detail string) StageOutcome {
	return StageOutcome{Status: StatusSucceeded, Detail: detail}
}

func Failed(detail string) StageOutcome {
	return StageOutcome{Status: StatusFailed, Detail: sanitizeDetail(detail)}
}

func Skipped() StageOutcome { return StageOutcome{Status: StatusSkipped} }

// ErrInvalidTransition is returned by Transition for a move the pipeline
// does not allow.
var ErrInvalidTransition = errors.New("invalid transition")

// Transition returns the state reached when stage finishes with outcome
// from state. Lint is advisory: it reaches Linted whatever its status.
// Build, Publish and Tag failures are absorbing.
func Transition(from State, stage Stage, outcome StageOutcome) (State, error) {
	if outcome.Status != StatusSucceeded && outcome.Status != StatusFailed {
		return from, fmt.Errorf("%w: %s %s with status %q", ErrInvalidTransition, from, stage, outcome.Status)
	}
	failed := outcome.Status == StatusFailed
	switch {
	case from == StatePending && stage == StageBuild:
		if failed {
			return StateFailed, nil
		}
		return StateBuilt, nil
	case from == StateBuilt && stage == StageLint:
		return StateLinted, nil
	case from == StateLinted && stage == StagePublish:
		if failed {
			return StateFailed, nil
		}
		return StatePublished, nil
	case from == StatePublished && stage == StageTag:
		if failed {
			return StateFailed, nil
		}
		return StateTagged, nil
	default:
		return from, fmt.Errorf("%w: %s cannot run %s", ErrInvalidTransition, from, stage)
	}
}

// IsTerminal reports whether a pipeline in mode stops at s.
func IsTerminal(s State, mode Mode) bool {
	switch s {
	case StateTagged, StateFailed:
		return true
	case StateLinted:
		return mode == ModeCheck
	default:
		return false
	}
}

func sanitizeDetail(msg string) string {
	s := strings.Join(strings.Fields(msg), " ")
	if s == "" {
		return "error"
	}
	return s
}
