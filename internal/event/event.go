// Package event reads the trigger that started a run. Only push events
// carry the commit pair a run needs.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// NamePush is the only accepted trigger kind.
const NamePush = "push"

var (
	// ErrUnsupportedEvent is returned for any trigger other than push.
	ErrUnsupportedEvent = errors.New("unsupported event")
	// ErrMalformed is returned when a push payload cannot be decoded or
	// lacks its commit references.
	ErrMalformed = errors.New("malformed push event")
)

// Push is the part of a push event the run consumes.
type Push struct {
	Repo   string `json:"repo"`
	Ref    string `json:"ref,omitempty"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// WithRefs returns a copy with non-empty before/after replacing the
// payload values.
func (p Push) WithRefs(before, after string) Push {
	if before != "" {
		p.Before = before
	}
	if after != "" {
		p.After = after
	}
	return p
}

type pushPayload struct {
	Ref        string `json:"ref"`
	Before     string `json:"before"`
	After      string `json:"after"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// Load reads the event named name whose JSON payload is at path. The kind
// is checked before the payload is touched.
func Load(name, path string) (Push, error) {
	if err := checkName(name); err != nil {
		return Push{}, err
	}
	if path == "" {
		return Push{}, fmt.Errorf("%w: no payload path", ErrMalformed)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Push{}, fmt.Errorf("read event payload: %w", err)
	}
	return Parse(name, b)
}

// Parse decodes a push payload.
func Parse(name string, body []byte) (Push, error) {
	if err := checkName(name); err != nil {
		return Push{}, err
	}
	var p pushPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Push{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Push{
		Repo:   p.Repository.FullName,
		Ref:    p.Ref,
		Before: p.Before,
		After:  p.After,
	}, nil
}

// FromRefs builds a push event from explicit references, for runs that
// are not started by a hosted trigger.
func FromRefs(repo, before, after string) (Push, error) {
	if strings.TrimSpace(after) == "" {
		return Push{}, fmt.Errorf("%w: after reference is required", ErrMalformed)
	}
	return Push{Repo: repo, Before: before, After: after}, nil
}

// Source names where a run's trigger comes from.
type Source struct {
	// Name is the trigger kind. Empty is accepted only without a payload.
	Name   string
	Path   string
	Repo   string
	Before string
	After  string
}

// Resolve reads the payload when Path is set and overlays explicit refs;
// without a payload the explicit refs are the event. Repo fills in when
// the payload names none.
func Resolve(src Source) (Push, error) {
	if err := CheckTrigger(src.Name, src.Path); err != nil {
		return Push{}, err
	}
	if src.Path == "" {
		return FromRefs(src.Repo, src.Before, src.After)
	}
	p, err := Load(src.Name, src.Path)
	if err != nil {
		return Push{}, err
	}
	p = p.WithRefs(src.Before, src.After)
	if p.Repo == "" {
		p.Repo = src.Repo
	}
	if strings.TrimSpace(p.After) == "" {
		return Push{}, fmt.Errorf("%w: after reference is required", ErrMalformed)
	}
	return p, nil
}

// CheckTrigger fails with ErrUnsupportedEvent when name is not push. An
// empty name is accepted only when no payload path is given.
func CheckTrigger(name, path string) error {
	if name == "" && path == "" {
		return nil
	}
	return checkName(name)
}

func checkName(name string) error {
	if name != NamePush {
		if name == "" {
			name = "<none>"
		}
		return fmt.Errorf("%w: %s", ErrUnsupportedEvent, name)
	}
	return nil
}
