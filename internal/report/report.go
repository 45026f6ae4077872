// Package report renders a run outcome: one JSON line for log scrapers and
// an optional canonical YAML file for humans and artifacts.
package report

import (
	"encoding/json"
	"io"

	"github.com/flarebyte/chartship/internal/orchestrator"
	"github.com/flarebyte/chartship/internal/pipeline"
)

// Stage is one stage outcome as rendered.
type Stage struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Directory is one directory result as rendered.
type Directory struct {
	Directory   string `json:"directory"`
	State       string `json:"state"`
	FailedStage string `json:"failed_stage,omitempty"`
	Build       Stage  `json:"build"`
	Lint        Stage  `json:"lint"`
	Publish     Stage  `json:"publish"`
	Tag         Stage  `json:"tag"`
}

// Report is the rendered run outcome.
type Report struct {
	Failed  bool        `json:"failed"`
	Results []Directory `json:"results"`
}

// FromOutcome converts o, keeping result order.
func FromOutcome(o orchestrator.RunOutcome) Report {
	r := Report{Failed: o.Failed, Results: make([]Directory, 0, len(o.Results))}
	for _, res := range o.Results {
		r.Results = append(r.Results, Directory{
			Directory:   res.Directory.Path,
			State:       string(res.State),
			FailedStage: string(res.FailedStage),
			Build:       stage(res.Build),
			Lint:        stage(res.Lint),
			Publish:     stage(res.Publish),
			Tag:         stage(res.Tag),
		})
	}
	return r
}

func stage(o pipeline.StageOutcome) Stage {
	return Stage{Status: string(o.Status), Detail: o.Detail}
}

// WriteJSON writes o as a single JSON line.
func WriteJSON(w io.Writer, o orchestrator.RunOutcome) error {
	return json.NewEncoder(w).Encode(FromOutcome(o))
}
