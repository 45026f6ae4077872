// Package orchestrator fans a set of chart directories out to their
// pipelines and folds the results into one run outcome.
package orchestrator

import (
	"context"
	"log/slog"

	"github.com/flarebyte/chartship/internal/changeset"
	"github.com/flarebyte/chartship/internal/logging"
	"github.com/flarebyte/chartship/internal/pipeline"
	"github.com/flarebyte/chartship/internal/publish"
)

// Runner drives one directory to a terminal state.
type Runner interface {
	Run(ctx context.Context, dir changeset.Directory) pipeline.Result
}

// RunOutcome is the result of a whole run. Results follow the order of the
// input directories.
type RunOutcome struct {
	Results []pipeline.Result
	Failed  bool
}

// FailedDirectories lists the directories that ended failed, in order.
func (o RunOutcome) FailedDirectories() []string {
	var out []string
	for _, r := range o.Results {
		if r.Failed() {
			out = append(out, r.Directory.Path)
		}
	}
	return out
}

// Orchestrator runs every directory's pipeline and waits for all of them.
// A failing directory never cancels or alters a sibling.
type Orchestrator struct {
	Pipeline Runner
	// Publisher is registered once before any pipeline starts in push mode.
	Publisher publish.Publisher
	Mode      pipeline.Mode
	// Concurrency caps simultaneous pipelines. Zero or less is unbounded.
	Concurrency int
	Logger      *slog.Logger
}

// Run processes dirs. The only error is a failed registration; directory
// failures are reported through the outcome.
func (o *Orchestrator) Run(ctx context.Context, dirs []changeset.Directory) (RunOutcome, error) {
	log := o.Logger
	if log == nil {
		log = logging.Discard()
	}
	if len(dirs) == 0 {
		log.Info("no chart changes")
		return RunOutcome{Results: []pipeline.Result{}}, nil
	}
	if o.Mode == pipeline.ModePush && o.Publisher != nil {
		if err := o.Publisher.Register(ctx); err != nil {
			return RunOutcome{}, err
		}
		log.Info("repository registered")
	}

	log.Info("running pipelines", "mode", string(o.Mode), "directories", len(dirs), "concurrency", o.Concurrency)
	results := runIndexedParallel(len(dirs), o.Concurrency, func(i int) pipeline.Result {
		return o.Pipeline.Run(ctx, dirs[i])
	})

	out := RunOutcome{Results: results}
	for _, r := range results {
		if r.Failed() {
			out.Failed = true
			break
		}
	}
	return out, nil
}
