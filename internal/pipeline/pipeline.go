// Package pipeline runs one chart directory through build, lint, publish
// and tag. Each directory owns its Result until the pipeline ends; a
// failure is recorded there and never returned as an error.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/flarebyte/chartship/internal/changeset"
	"github.com/flarebyte/chartship/internal/command"
	"github.com/flarebyte/chartship/internal/logging"
	"github.com/flarebyte/chartship/internal/manifest"
	"github.com/flarebyte/chartship/internal/publish"
)

// Tools runs the build and lint subcommands.
type Tools interface {
	DependencyBuild(ctx context.Context, dir string) (command.Result, error)
	Lint(ctx context.Context, dir string) (command.Result, error)
}

// Tagger creates the "{name}-{version}" release reference at sha.
type Tagger interface {
	CreateTag(ctx context.Context, name, version, sha string) error
}

// Pipeline holds everything shared by the per-directory runs of one
// invocation. It is read-only once built.
type Pipeline struct {
	Tools     Tools
	Publisher publish.Publisher
	Tagger    Tagger
	Mode      Mode
	// Head is the commit tags point at.
	Head         string
	ManifestFile string
	// StageTimeout of zero leaves stages unbounded.
	StageTimeout time.Duration
	Logger       *slog.Logger
}

// Run drives dir to a terminal state.
func (p *Pipeline) Run(ctx context.Context, dir changeset.Directory) Result {
	res := NewResult(dir)
	log := p.logger().With("dir", dir.Path)

	build := p.stage(ctx, log, StageBuild, func(ctx context.Context) (string, error) {
		r, err := p.Tools.DependencyBuild(ctx, dir.Path)
		return r.Output(), err
	})
	if !res.advance(StageBuild, build, p.Mode) {
		return res
	}

	lint := p.stage(ctx, log, StageLint, func(ctx context.Context) (string, error) {
		r, err := p.Tools.Lint(ctx, dir.Path)
		return r.Output(), err
	})
	if !res.advance(StageLint, lint, p.Mode) {
		return res
	}

	pub := p.stage(ctx, log, StagePublish, func(ctx context.Context) (string, error) {
		return p.Publisher.Publish(ctx, dir.Path)
	})
	if !res.advance(StagePublish, pub, p.Mode) {
		return res
	}

	var tagName string
	tag := p.stage(ctx, log, StageTag, func(ctx context.Context) (string, error) {
		m, err := manifest.Read(dir.Path, p.ManifestFile)
		if err != nil {
			return "", err
		}
		tagName = m.TagName()
		return "", p.Tagger.CreateTag(ctx, m.Name, m.Version, p.Head)
	})
	if tag.Status == StatusSucceeded {
		tag.Detail = tagName
	}
	res.advance(StageTag, tag, p.Mode)
	return res
}

type stageFunc func(ctx context.Context) (string, error)

// stage runs fn and logs its captured output once, after it finished.
func (p *Pipeline) stage(ctx context.Context, log *slog.Logger, stage Stage, fn stageFunc) StageOutcome {
	if p.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.StageTimeout)
		defer cancel()
	}
	start := time.Now()
	out, err := fn(ctx)
	log = log.With("stage", string(stage), "elapsed", time.Since(start).Round(time.Millisecond))
	if err != nil {
		level := slog.LevelError
		if stage == StageLint {
			level = slog.LevelWarn
		}
		log.Log(ctx, level, "stage failed", "error", err.Error(), "output", out)
		return Failed(err.Error())
	}
	if out != "" {
		log.Info("stage succeeded", "output", out)
	} else {
		log.Info("stage succeeded")
	}
	return Succeeded("")
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return logging.Discard()
	}
	return p.Logger
}
