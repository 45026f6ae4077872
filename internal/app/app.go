// Package app wires a run configuration to the concrete diff source,
// tagger, publisher and packaging tool, and runs the resolve-then-fan-out
// sequence shared by the commands.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/flarebyte/chartship/internal/changeset"
	"github.com/flarebyte/chartship/internal/command"
	"github.com/flarebyte/chartship/internal/config"
	"github.com/flarebyte/chartship/internal/event"
	"github.com/flarebyte/chartship/internal/github"
	"github.com/flarebyte/chartship/internal/gitlocal"
	"github.com/flarebyte/chartship/internal/helm"
	"github.com/flarebyte/chartship/internal/orchestrator"
	"github.com/flarebyte/chartship/internal/pipeline"
	"github.com/flarebyte/chartship/internal/publish"
)

// Deps are the external collaborators of a run.
type Deps struct {
	DiffSource changeset.DiffSource
	Tagger     pipeline.Tagger
	Publisher  publish.Publisher
	Tools      pipeline.Tools
}

// LoadEvent reads the trigger named by cfg.
func LoadEvent(cfg config.Run) (event.Push, error) {
	return event.Resolve(event.Source{
		Name:   cfg.Event.Name,
		Path:   cfg.Event.Path,
		Repo:   cfg.VCS.Repository,
		Before: cfg.Event.Before,
		After:  cfg.Event.After,
	})
}

// NewDeps builds the collaborators cfg selects.
func NewDeps(cfg config.Run, push event.Push, logger *slog.Logger) (Deps, error) {
	h := helm.New(cfg.Helm.Binary, command.ProcessRunner{})
	h.CaptureMaxBytes = cfg.Helm.CaptureMaxBytes

	var d Deps
	d.Tools = h

	switch cfg.VCS.Kind {
	case config.VCSLocal:
		repo, err := gitlocal.Open(cfg.VCS.Path)
		if err != nil {
			return Deps{}, err
		}
		repo.Remote = cfg.VCS.Remote
		repo.Username = cfg.VCS.Username
		repo.Token = cfg.VCS.Token
		d.DiffSource, d.Tagger = repo, repo
	default:
		slug := cfg.VCS.Repository
		if slug == "" {
			slug = push.Repo
		}
		owner, name, ok := config.RepoSlug(slug)
		if !ok {
			return Deps{}, fmt.Errorf("%w: repository %q must be owner/name", config.ErrInvalid, slug)
		}
		client, err := github.NewClient(github.Config{
			BaseURL: cfg.VCS.APIURL,
			Token:   cfg.VCS.Token,
			Logger:  logger,
		})
		if err != nil {
			return Deps{}, fmt.Errorf("%w: %v", config.ErrInvalid, err)
		}
		d.DiffSource = github.DiffSource{Client: client, Owner: owner, Repo: name}
		d.Tagger = github.Tagger{Client: client, Owner: owner, Repo: name}
	}

	creds := publish.Credentials{Username: cfg.Repository.Username, Password: cfg.Repository.Password}
	switch cfg.Repository.Kind {
	case config.RepositoryOCI:
		d.Publisher = &publish.OCI{
			Helm:         h,
			Reference:    cfg.Repository.URL,
			Credentials:  creds,
			PlainHTTP:    cfg.Repository.PlainHTTP,
			ManifestFile: cfg.ManifestFile,
		}
	default:
		d.Publisher = &publish.ChartMuseum{
			Helm:        h,
			Name:        cfg.Repository.Name,
			URL:         cfg.Repository.URL,
			Credentials: creds,
		}
	}
	return d, nil
}

// Plan resolves the chart directories affected by push.
func Plan(ctx context.Context, cfg config.Run, push event.Push, d Deps) ([]changeset.Directory, error) {
	resolver := changeset.NewResolver(d.DiffSource, cfg.ManifestFile, cfg.Ignore)
	return resolver.Resolve(ctx, push.Before, push.After)
}

// Run resolves the affected directories and drives each through its
// pipeline. Errors are run-fatal; directory failures live in the outcome.
func Run(ctx context.Context, cfg config.Run, push event.Push, d Deps, logger *slog.Logger) (orchestrator.RunOutcome, error) {
	dirs, err := Plan(ctx, cfg, push, d)
	if err != nil {
		return orchestrator.RunOutcome{}, err
	}
	logger.Info("resolved chart directories", "before", push.Before, "after", push.After, "count", len(dirs))

	if cfg.VCS.Kind == config.VCSLocal {
		dirs = rebase(cfg.VCS.Path, dirs)
	}
	o := &orchestrator.Orchestrator{
		Pipeline: &pipeline.Pipeline{
			Tools:        d.Tools,
			Publisher:    d.Publisher,
			Tagger:       d.Tagger,
			Mode:         cfg.Mode,
			Head:         push.After,
			ManifestFile: cfg.ManifestFile,
			StageTimeout: cfg.StageTimeout,
			Logger:       logger,
		},
		Publisher:   d.Publisher,
		Mode:        cfg.Mode,
		Concurrency: cfg.Concurrency,
		Logger:      logger,
	}
	return o.Run(ctx, dirs)
}

// rebase makes repository-relative directories usable from the working
// directory when the repository lives elsewhere.
func rebase(root string, dirs []changeset.Directory) []changeset.Directory {
	if root == "" || root == "." {
		return dirs
	}
	out := make([]changeset.Directory, len(dirs))
	for i, d := range dirs {
		out[i] = changeset.Directory{Path: filepath.ToSlash(filepath.Join(root, d.Path))}
	}
	return out
}
