// Package changeset derives the set of affected bundle directories from
// the files changed between two commits.
package changeset

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/flarebyte/chartship/internal/manifest"
)

// ErrDiffUnavailable is fatal to the run: without a diff no directory can
// be derived.
var ErrDiffUnavailable = errors.New("diff unavailable")

// DiffSource lists paths changed between base and head.
type DiffSource interface {
	ChangedFiles(ctx context.Context, base, head string) ([]string, error)
}

// DiffSourceFunc adapts a function to DiffSource.
type DiffSourceFunc func(ctx context.Context, base, head string) ([]string, error)

// ChangedFiles calls f.
func (f DiffSourceFunc) ChangedFiles(ctx context.Context, base, head string) ([]string, error) {
	return f(ctx, base, head)
}

// ChangeSet is the resolved diff between two commits.
type ChangeSet struct {
	Base         string
	Head         string
	ChangedPaths []string
}

// Directory is one affected bundle directory, slash-separated and relative
// to the repository root.
type Directory struct {
	Path string `json:"path" yaml:"path"`
}

func (d Directory) String() string { return d.Path }

// Resolver maps a diff to bundle directories.
type Resolver struct {
	source       DiffSource
	manifestFile string
	ignore       gitignore.Matcher
}

// NewResolver returns a Resolver over source. Directories matching any of
// the gitignore-style ignore patterns are dropped.
func NewResolver(source DiffSource, manifestFile string, ignore []string) *Resolver {
	if manifestFile == "" {
		manifestFile = manifest.DefaultFilename
	}
	r := &Resolver{source: source, manifestFile: manifestFile}
	if len(ignore) > 0 {
		patterns := make([]gitignore.Pattern, 0, len(ignore))
		for _, line := range ignore {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			patterns = append(patterns, gitignore.ParsePattern(line, nil))
		}
		r.ignore = gitignore.NewMatcher(patterns)
	}
	return r
}

// Fetch calls the diff source once and returns the change set.
func (r *Resolver) Fetch(ctx context.Context, base, head string) (ChangeSet, error) {
	if !usableRef(base) {
		return ChangeSet{}, fmt.Errorf("%w: unusable base ref %q", ErrDiffUnavailable, base)
	}
	if !usableRef(head) {
		return ChangeSet{}, fmt.Errorf("%w: unusable head ref %q", ErrDiffUnavailable, head)
	}
	paths, err := r.source.ChangedFiles(ctx, base, head)
	if err != nil {
		return ChangeSet{}, fmt.Errorf("%w: %v", ErrDiffUnavailable, err)
	}
	return ChangeSet{Base: base, Head: head, ChangedPaths: append([]string(nil), paths...)}, nil
}

// Resolve returns the affected directories between base and head in
// first-seen order. No manifest change yields an empty, non-nil slice.
func (r *Resolver) Resolve(ctx context.Context, base, head string) ([]Directory, error) {
	cs, err := r.Fetch(ctx, base, head)
	if err != nil {
		return nil, err
	}
	return r.Directories(cs.ChangedPaths), nil
}

// Directories filters paths to manifest files by exact basename, maps each
// to its parent directory and deduplicates preserving first occurrence.
func (r *Resolver) Directories(paths []string) []Directory {
	out := []Directory{}
	seen := map[string]bool{}
	for _, p := range paths {
		p = strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, "\\", "/")), "/")
		if path.Base(p) != r.manifestFile {
			continue
		}
		dir := path.Dir(p)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if r.ignored(dir) {
			continue
		}
		out = append(out, Directory{Path: dir})
	}
	return out
}

func (r *Resolver) ignored(dir string) bool {
	if r.ignore == nil || dir == "." {
		return false
	}
	return r.ignore.Match(strings.Split(dir, "/"), true)
}

// usableRef rejects empty refs and the all-zero SHA a host sends for a
// newly created branch.
func usableRef(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return false
	}
	return strings.Trim(ref, "0") != ""
}
