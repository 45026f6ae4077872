// Package gitlocal implements the diff source and tagger against a local
// clone using go-git, for runs that have no VCS host API available.
package gitlocal

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/flarebyte/chartship/internal/manifest"
	"github.com/flarebyte/chartship/internal/secret"
)

var (
	// ErrResolve is returned when a revision does not resolve to a commit.
	ErrResolve = errors.New("revision not resolvable")
	// ErrTagExists is returned when the tag ref is already present.
	ErrTagExists = errors.New("tag already exists")
)

// Repo wraps an opened repository.
type Repo struct {
	repo *git.Repository
	// Remote, when set, receives every created tag.
	Remote string
	// Username and Token authenticate pushes over HTTPS.
	Username string
	Token    secret.Value
}

// Open opens the repository containing path.
func Open(path string) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", path, err)
	}
	return New(r), nil
}

// New wraps an already opened repository.
func New(r *git.Repository) *Repo {
	return &Repo{repo: r}
}

// ChangedFiles lists paths that differ between the trees of base and head.
// Deleted files are reported by their old path.
func (r *Repo) ChangedFiles(ctx context.Context, base, head string) ([]string, error) {
	treeA, err := r.treeFor(base)
	if err != nil {
		return nil, err
	}
	treeB, err := r.treeFor(head)
	if err != nil {
		return nil, err
	}
	changes, err := object.DiffTreeWithOptions(ctx, treeA, treeB, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", base, head, err)
	}
	out := make([]string, 0, len(changes))
	for _, c := range changes {
		name := c.To.Name
		if name == "" {
			name = c.From.Name
		}
		out = append(out, name)
	}
	return out, nil
}

// CreateTag creates a lightweight tag "{name}-{version}" at sha and pushes
// it when a remote is configured. An existing tag is an error.
func (r *Repo) CreateTag(ctx context.Context, name, version, sha string) error {
	tagName := manifest.TagName(name, version)
	hash, err := r.resolve(sha)
	if err != nil {
		return err
	}
	refName := plumbing.NewTagReferenceName(tagName)
	if _, err := r.repo.Reference(refName, false); err == nil {
		return fmt.Errorf("%w: %s", ErrTagExists, refName)
	}
	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(refName, hash)); err != nil {
		return fmt.Errorf("create %s: %w", refName, err)
	}
	if r.Remote == "" {
		return nil
	}
	spec := config.RefSpec(fmt.Sprintf("%s:%s", refName, refName))
	opts := &git.PushOptions{RemoteName: r.Remote, RefSpecs: []config.RefSpec{spec}}
	if !r.Token.IsZero() {
		user := r.Username
		if user == "" {
			user = "x-access-token"
		}
		opts.Auth = &githttp.BasicAuth{Username: user, Password: r.Token.Reveal()}
	}
	if err := r.repo.PushContext(ctx, opts); err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil
		}
		return fmt.Errorf("push %s to %s: %w", refName, r.Remote, err)
	}
	return nil
}

func (r *Repo) resolve(rev string) (plumbing.Hash, error) {
	if rev == "" {
		return plumbing.ZeroHash, fmt.Errorf("%w: empty revision", ErrResolve)
	}
	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: %s: %v", ErrResolve, rev, err)
	}
	return *h, nil
}

func (r *Repo) treeFor(rev string) (*object.Tree, error) {
	h, err := r.resolve(rev)
	if err != nil {
		return nil, err
	}
	c, err := r.repo.CommitObject(h)
	if err != nil {
		return nil, fmt.Errorf("%w: commit %s: %v", ErrResolve, rev, err)
	}
	t, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree for %s: %w", rev, err)
	}
	return t, nil
}
