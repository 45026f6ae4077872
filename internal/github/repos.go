package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v72/github"

	"github.com/flarebyte/chartship/internal/manifest"
)

// compareFileLimit is how many files the compare endpoint lists for a
// whole comparison. Longer lists are cut off by GitHub.
const compareFileLimit = 300

// CompareFiles returns the filenames changed between base and head, in the
// order GitHub lists them. Files are only listed on the first page of a
// comparison, so one request with the smallest commit page is enough.
func (c *Client) CompareFiles(ctx context.Context, owner, repo, base, head string) ([]string, error) {
	cmp, resp, err := c.api.Repositories.CompareCommits(ctx, owner, repo, base, head, &gh.ListOptions{PerPage: 1})
	if err != nil {
		return nil, fmt.Errorf("github: compare %s...%s: %w", base, head, err)
	}
	c.logger.Debug("github request", "op", "compare", "status", resp.StatusCode)

	out := make([]string, 0, len(cmp.Files))
	for _, f := range cmp.Files {
		out = append(out, f.GetFilename())
	}
	if len(out) >= compareFileLimit {
		c.logger.Warn("comparison lists the maximum number of files, later changes may be missing",
			"base", base, "head", head, "files", len(out))
	}
	return out, nil
}

// CreateRef creates ref (a fully qualified name like refs/tags/x) at sha.
func (c *Client) CreateRef(ctx context.Context, owner, repo, ref, sha string) (*gh.Reference, error) {
	created, resp, err := c.api.Git.CreateRef(ctx, owner, repo, &gh.Reference{
		Ref:    gh.Ptr(ref),
		Object: &gh.GitObject{SHA: gh.Ptr(sha)},
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("github request", "op", "create ref", "ref", ref, "status", resp.StatusCode)
	return created, nil
}

// DiffSource lists changed files of one repository through the compare API.
type DiffSource struct {
	Client *Client
	Owner  string
	Repo   string
}

func (d DiffSource) ChangedFiles(ctx context.Context, base, head string) ([]string, error) {
	return d.Client.CompareFiles(ctx, d.Owner, d.Repo, base, head)
}

// Tagger creates "{name}-{version}" tag refs in one repository.
type Tagger struct {
	Client *Client
	Owner  string
	Repo   string
}

func (t Tagger) CreateTag(ctx context.Context, name, version, sha string) error {
	ref := "refs/tags/" + manifest.TagName(name, version)
	if _, err := t.Client.CreateRef(ctx, t.Owner, t.Repo, ref, sha); err != nil {
		if IsValidationFailed(err) {
			return fmt.Errorf("create %s: tag already exists or commit unknown: %w", ref, err)
		}
		return fmt.Errorf("create %s: %w", ref, err)
	}
	return nil
}
