package publish

import (
	"context"
	"fmt"
)

// DefaultRepoName is the local alias the repository is registered under.
const DefaultRepoName = "chartmuseum"

// ChartMuseum publishes through `helm repo add` and the cm-push plugin.
type ChartMuseum struct {
	Helm        Helm
	Name        string
	URL         string
	Credentials Credentials
}

func (c *ChartMuseum) repoName() string {
	if c.Name == "" {
		return DefaultRepoName
	}
	return c.Name
}

// Register adds the repository with its credentials.
func (c *ChartMuseum) Register(ctx context.Context) error {
	if c.URL == "" {
		return fmt.Errorf("%w: no repository url", ErrRegistration)
	}
	if _, err := c.Helm.RepoAdd(ctx, c.repoName(), c.URL, c.Credentials.Username, c.Credentials.Password); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRegistration, c.repoName(), err)
	}
	return nil
}

// Publish pushes dir to the registered repository.
func (c *ChartMuseum) Publish(ctx context.Context, dir string) (string, error) {
	res, err := c.Helm.Push(ctx, dir, c.repoName())
	return res.Output(), err
}
