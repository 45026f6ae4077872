// Package publish uploads built charts to a remote repository. A Publisher
// is registered once per run before any chart is published.
package publish

import (
	"context"
	"errors"

	"github.com/flarebyte/chartship/internal/command"
	"github.com/flarebyte/chartship/internal/secret"
)

// ErrRegistration marks a failure of the run-wide registration step.
var ErrRegistration = errors.New("repository registration failed")

// Publisher pushes one chart directory to the remote repository.
type Publisher interface {
	// Register performs the one-time setup every Publish depends on.
	Register(ctx context.Context) error
	// Publish uploads dir. The returned text is the tool's captured output,
	// surfaced whether or not the upload succeeded.
	Publish(ctx context.Context, dir string) (string, error)
}

// Helm is the part of the packaging CLI publishers drive.
type Helm interface {
	RepoAdd(ctx context.Context, name, url, username string, password secret.Value) (command.Result, error)
	Push(ctx context.Context, dir, repoName string) (command.Result, error)
	Package(ctx context.Context, dir, dest string) (string, command.Result, error)
}

// Credentials are the repository login.
type Credentials struct {
	Username string
	Password secret.Value
}
