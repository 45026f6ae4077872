package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/retry"

	"github.com/flarebyte/chartship/internal/manifest"
)

// Media types Helm uses for charts stored in OCI registries.
const (
	MediaTypeChartContent = "application/vnd.cncf.helm.chart.content.v1.tar+gzip"
	MediaTypeChartConfig  = "application/vnd.cncf.helm.config.v1+json"
)

// OCI publishes charts as OCI artifacts. Reference is the namespace the
// charts live under, with or without an oci:// prefix; each chart goes to
// Reference/<name>:<version>.
type OCI struct {
	Helm         Helm
	Reference    string
	Credentials  Credentials
	PlainHTTP    bool
	ManifestFile string
	// Target opens the repository for a chart reference. Nil uses a remote
	// registry repository.
	Target func(ctx context.Context, ref string) (oras.Target, error)
}

func (o *OCI) base() string {
	return strings.TrimRight(strings.TrimPrefix(o.Reference, "oci://"), "/")
}

func (o *OCI) host() string {
	host, _, _ := strings.Cut(o.base(), "/")
	return host
}

func (o *OCI) authClient() *auth.Client {
	c := &auth.Client{
		Client: retry.DefaultClient,
		Cache:  auth.NewCache(),
	}
	if o.Credentials.Username != "" || !o.Credentials.Password.IsZero() {
		c.Credential = auth.StaticCredential(o.host(), auth.Credential{
			Username: o.Credentials.Username,
			Password: o.Credentials.Password.Reveal(),
		})
	}
	return c
}

// Register checks the registry answers and accepts the credentials.
func (o *OCI) Register(ctx context.Context) error {
	if o.host() == "" {
		return fmt.Errorf("%w: no registry reference", ErrRegistration)
	}
	reg, err := remote.NewRegistry(o.host())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegistration, err)
	}
	reg.PlainHTTP = o.PlainHTTP
	reg.Client = o.authClient()
	if err := reg.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRegistration, o.host(), err)
	}
	return nil
}

func (o *OCI) target(ctx context.Context, ref string) (oras.Target, error) {
	if o.Target != nil {
		return o.Target(ctx, ref)
	}
	repo, err := remote.NewRepository(ref)
	if err != nil {
		return nil, err
	}
	repo.PlainHTTP = o.PlainHTTP
	repo.Client = o.authClient()
	return repo, nil
}

// Publish packages dir and pushes the archive with a Helm chart config.
func (o *OCI) Publish(ctx context.Context, dir string) (string, error) {
	m, err := manifest.Read(dir, o.ManifestFile)
	if err != nil {
		return "", err
	}
	tmp, err := os.MkdirTemp("", "chartship-package-")
	if err != nil {
		return "", fmt.Errorf("package: %w", err)
	}
	defer os.RemoveAll(tmp)

	archive, res, err := o.Helm.Package(ctx, dir, tmp)
	out := res.Output()
	if err != nil {
		return out, err
	}
	data, err := os.ReadFile(archive)
	if err != nil {
		return out, fmt.Errorf("read %s: %w", archive, err)
	}
	config, err := json.Marshal(m)
	if err != nil {
		return out, err
	}

	ref := o.base() + "/" + m.Name
	if err := o.push(ctx, ref, ociTag(m.Version), config, data); err != nil {
		return out, mapPushError(ref, err)
	}
	return out, nil
}

func (o *OCI) push(ctx context.Context, ref, tag string, config, data []byte) error {
	target, err := o.target(ctx, ref)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	configDesc, err := oras.PushBytes(ctx, target, MediaTypeChartConfig, config)
	if err != nil {
		return fmt.Errorf("push config: %w", err)
	}
	layerDesc, err := oras.PushBytes(ctx, target, MediaTypeChartContent, data)
	if err != nil {
		return fmt.Errorf("push chart: %w", err)
	}
	opts := oras.PackManifestOptions{
		Layers:           []ocispec.Descriptor{layerDesc},
		ConfigDescriptor: &configDesc,
	}
	manDesc, err := oras.PackManifest(ctx, target, oras.PackManifestVersion1_1, "", opts)
	if err != nil {
		return fmt.Errorf("pack manifest: %w", err)
	}
	if err := target.Tag(ctx, manDesc, tag); err != nil {
		return fmt.Errorf("tag %s: %w", tag, err)
	}
	return nil
}

// ociTag maps a SemVer to a valid OCI tag. Build metadata's '+' is not
// allowed in tags, so it becomes '_' the way Helm does it.
func ociTag(version string) string {
	return strings.ReplaceAll(version, "+", "_")
}

func mapPushError(ref string, err error) error {
	if errors.Is(err, auth.ErrBasicCredentialNotFound) {
		return fmt.Errorf("authentication failed: %w", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("registry unreachable: %w", err)
	}
	return fmt.Errorf("push %s: %w", ref, err)
}
