package publish

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/memory"

	"github.com/flarebyte/chartship/internal/command"
	"github.com/flarebyte/chartship/internal/secret"
	"github.com/flarebyte/chartship/internal/testutil"
)

type fakeHelm struct {
	repoAddErr error
	pushErr    error
	pushRes    command.Result
	packageErr error

	added  []string
	pushed []string
	pass   secret.Value
}

func (f *fakeHelm) RepoAdd(_ context.Context, name, url, username string, password secret.Value) (command.Result, error) {
	f.added = append(f.added, name+" "+url+" "+username)
	f.pass = password
	return command.Result{}, f.repoAddErr
}

func (f *fakeHelm) Push(_ context.Context, dir, repoName string) (command.Result, error) {
	f.pushed = append(f.pushed, dir+" -> "+repoName)
	return f.pushRes, f.pushErr
}

func (f *fakeHelm) Package(_ context.Context, dir, dest string) (string, command.Result, error) {
	if f.packageErr != nil {
		return "", command.Result{Stderr: "bad chart"}, f.packageErr
	}
	p := filepath.Join(dest, filepath.Base(dir)+".tgz")
	if err := os.WriteFile(p, []byte("chart-bytes"), 0o644); err != nil {
		return "", command.Result{}, err
	}
	return p, command.Result{Stdout: "Successfully packaged chart and saved it to: " + p}, nil
}

func TestChartMuseum_RegisterUsesCredentials(t *testing.T) {
	h := &fakeHelm{}
	cm := &ChartMuseum{Helm: h, URL: "https://charts.example.com", Credentials: Credentials{Username: "bot", Password: secret.New("pw")}}

	require.NoError(t, cm.Register(context.Background()))
	assert.Equal(t, []string{"chartmuseum https://charts.example.com bot"}, h.added)
	assert.Equal(t, "pw", h.pass.Reveal())
}

func TestChartMuseum_RegisterFailure(t *testing.T) {
	cm := &ChartMuseum{Helm: &fakeHelm{repoAddErr: errors.New("repo add: exit status 1: 401")}, URL: "https://charts.example.com"}
	err := cm.Register(context.Background())
	require.ErrorIs(t, err, ErrRegistration)
	assert.Contains(t, err.Error(), "401")

	err = (&ChartMuseum{Helm: &fakeHelm{}}).Register(context.Background())
	require.ErrorIs(t, err, ErrRegistration)
}

func TestChartMuseum_PublishReturnsToolOutput(t *testing.T) {
	h := &fakeHelm{pushRes: command.Result{Stdout: "Pushing app-1.0.0.tgz", Stderr: "warn"}}
	cm := &ChartMuseum{Helm: h, Name: "internal"}

	out, err := cm.Publish(context.Background(), "charts/app")
	require.NoError(t, err)
	assert.Equal(t, []string{"charts/app -> internal"}, h.pushed)
	assert.Equal(t, "Pushing app-1.0.0.tgz\nwarn", out)
}

func writeChart(t *testing.T, name, version string) string {
	t.Helper()
	dir, err := testutil.WriteChart(t.TempDir(), name, name, version)
	require.NoError(t, err)
	return dir
}

func TestOCI_PublishPushesHelmArtifact(t *testing.T) {
	store := memory.New()
	var opened string
	o := &OCI{
		Helm:      &fakeHelm{},
		Reference: "oci://registry.example.com/charts/",
		Target: func(_ context.Context, ref string) (oras.Target, error) {
			opened = ref
			return store, nil
		},
	}
	dir := writeChart(t, "app", "1.2.3+build.1")

	out, err := o.Publish(context.Background(), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "saved it to")
	assert.Equal(t, "registry.example.com/charts/app", opened)

	ctx := context.Background()
	desc, err := store.Resolve(ctx, "1.2.3_build.1")
	require.NoError(t, err)
	raw, err := content.FetchAll(ctx, store, desc)
	require.NoError(t, err)
	var m ocispec.Manifest
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, MediaTypeChartConfig, m.Config.MediaType)
	require.Len(t, m.Layers, 1)
	assert.Equal(t, MediaTypeChartContent, m.Layers[0].MediaType)
	assert.Equal(t, digest.FromString("chart-bytes"), m.Layers[0].Digest)

	cfg, err := content.FetchAll(ctx, store, m.Config)
	require.NoError(t, err)
	assert.JSONEq(t, `{"apiVersion":"v2","name":"app","version":"1.2.3+build.1"}`, string(cfg))
}

func TestOCI_PublishTagsEachVersionInOneRepository(t *testing.T) {
	store := memory.New()
	o := &OCI{
		Helm:      &fakeHelm{},
		Reference: "registry.example.com/charts",
		Target: func(context.Context, string) (oras.Target, error) {
			return store, nil
		},
	}
	ctx := context.Background()
	_, err := o.Publish(ctx, writeChart(t, "app", "1.0.0"))
	require.NoError(t, err)
	_, err = o.Publish(ctx, writeChart(t, "app", "1.1.0"))
	require.NoError(t, err)

	first, err := store.Resolve(ctx, "1.0.0")
	require.NoError(t, err)
	second, err := store.Resolve(ctx, "1.1.0")
	require.NoError(t, err)
	assert.Equal(t, ocispec.MediaTypeImageManifest, first.MediaType)
	assert.NotEqual(t, first.Digest, second.Digest)
}

func TestOCI_PublishPackageFailure(t *testing.T) {
	o := &OCI{
		Helm:      &fakeHelm{packageErr: errors.New("package: exit status 1: bad chart")},
		Reference: "registry.example.com/charts",
		Target: func(context.Context, string) (oras.Target, error) {
			t.Fatal("target must not be opened")
			return nil, nil
		},
	}
	out, err := o.Publish(context.Background(), writeChart(t, "app", "1.0.0"))
	require.Error(t, err)
	assert.Equal(t, "bad chart", out)
}

func TestOCI_PublishMissingManifest(t *testing.T) {
	o := &OCI{Helm: &fakeHelm{}, Reference: "registry.example.com/charts"}
	_, err := o.Publish(context.Background(), t.TempDir())
	require.Error(t, err)
}

func TestOCI_RegisterPingsRegistry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()
	host := strings.TrimPrefix(server.URL, "http://")

	o := &OCI{Reference: "oci://" + host + "/charts", PlainHTTP: true}
	require.NoError(t, o.Register(context.Background()))
}

func TestOCI_RegisterFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()
	host := strings.TrimPrefix(server.URL, "http://")

	o := &OCI{Reference: host + "/charts", PlainHTTP: true}
	require.ErrorIs(t, o.Register(context.Background()), ErrRegistration)

	require.ErrorIs(t, (&OCI{}).Register(context.Background()), ErrRegistration)
}
