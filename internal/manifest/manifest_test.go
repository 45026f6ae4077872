package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFilename), []byte(body), 0o644))
}

func TestRead_TagNameFromNameAndVersion(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "app")
	writeManifest(t, dir, "apiVersion: v2\nname: app\nversion: 1.2.3\ndescription: demo\n")

	m, err := Read(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "app", m.Name)
	assert.Equal(t, "1.2.3", m.Version)
	assert.Equal(t, "app-1.2.3", m.TagName())
}

func TestTagName(t *testing.T) {
	assert.Equal(t, "app-1.2.3", TagName("app", "1.2.3"))
	assert.Equal(t, "redis-ha-0.1.0-rc.1", TagName("redis-ha", "0.1.0-rc.1"))
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(t.TempDir(), "")
	require.ErrorIs(t, err, ErrMissing)
}

func TestParse_Malformed(t *testing.T) {
	cases := map[string]string{
		"not yaml":        "name: [",
		"missing name":    "version: 1.0.0\n",
		"missing version": "name: app\n",
		"bad name":        "name: a/b\nversion: 1.0.0\n",
		"bad api version": "apiVersion: v9\nname: app\nversion: 1.0.0\n",
		"not semver":      "name: app\nversion: latest\n",
	}
	for label, body := range cases {
		t.Run(label, func(t *testing.T) {
			_, err := Parse([]byte(body))
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}
