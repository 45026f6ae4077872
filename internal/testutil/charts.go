// Package testutil builds chart trees on disk for tests.
package testutil

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteChart creates root/rel with a Chart.yaml naming the chart and its
// version, and returns the chart directory.
func WriteChart(root, rel, name, version string) (string, error) {
	dir := filepath.Join(root, rel)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	b, err := yaml.Marshal(map[string]string{
		"apiVersion": "v2",
		"name":       name,
		"version":    version,
	})
	if err != nil {
		return "", err
	}
	return dir, os.WriteFile(filepath.Join(dir, "Chart.yaml"), b, 0o644)
}

