// Package manifest reads the bundle manifest (Chart.yaml) that names and
// versions a chart. It is read lazily, at tag time, and never cached.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// DefaultFilename is the manifest every bundle directory carries.
const DefaultFilename = "Chart.yaml"

var (
	// ErrMissing is returned when the manifest file cannot be read.
	ErrMissing = errors.New("manifest missing")
	// ErrMalformed is returned when the manifest cannot be decoded or
	// lacks a usable name or version.
	ErrMalformed = errors.New("manifest malformed")
)

// Manifest is the subset of Chart.yaml the tag stage needs.
type Manifest struct {
	APIVersion string `yaml:"apiVersion,omitempty" json:"apiVersion,omitempty"`
	Name       string `yaml:"name" json:"name"`
	Version    string `yaml:"version" json:"version"`
}

// TagName is the immutable reference name for the bundle release.
func (m Manifest) TagName() string { return TagName(m.Name, m.Version) }

// TagName joins name and version as "{name}-{version}".
func TagName(name, version string) string { return name + "-" + version }

// Read loads and validates filename inside dir.
func Read(dir, filename string) (Manifest, error) {
	if filename == "" {
		filename = DefaultFilename
	}
	p := filepath.Join(dir, filename)
	b, err := os.ReadFile(p)
	if err != nil {
		return Manifest{}, fmt.Errorf("%w: %s: %v", ErrMissing, filepath.ToSlash(p), err)
	}
	m, err := Parse(b)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", filepath.ToSlash(p), err)
	}
	return m, nil
}

// Parse decodes and validates manifest bytes.
func Parse(b []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := validateSchema(m); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return Manifest{}, fmt.Errorf("%w: version %q is not semver: %v", ErrMalformed, m.Version, err)
	}
	return m, nil
}
