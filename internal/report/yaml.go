package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/flarebyte/chartship/internal/orchestrator"
)

// MarshalYAML returns canonical YAML for o. Keys keep a fixed order so
// rewriting the same outcome is byte-stable.
func MarshalYAML(o orchestrator.RunOutcome) ([]byte, error) {
	r := FromOutcome(o)
	top := &yaml.Node{Kind: yaml.MappingNode}
	results := &yaml.Node{Kind: yaml.SequenceNode}
	for _, d := range r.Results {
		results.Content = append(results.Content, directoryNode(d))
	}
	top.Content = append(top.Content,
		scalarNode("failed"), boolNode(r.Failed),
		scalarNode("results"), results,
	)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(top); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")
	out = append(out, '\n')
	return out, nil
}

// WriteYAML writes the canonical YAML report to path, creating parent
// directories.
func WriteYAML(path string, o orchestrator.RunOutcome) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := MarshalYAML(o)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func directoryNode(d Directory) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	n.Content = append(n.Content,
		scalarNode("directory"), scalarNode(d.Directory),
		scalarNode("state"), scalarNode(d.State),
	)
	if d.FailedStage != "" {
		n.Content = append(n.Content, scalarNode("failed_stage"), scalarNode(d.FailedStage))
	}
	stages := &yaml.Node{Kind: yaml.MappingNode}
	for _, s := range []struct {
		name string
		st   Stage
	}{{"build", d.Build}, {"lint", d.Lint}, {"publish", d.Publish}, {"tag", d.Tag}} {
		stages.Content = append(stages.Content, scalarNode(s.name), stageNode(s.st))
	}
	n.Content = append(n.Content, scalarNode("stages"), stages)
	return n
}

func stageNode(s Stage) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	n.Content = append(n.Content, scalarNode("status"), scalarNode(s.Status))
	if s.Detail != "" {
		n.Content = append(n.Content, scalarNode("detail"), scalarNode(s.Detail))
	}
	return n
}

func scalarNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func boolNode(v bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}
}
