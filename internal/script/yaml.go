package script

import (
	"errors"
	"fmt"
	"io"

	yaml "go.yaml.in/yaml/v3"

	"autoseq/internal/auto"
)

// ParseYAML reads a YAML script. Scalar values keep their source text, so
// "2.50" stays "2.50" rather than becoming a float.
func ParseYAML(r io.Reader) ([]auto.Entry, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("yaml script: line %d: top level must be a sequence", root.Line)
	}

	out := make([]auto.Entry, 0, len(root.Content))
	for _, item := range root.Content {
		e, err := yamlEntry(item)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func yamlEntry(n *yaml.Node) (auto.Entry, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return auto.Entry{Name: n.Value}, nil
	case yaml.SequenceNode:
		vals, err := scalars(n.Content)
		if err != nil {
			return auto.Entry{}, err
		}
		if len(vals) == 0 {
			return auto.Entry{}, fmt.Errorf("yaml script: line %d: empty entry", n.Line)
		}
		return auto.Entry{Name: vals[0], Args: vals[1:]}, nil
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return auto.Entry{}, fmt.Errorf("yaml script: line %d: map entry must have exactly one key", n.Line)
		}
		key, val := n.Content[0], n.Content[1]
		e := auto.Entry{Name: key.Value}
		switch val.Kind {
		case yaml.ScalarNode:
			if val.Tag != "!!null" {
				e.Args = []string{val.Value}
			}
		case yaml.SequenceNode:
			args, err := scalars(val.Content)
			if err != nil {
				return auto.Entry{}, err
			}
			e.Args = args
		default:
			return auto.Entry{}, fmt.Errorf("yaml script: line %d: args of %q must be a scalar or a list", val.Line, key.Value)
		}
		return e, nil
	default:
		return auto.Entry{}, fmt.Errorf("yaml script: line %d: unsupported entry", n.Line)
	}
}

func scalars(nodes []*yaml.Node) ([]string, error) {
	out := make([]string, 0, len(nodes))
	for _, c := range nodes {
		if c.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("yaml script: line %d: nested values are not allowed", c.Line)
		}
		out = append(out, c.Value)
	}
	return out, nil
}
