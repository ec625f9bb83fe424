package project

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Repos is the ordered list of extra addons repos.
//
// Two shapes are accepted. A plain sequence:
//
//	repos:
//	  - repos/web
//	  - /abs/path/server-tools
//
// or a mapping of names to a path or a list of paths, flattened in document
// order:
//
//	repos:
//	  oca:
//	    - repos/oca/web
//	    - repos/oca/server-tools
//	  custom: repos/custom
type Repos []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Repos) UnmarshalYAML(node *yaml.Node) error {
	var out []string

	switch node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&out); err != nil {
			return err
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			name, value := node.Content[i], node.Content[i+1]
			paths, err := decodePaths(value)
			if err != nil {
				return fmt.Errorf("repos.%s: %w", name.Value, err)
			}
			out = append(out, paths...)
		}
	case yaml.ScalarNode:
		if node.Tag != "!!null" {
			out = []string{node.Value}
		}
	default:
		return fmt.Errorf("line %d: repos must be a list or a mapping", node.Line)
	}

	*r = out

	return nil
}

func decodePaths(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}

		return []string{node.Value}, nil
	case yaml.SequenceNode:
		var out []string
		if err := node.Decode(&out); err != nil {
			return nil, err
		}

		return out, nil
	default:
		return nil, fmt.Errorf("line %d: expected a path or a list of paths", node.Line)
	}
}
