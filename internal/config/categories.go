package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// categoriesDocument covers the two accepted file layouts: an explicit list of
// {id, name} entries, or the "names" key of an Ultralytics data.yaml (either a
// list indexed from zero or an id to name map).
type categoriesDocument struct {
	Categories []CategoryConfig `yaml:"categories"`
	Names      yaml.Node        `yaml:"names"`
}

// LoadCategoriesFile reads a category declaration file.
func LoadCategoriesFile(path string) ([]CategoryConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories file: %w", err)
	}

	cats, err := ParseCategories(data)
	if err != nil {
		return nil, fmt.Errorf("invalid categories file %s: %w", path, err)
	}
	return cats, nil
}

// ParseCategories decodes a category declaration document.
func ParseCategories(data []byte) ([]CategoryConfig, error) {
	var doc categoriesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	hasNames := doc.Names.Kind != 0
	switch {
	case len(doc.Categories) > 0 && hasNames:
		return nil, errors.New("both categories and names are set")
	case len(doc.Categories) > 0:
		return doc.Categories, nil
	case hasNames:
		return parseNames(&doc.Names)
	default:
		return nil, errors.New("no categories or names declared")
	}
}

func parseNames(node *yaml.Node) ([]CategoryConfig, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return nil, fmt.Errorf("names: %w", err)
		}
		cats := make([]CategoryConfig, len(names))
		for i, name := range names {
			cats[i] = CategoryConfig{ID: i, Name: name}
		}
		return cats, nil

	case yaml.MappingNode:
		cats := make([]CategoryConfig, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			id, err := strconv.Atoi(key.Value)
			if err != nil {
				return nil, fmt.Errorf("names: line %d: invalid class id %q", key.Line, key.Value)
			}
			if value.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("names: line %d: class %d must map to a string", value.Line, id)
			}
			cats = append(cats, CategoryConfig{ID: id, Name: value.Value})
		}
		slices.SortFunc(cats, func(a, b CategoryConfig) int { return a.ID - b.ID })
		return cats, nil

	default:
		return nil, fmt.Errorf("names: line %d: expected a list or a map", node.Line)
	}
}
