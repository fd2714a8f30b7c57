package configstore

import (
	"sort"

	"partflow/internal/models"
)

type taxonomyFile struct {
	Categories map[string]any    `yaml:"categories"`
	Codes      map[string]string `yaml:"codes"`
}

// LoadTaxonomy reads the internal category forest from categories.yaml.
// Roots and children are returned sorted by name so traversal order is
// deterministic.
func (s *Store) LoadTaxonomy() ([]*models.CategoryNode, error) {
	var f taxonomyFile
	if err := s.decodeMerged(FileCategories, &f); err != nil {
		return nil, err
	}
	return buildForest(f.Categories, nil), nil
}

// LoadCategoryCodes reads the CODES table keyed by category name.
func (s *Store) LoadCategoryCodes() (map[string]string, error) {
	var f taxonomyFile
	if err := s.decodeMerged(FileCategories, &f); err != nil {
		return nil, err
	}
	if f.Codes == nil {
		f.Codes = map[string]string{}
	}
	return f.Codes, nil
}

func buildForest(raw map[string]any, parent *models.CategoryNode) []*models.CategoryNode {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	nodes := make([]*models.CategoryNode, 0, len(names))
	for _, name := range names {
		node := &models.CategoryNode{Name: name, Parent: parent}
		if children, ok := raw[name].(map[string]any); ok {
			node.Children = buildForest(children, node)
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// FindCategory walks the forest for a root category by name.
func FindCategory(forest []*models.CategoryNode, name string) *models.CategoryNode {
	for _, n := range forest {
		if n.Name == name {
			return n
		}
	}
	return nil
}
