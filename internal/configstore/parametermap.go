package configstore

import (
	"strings"

	"partflow/internal/models"
)

// parameterMapEntry is one keyed block of <supplier>_parameters.yaml. Keys
// are '/'-joined internal category paths; Parent lists other keys whose
// mappings are inherited underneath this entry's own.
type parameterMapEntry struct {
	Parent []string          `yaml:"parent,omitempty"`
	Map    map[string]string `yaml:"map"`
}

type parameterMapFile map[string]parameterMapEntry

// LoadParameterMap resolves the supplier-parameter -> canonical-parameter
// mapping for a category path. The longest suffix of the path that matches a
// file key wins; parent chains are unioned underneath with child entries
// taking precedence. A cycle in the parent chain is a ConfigError.
func (s *Store) LoadParameterMap(supplier string, categoryPath []string) (map[string]string, error) {
	file := parameterMapFile{}
	name := supplierFile(filePatParams, supplier)
	if err := s.decodeMerged(name, &file); err != nil {
		return nil, err
	}

	key := longestSuffixKey(file, categoryPath)
	if key == "" {
		return map[string]string{}, nil
	}

	resolved, err := resolveEntry(file, key, map[string]bool{}, name)
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// LoadParameterFilters reads the per-category deduplication filter list.
func (s *Store) LoadParameterFilters(category string) ([]string, error) {
	filters := map[string][]string{}
	if err := s.decodeMerged(FileFilters, &filters); err != nil {
		return nil, err
	}
	return filters[category], nil
}

// LoadParameterTemplates reads the global canonical parameter templates.
func (s *Store) LoadParameterTemplates() ([]models.ParameterTemplate, error) {
	var f struct {
		Templates []models.ParameterTemplate `yaml:"templates"`
	}
	if err := s.decodeMerged(FileParameters, &f); err != nil {
		return nil, err
	}
	return f.Templates, nil
}

func longestSuffixKey(file parameterMapFile, path []string) string {
	for i := 0; i < len(path); i++ {
		key := strings.Join(path[i:], "/")
		if _, ok := file[key]; ok {
			return key
		}
	}
	return ""
}

func resolveEntry(file parameterMapFile, key string, visited map[string]bool, name string) (map[string]string, error) {
	if visited[key] {
		return nil, &models.ConfigError{File: name, Reason: "parameter map parent cycle at " + key}
	}
	visited[key] = true

	entry, ok := file[key]
	if !ok {
		return nil, &models.ConfigError{File: name, Reason: "parameter map parent not found: " + key}
	}

	merged := map[string]string{}
	for _, parent := range entry.Parent {
		inherited, err := resolveEntry(file, parent, visited, name)
		if err != nil {
			return nil, err
		}
		for k, v := range inherited {
			merged[k] = v
		}
	}
	// Child wins on conflict.
	for k, v := range entry.Map {
		merged[k] = v
	}
	return merged, nil
}
