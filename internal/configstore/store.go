// Package configstore loads and persists the user-curated mapping tables:
// taxonomy, category maps, parameter maps, filter lists, IPN policy and
// credentials. It is the single source of truth every other component reads.
package configstore

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"partflow/internal/models"
	"partflow/internal/util"

	"go.uber.org/zap"
)

// Configuration file names under the user root.
const (
	FileCategories  = "categories.yaml"
	FileParameters  = "parameters.yaml"
	FileFilters     = "parameters_filters.yaml"
	FileIPN         = "internal_part_number.yaml"
	FileGeneral     = "general.yaml"
	filePatCategory = "%s_categories.yaml"
	filePatParams   = "%s_parameters.yaml"
	filePatConfig   = "%s_config.yaml"
	filePatAPI      = "%s_api.yaml"
	filePatInv      = "inventree_%s.yaml"
)

// Store reads mapping tables from a user directory, layered over a pristine
// templates directory. User values win when both define a key.
type Store struct {
	UserRoot      string
	TemplatesRoot string
	logger        *zap.Logger
}

// New creates a config store rooted at the given directories.
func New(userRoot, templatesRoot string) *Store {
	return &Store{
		UserRoot:      userRoot,
		TemplatesRoot: templatesRoot,
		logger:        util.GetLogger(),
	}
}

// decodeMerged decodes the template copy of name (if any) into out, then
// decodes the user copy over it. yaml.v3 sets only the keys present, so the
// second pass is a key-level merge with user values preferred.
//
// A file missing in both roots is not an error: out keeps its zero value and
// a recoverable warning is logged. Malformed YAML is a ConfigError.
func (s *Store) decodeMerged(name string, out any) error {
	found := false
	for _, root := range []string{s.TemplatesRoot, s.UserRoot} {
		if root == "" {
			continue
		}
		path := filepath.Join(root, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return &models.ConfigError{File: path, Reason: err.Error()}
		}
		if err := yaml.Unmarshal(data, out); err != nil {
			return &models.ConfigError{File: path, Reason: err.Error()}
		}
		found = true
	}
	if !found {
		s.logger.Warn("Config file missing, using empty mapping", zap.String("file", name))
	}
	return nil
}

// writeFile marshals v into the user root. Write failures propagate.
func (s *Store) writeFile(name string, v any) error {
	if err := os.MkdirAll(s.UserRoot, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	path := filepath.Join(s.UserRoot, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// EnsureUserConfig copies each template file missing from the user root.
// Files the user already has are never touched.
func (s *Store) EnsureUserConfig() error {
	entries, err := os.ReadDir(s.TemplatesRoot)
	if err != nil {
		return fmt.Errorf("failed to read templates directory: %w", err)
	}
	if err := os.MkdirAll(s.UserRoot, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		dst := filepath.Join(s.UserRoot, e.Name())
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.TemplatesRoot, e.Name()))
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", e.Name(), err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fmt.Errorf("failed to copy template %s: %w", e.Name(), err)
		}
		s.logger.Info("Copied config template", zap.String("file", e.Name()))
	}
	return nil
}
