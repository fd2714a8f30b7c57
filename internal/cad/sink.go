// Package cad pushes minted parts toward the CAD symbol libraries. The
// actual S-expression writer lives outside this service; the shipped sink
// records symbols in an on-disk library table the writer consumes.
package cad

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"partflow/internal/models"
	"partflow/internal/util"
)

// Sink receives symbols for newly minted parts.
type Sink interface {
	// AddSymbol registers the part's symbol in the named library from the
	// given template. It reports whether the library already contained the
	// symbol and whether a new one was created.
	AddSymbol(part models.InternalPart, library, template string) (existed, created bool, err error)
	// DeleteSymbol removes the symbol for an IPN, reporting whether it was
	// present.
	DeleteSymbol(ipn, library string) (bool, error)
}

// symbolEntry is one row of the library table.
type symbolEntry struct {
	IPN       string `yaml:"ipn"`
	Name      string `yaml:"name"`
	Template  string `yaml:"template"`
	Symbol    string `yaml:"symbol,omitempty"`
	Footprint string `yaml:"footprint,omitempty"`
	Datasheet string `yaml:"datasheet,omitempty"`
}

// LibraryTable is a Sink writing one YAML table file per library under a
// root directory.
type LibraryTable struct {
	Root   string
	logger *zap.Logger
}

// NewLibraryTable creates a table sink rooted at dir.
func NewLibraryTable(dir string) *LibraryTable {
	return &LibraryTable{Root: dir, logger: util.GetLogger()}
}

func (t *LibraryTable) tablePath(library string) string {
	return filepath.Join(t.Root, library+".yaml")
}

func (t *LibraryTable) load(library string) (map[string]symbolEntry, error) {
	data, err := os.ReadFile(t.tablePath(library))
	if os.IsNotExist(err) {
		return map[string]symbolEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read library table %s: %w", library, err)
	}
	var entries map[string]symbolEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse library table %s: %w", library, err)
	}
	if entries == nil {
		entries = map[string]symbolEntry{}
	}
	return entries, nil
}

func (t *LibraryTable) save(library string, entries map[string]symbolEntry) error {
	if err := os.MkdirAll(t.Root, 0o755); err != nil {
		return fmt.Errorf("failed to create library root: %w", err)
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode library table %s: %w", library, err)
	}
	return os.WriteFile(t.tablePath(library), data, 0o644)
}

// AddSymbol records the part under its IPN. Re-adding an existing IPN is a
// no-op reported as existed.
func (t *LibraryTable) AddSymbol(part models.InternalPart, library, template string) (bool, bool, error) {
	if part.IPN == "" {
		return false, false, fmt.Errorf("cannot add symbol without an IPN")
	}
	entries, err := t.load(library)
	if err != nil {
		return false, false, err
	}
	if _, ok := entries[part.IPN]; ok {
		return true, false, nil
	}

	entries[part.IPN] = symbolEntry{
		IPN:       part.IPN,
		Name:      part.Name,
		Template:  template,
		Symbol:    part.Parameters[models.ParamSymbol],
		Footprint: part.Parameters[models.ParamFootprint],
		Datasheet: part.DatasheetURL,
	}
	if err := t.save(library, entries); err != nil {
		return false, false, err
	}
	t.logger.Info("Recorded CAD symbol",
		zap.String("library", library),
		zap.String("ipn", part.IPN))
	return false, true, nil
}

// DeleteSymbol removes the IPN from the library table.
func (t *LibraryTable) DeleteSymbol(ipn, library string) (bool, error) {
	entries, err := t.load(library)
	if err != nil {
		return false, err
	}
	if _, ok := entries[ipn]; !ok {
		return false, nil
	}
	delete(entries, ipn)
	if err := t.save(library, entries); err != nil {
		return false, err
	}
	t.logger.Info("Deleted CAD symbol",
		zap.String("library", library),
		zap.String("ipn", ipn))
	return true, nil
}

// Libraries lists the library names with a table on disk.
func (t *LibraryTable) Libraries() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(t.Root, "*.yaml"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		names = append(names, base[:len(base)-len(".yaml")])
	}
	sort.Strings(names)
	return names, nil
}
