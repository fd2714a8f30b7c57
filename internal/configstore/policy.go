package configstore

import "partflow/internal/models"

// LoadIPNPolicy reads internal_part_number.yaml. The configured unique ID
// length is authoritative; a value below 1 is clamped to 1.
func (s *Store) LoadIPNPolicy() (models.IPNPolicy, error) {
	policy := models.IPNPolicy{UniqueIDLength: 6}
	if err := s.decodeMerged(FileIPN, &policy); err != nil {
		return models.IPNPolicy{}, err
	}
	if policy.UniqueIDLength < 1 {
		policy.UniqueIDLength = 1
	}
	return policy, nil
}

// General carries the miscellaneous feature flags from general.yaml.
type General struct {
	EnableCAD        bool   `yaml:"enable_cad"`
	UpdateParameters bool   `yaml:"update_parameters"`
	SymbolLibrary    string `yaml:"symbol_library"`
	SymbolTemplate   string `yaml:"symbol_template"`
}

// LoadGeneral reads general.yaml.
func (s *Store) LoadGeneral() (General, error) {
	var g General
	if err := s.decodeMerged(FileGeneral, &g); err != nil {
		return General{}, err
	}
	return g, nil
}

// SupplierOptions are the per-supplier tunables from <supplier>_config.yaml.
type SupplierOptions struct {
	CacheValidDays  int    `yaml:"cache_valid_days"`
	MatchThreshold  int    `yaml:"match_threshold"`
	FilterParameter string `yaml:"filter_parameter"`
}

// LoadSupplierOptions reads <supplier>_config.yaml with defaults applied.
func (s *Store) LoadSupplierOptions(supplier string) (SupplierOptions, error) {
	opts := SupplierOptions{
		CacheValidDays:  7,
		MatchThreshold:  100,
		FilterParameter: "Function Type",
	}
	if err := s.decodeMerged(supplierFile(filePatConfig, supplier), &opts); err != nil {
		return SupplierOptions{}, err
	}
	return opts, nil
}

// SupplierAPI holds a supplier adapter's credentials from <supplier>_api.yaml.
type SupplierAPI struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Secret string `yaml:"secret,omitempty"`
}

// LoadSupplierAPI reads <supplier>_api.yaml.
func (s *Store) LoadSupplierAPI(supplier string) (SupplierAPI, error) {
	var api SupplierAPI
	if err := s.decodeMerged(supplierFile(filePatAPI, supplier), &api); err != nil {
		return SupplierAPI{}, err
	}
	return api, nil
}
