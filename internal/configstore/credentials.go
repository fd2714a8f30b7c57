package configstore

import (
	"encoding/base64"
	"fmt"
)

// InventoryCredentials connect the pipeline to one inventory environment.
// The password is stored base64-encoded: opaque on disk, not encrypted.
type InventoryCredentials struct {
	Server   string `yaml:"server"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Token    string `yaml:"token,omitempty"`
}

// SaveInventoryCredentials writes inventree_<env>.yaml with the password
// opaquely encoded.
func (s *Store) SaveInventoryCredentials(env string, creds InventoryCredentials) error {
	creds.Password = base64.StdEncoding.EncodeToString([]byte(creds.Password))
	return s.writeFile(supplierFile(filePatInv, env), creds)
}

// LoadInventoryCredentials reads inventree_<env>.yaml and decodes the
// password. A password that does not decode is a ConfigError: the file was
// edited by hand or truncated.
func (s *Store) LoadInventoryCredentials(env string) (InventoryCredentials, error) {
	var creds InventoryCredentials
	name := supplierFile(filePatInv, env)
	if err := s.decodeMerged(name, &creds); err != nil {
		return InventoryCredentials{}, err
	}
	if creds.Password != "" {
		decoded, err := base64.StdEncoding.DecodeString(creds.Password)
		if err != nil {
			return InventoryCredentials{}, fmt.Errorf("credentials for %s are corrupt: %w", env, err)
		}
		creds.Password = string(decoded)
	}
	return creds, nil
}
