package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a supplier has no record for a query key.
// Timeouts, HTTP failures and empty results all collapse into it at the
// gateway boundary; callers decide whether to surface it.
var ErrNotFound = errors.New("part not found")

// ConfigError reports a malformed or inconsistent configuration file.
// It is fatal for the current ingestion and leaves no partial state.
type ConfigError struct {
	File   string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("invalid configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid configuration %s: %s", e.File, e.Reason)
}

// TransportError wraps an upstream network failure so callers can tell a
// dead supplier API from a part that genuinely does not exist.
type TransportError struct {
	Supplier string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("supplier %s transport failure: %v", e.Supplier, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Inventory failure steps.
const (
	StepMissingCategory = "missing_category"
	StepCategoryLookup  = "category_lookup_failed"
	StepDuplicateCheck  = "duplicate_check_failed"
	StepCreateFailed    = "create_failed"
	StepIPNFailed       = "ipn_failed"
	StepConnectFailed   = "connect_failed"
)

// InventoryError reports a fatal inventory-store failure at a named
// pipeline step. Prior successful steps remain in the store.
type InventoryError struct {
	Step string
	Err  error
}

func (e *InventoryError) Error() string {
	return fmt.Sprintf("inventory error at %s: %v", e.Step, e.Err)
}

func (e *InventoryError) Unwrap() error { return e.Err }
