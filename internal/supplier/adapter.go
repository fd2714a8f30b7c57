// Package supplier turns a (supplier, query key) pair into a normalized
// SupplierPart, consulting the part cache before the distributor API.
package supplier

import (
	"context"

	"partflow/internal/models"
)

// Supplier tags recognized by the gateway.
const (
	SupplierDigikey = "digikey"
	SupplierMouser  = "mouser"
	SupplierLCSC    = "lcsc"
)

// Adapter is one distributor catalog. Implementations own the list of
// source field names they consume and rename them to the canonical
// SupplierPart fields; the transport details (auth, endpoints) stay inside
// the adapter.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, key string) (models.SupplierPart, error)
	// DefaultSearchKeys returns the ordered source field names the mapping
	// engine consults when the user has not overridden a field.
	DefaultSearchKeys() []string
}
