// Package mapping translates a SupplierPart plus a resolved category pair
// into the canonical InternalPart consumed by the inventory store.
package mapping

import (
	"go.uber.org/zap"

	"partflow/internal/models"
	"partflow/internal/util"
)

// MPNParameterName is the supplier parameter whose value is always replaced
// by the authoritative MPN from the SupplierPart itself.
const MPNParameterName = "Manufacturer Part Number"

// DefaultRevision stamps newly mapped parts.
const DefaultRevision = "A"

// Engine maps supplier records into internal parts. It is stateless; the
// parameter map is resolved by the caller so the engine stays pure.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a mapping engine.
func NewEngine() *Engine {
	return &Engine{logger: util.GetLogger()}
}

// Map builds an InternalPart from a supplier record and its resolved
// internal category pair.
//
// Every canonical parameter named in paramMap ends up present: either with
// the cleaned supplier value or with the "-" placeholder. An empty paramMap
// degrades to a part with supplier-side fields only.
func (e *Engine) Map(part models.SupplierPart, category, subcategory string, paramMap map[string]string) models.InternalPart {
	internal := models.InternalPart{
		Category:     category,
		Subcategory:  subcategory,
		Name:         part.MPN,
		Description:  part.Description,
		Revision:     DefaultRevision,
		Keywords:     part.Description,
		ImageURL:     part.ImageURL,
		DatasheetURL: part.DatasheetURL,
		DetailURL:    part.DetailURL,
		Suppliers:    map[string][]string{},
		Manufacturers: map[string][]string{},
		Parameters:   map[string]string{},
	}
	if part.Supplier != "" && part.SKU != "" {
		internal.Suppliers[part.Supplier] = []string{part.SKU}
	}
	if part.Manufacturer != "" && part.MPN != "" {
		internal.Manufacturers[part.Manufacturer] = []string{part.MPN}
	}

	if len(paramMap) == 0 {
		e.logger.Warn("Empty parameter map for category, mapping supplier fields only",
			zap.String("supplier", part.Supplier),
			zap.String("category", category))
	}

	for supplierParam, canonical := range paramMap {
		if supplierParam == MPNParameterName {
			internal.Parameters[canonical] = part.MPN
			continue
		}
		if raw, ok := part.Parameters[supplierParam]; ok {
			internal.Parameters[canonical] = CleanValue(category, supplierParam, raw)
		}
	}
	// Canonical parameters the supplier never reported get the placeholder.
	for _, canonical := range paramMap {
		if _, ok := internal.Parameters[canonical]; !ok {
			internal.Parameters[canonical] = models.Sentinel
		}
	}

	if len(part.Pricing) > 0 {
		internal.Pricing = part.Pricing
		internal.Currency = part.Currency
	}
	return internal
}
