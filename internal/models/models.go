package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupplierPart is the normalized record a supplier adapter produces for one
// catalog lookup. It is never mutated after the gateway hands it out; the
// part cache stores a verbatim copy.
type SupplierPart struct {
	Supplier     string                  `json:"supplier"`
	SKU          string                  `json:"sku"`
	Manufacturer string                  `json:"manufacturer"`
	MPN          string                  `json:"mpn"`
	Description  string                  `json:"description"`
	Category     string                  `json:"category"`
	Subcategory  string                  `json:"subcategory"`
	ImageURL     string                  `json:"image_url"`
	DatasheetURL string                  `json:"datasheet_url"`
	DetailURL    string                  `json:"detail_url"`
	Parameters   map[string]string       `json:"parameters"`
	Pricing      map[int]decimal.Decimal `json:"pricing"`
	Currency     string                  `json:"currency"`
}

// Empty reports whether the lookup produced no usable record.
func (p SupplierPart) Empty() bool {
	return p.SKU == "" && p.MPN == ""
}

// PriceBreakQuantities returns the break quantities in ascending order.
func (p SupplierPart) PriceBreakQuantities() []int {
	quantities := make([]int, 0, len(p.Pricing))
	for q := range p.Pricing {
		quantities = append(quantities, q)
	}
	for i := 1; i < len(quantities); i++ {
		for j := i; j > 0 && quantities[j] < quantities[j-1]; j-- {
			quantities[j], quantities[j-1] = quantities[j-1], quantities[j]
		}
	}
	return quantities
}

// InternalPart is the canonical form pushed into the inventory store.
// The orchestrator owns the in-flight value and stamps the IPN once.
type InternalPart struct {
	Category      string                  `json:"category"`
	Subcategory   string                  `json:"subcategory"`
	Name          string                  `json:"name"`
	Description   string                  `json:"description"`
	Revision      string                  `json:"revision"`
	Keywords      string                  `json:"keywords"`
	IPN           string                  `json:"ipn"`
	ImageURL      string                  `json:"image_url"`
	DatasheetURL  string                  `json:"datasheet_url"`
	DetailURL     string                  `json:"detail_url"`
	Suppliers     map[string][]string     `json:"suppliers"`
	Manufacturers map[string][]string     `json:"manufacturers"`
	Parameters    map[string]string       `json:"parameters"`
	Pricing       map[int]decimal.Decimal `json:"pricing"`
	Currency      string                  `json:"currency"`
}

// Sentinel is stored for canonical parameters the supplier did not provide.
// A sentinel value never overwrites a real one.
const Sentinel = "-"

// AllSentinel reports whether every parameter value is the placeholder,
// in which case parameter-based deduplication is meaningless.
func (p InternalPart) AllSentinel() bool {
	if len(p.Parameters) == 0 {
		return false
	}
	for _, v := range p.Parameters {
		if v != Sentinel {
			return false
		}
	}
	return true
}

// FirstMPN returns the manufacturer/MPN pair of a freshly mapped part.
// Parts produced by the mapping engine carry exactly one manufacturer.
func (p InternalPart) FirstMPN() (manufacturer, mpn string) {
	for m, mpns := range p.Manufacturers {
		if len(mpns) > 0 {
			return m, mpns[0]
		}
	}
	return "", ""
}

// FirstSKU returns the supplier/SKU pair of a freshly mapped part.
func (p InternalPart) FirstSKU() (supplier, sku string) {
	for s, skus := range p.Suppliers {
		if len(skus) > 0 {
			return s, skus[0]
		}
	}
	return "", ""
}

// Reserved parameter keys carrying library-qualified CAD names.
const (
	ParamSymbol    = "Symbol"
	ParamFootprint = "Footprint"
)

// CategoryNode is one element of the internal taxonomy forest.
type CategoryNode struct {
	Name     string
	Parent   *CategoryNode
	Children []*CategoryNode
}

// Child returns the direct child with the given name, or nil.
func (n *CategoryNode) Child(name string) *CategoryNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Path returns the root-to-node category path.
func (n *CategoryNode) Path() []string {
	if n.Parent == nil {
		return []string{n.Name}
	}
	return append(n.Parent.Path(), n.Name)
}

// FunctionFilterSigil marks a category-map subcategory whose match is decided
// by a parameter value instead of a string match.
const FunctionFilterSigil = "__"

/// CategoryMap holds one supplier's category translations:
// internal category -> internal subcategory -> supplier subcategory strings.
type CategoryMap map[string]map[string][]string

// CategoryTarget is the internal pair an inverted category map resolves to.
type CategoryTarget struct {
	Category    string
	Subcategory string
}

// ParameterTemplate is a globally unique parameter name with an optional unit.
type ParameterTemplate struct {
	Name string `yaml:"name"`
	Unit string `yaml:"unit,omitempty"`
}

// IPNPolicy controls the shape of minted internal part numbers.
type IPNPolicy struct {
	EnablePrefix       bool   `yaml:"enable_prefix"`
	Prefix             string `yaml:"prefix"`
	EnableCategoryCode bool   `yaml:"enable_category_code"`
	UniqueIDLength     int    `yaml:"unique_id_length"`
	EnableSuffix       bool   `yaml:"enable_suffix"`
	Suffix             string `yaml:"suffix"`
}

// CacheEntry is the stored result of one successful supplier lookup.
type CacheEntry struct {
	Part      SupplierPart `json:"part"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// Valid reports whether the entry is still inside the validity window.
func (e CacheEntry) Valid(now time.Time, validDays int) bool {
	return now.Sub(e.FetchedAt) < time.Duration(validDays)*24*time.Hour
}

// Ingestion statuses
const (
	StatusCreated  = "created"
	StatusExisting = "existing"
	StatusFailed   = "failed"
)

// IngestionResult is the tagged outcome of one ingestion run.
type IngestionResult struct {
	Status      string        `json:"status"`
	IPN         string        `json:"ipn,omitempty"`
	InventoryPK int           `json:"inventory_pk,omitempty"`
	Part        *InternalPart `json:"part,omitempty"`
	Warnings    []string      `json:"warnings,omitempty"`
	Err         error         `json:"-"`
	Error       string        `json:"error,omitempty"`
}

// Failed builds a failed result with the error mirrored into the
// JSON-visible field.
func Failed(err error, warnings []string) IngestionResult {
	r := IngestionResult{Status: StatusFailed, Warnings: warnings, Err: err}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Warning codes accumulated in IngestionResult.Warnings.
const (
	WarnImageDownloadFailed      = "image_download_failed"
	WarnImageUploadFailed        = "image_upload_failed"
	WarnDatasheetDownloadFailed  = "datasheet_download_failed"
	WarnDatasheetUploadFailed    = "datasheet_upload_failed"
	WarnParameterTemplateMissing = "parameter_template_missing"
	WarnParameterSkipped         = "parameter_skipped"
	WarnManufacturerLinkFailed   = "manufacturer_link_failed"
	WarnSupplierLinkFailed       = "supplier_link_failed"
	WarnPriceBreakSkipped        = "price_break_skipped"
	WarnCADSymbolFailed          = "cad_symbol_failed"
	WarnEventPublishFailed       = "event_publish_failed"
)
