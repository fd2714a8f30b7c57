package inventory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"partflow/internal/util"
)

// Company is a manufacturer or supplier record.
type Company struct {
	PK             int    `json:"pk"`
	Name           string `json:"name"`
	IsManufacturer bool   `json:"is_manufacturer"`
	IsSupplier     bool   `json:"is_supplier"`
}

// CompanyFilter narrows a company listing.
type CompanyFilter struct {
	Name           string
	IsManufacturer bool
	IsSupplier     bool
}

// Companies lists companies matching the filter.
func (c *Client) Companies(ctx context.Context, filter CompanyFilter) ([]Company, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.Companies")
	defer span.End()

	q := url.Values{}
	if filter.Name != "" {
		q.Set("name", filter.Name)
	}
	if filter.IsManufacturer {
		q.Set("is_manufacturer", "true")
	}
	if filter.IsSupplier {
		q.Set("is_supplier", "true")
	}

	var companies []Company
	if err := c.do(ctx, http.MethodGet, "/api/company/", q, nil, &companies); err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// CreateCompany creates a company with the given role flags.
func (c *Client) CreateCompany(ctx context.Context, name string, isManufacturer, isSupplier bool) (Company, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.CreateCompany")
	defer span.End()

	body := map[string]any{
		"name":            name,
		"is_manufacturer": isManufacturer,
		"is_supplier":     isSupplier,
	}
	var created Company
	if err := c.do(ctx, http.MethodPost, "/api/company/", nil, body, &created); err != nil {
		return Company{}, fmt.Errorf("failed to create company %q: %w", name, err)
	}
	c.logger.Info("Created inventory company",
		zap.String("name", name),
		zap.Int("pk", created.PK),
		zap.Bool("is_manufacturer", isManufacturer),
		zap.Bool("is_supplier", isSupplier))
	return created, nil
}

// EnsureCompany returns the pk of the named company, creating it with the
// requested role when absent. An existing company missing the role gets the
// role added rather than a duplicate record.
func (c *Client) EnsureCompany(ctx context.Context, name string, isManufacturer, isSupplier bool) (int, error) {
	companies, err := c.Companies(ctx, CompanyFilter{Name: name})
	if err != nil {
		return 0, err
	}
	for _, company := range companies {
		if company.Name != name {
			continue
		}
		if (isManufacturer && !company.IsManufacturer) || (isSupplier && !company.IsSupplier) {
			fields := map[string]any{
				"is_manufacturer": company.IsManufacturer || isManufacturer,
				"is_supplier":     company.IsSupplier || isSupplier,
			}
			if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/company/%d/", company.PK), nil, fields, nil); err != nil {
				return 0, fmt.Errorf("failed to update company %q: %w", name, err)
			}
		}
		return company.PK, nil
	}
	created, err := c.CreateCompany(ctx, name, isManufacturer, isSupplier)
	if err != nil {
		return 0, err
	}
	return created.PK, nil
}

// ManufacturerPart links an inventory part to a manufacturer and MPN.
type ManufacturerPart struct {
	PK           int    `json:"pk"`
	Part         int    `json:"part"`
	Manufacturer int    `json:"manufacturer"`
	MPN          string `json:"MPN"`
	Link         string `json:"link"`
}

// ManufacturerParts lists manufacturer links, optionally filtered by part.
func (c *Client) ManufacturerParts(ctx context.Context, partPK int) ([]ManufacturerPart, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.ManufacturerParts")
	defer span.End()

	q := url.Values{}
	if partPK > 0 {
		q.Set("part", strconv.Itoa(partPK))
	}
	var links []ManufacturerPart
	if err := c.do(ctx, http.MethodGet, "/api/company/part/manufacturer/", q, nil, &links); err != nil {
		return nil, fmt.Errorf("failed to list manufacturer parts: %w", err)
	}
	return links, nil
}

// FindManufacturerPart looks a link up by (manufacturer name, MPN) across
// the whole store. Returns nil when absent.
func (c *Client) FindManufacturerPart(ctx context.Context, manufacturer, mpn string) (*ManufacturerPart, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.FindManufacturerPart")
	defer span.End()

	companies, err := c.Companies(ctx, CompanyFilter{Name: manufacturer, IsManufacturer: true})
	if err != nil {
		return nil, err
	}
	var manufacturerPK int
	for _, company := range companies {
		if company.Name == manufacturer {
			manufacturerPK = company.PK
			break
		}
	}
	if manufacturerPK == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("manufacturer", strconv.Itoa(manufacturerPK))
	q.Set("MPN", mpn)
	var links []ManufacturerPart
	if err := c.do(ctx, http.MethodGet, "/api/company/part/manufacturer/", q, nil, &links); err != nil {
		return nil, fmt.Errorf("failed to search manufacturer parts: %w", err)
	}
	for i := range links {
		if links[i].MPN == mpn {
			return &links[i], nil
		}
	}
	return nil, nil
}

// CreateManufacturerPart creates a (part, manufacturer, MPN) link.
func (c *Client) CreateManufacturerPart(ctx context.Context, partPK, manufacturerPK int, mpn, link string) (ManufacturerPart, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.CreateManufacturerPart")
	defer span.End()

	body := map[string]any{
		"part":         partPK,
		"manufacturer": manufacturerPK,
		"MPN":          mpn,
	}
	if link != "" {
		body["link"] = link
	}
	var created ManufacturerPart
	if err := c.do(ctx, http.MethodPost, "/api/company/part/manufacturer/", nil, body, &created); err != nil {
		return ManufacturerPart{}, fmt.Errorf("failed to create manufacturer part %q: %w", mpn, err)
	}
	return created, nil
}

// SupplierPart links an inventory part to a supplier and SKU.
type SupplierPart struct {
	PK               int    `json:"pk"`
	Part             int    `json:"part"`
	Supplier         int    `json:"supplier"`
	SKU              string `json:"SKU"`
	ManufacturerPart int    `json:"manufacturer_part"`
	Link             string `json:"link"`
}

// SupplierParts lists supplier links, optionally filtered by part.
func (c *Client) SupplierParts(ctx context.Context, partPK int) ([]SupplierPart, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.SupplierParts")
	defer span.End()

	q := url.Values{}
	if partPK > 0 {
		q.Set("part", strconv.Itoa(partPK))
	}
	var links []SupplierPart
	if err := c.do(ctx, http.MethodGet, "/api/company/part/", q, nil, &links); err != nil {
		return nil, fmt.Errorf("failed to list supplier parts: %w", err)
	}
	return links, nil
}

// CreateSupplierPart creates a (part, supplier, SKU) link.
func (c *Client) CreateSupplierPart(ctx context.Context, partPK, supplierPK int, sku, link string, manufacturerPartPK int) (SupplierPart, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.CreateSupplierPart")
	defer span.End()

	body := map[string]any{
		"part":     partPK,
		"supplier": supplierPK,
		"SKU":      sku,
	}
	if link != "" {
		body["link"] = link
	}
	if manufacturerPartPK > 0 {
		body["manufacturer_part"] = manufacturerPartPK
	}
	var created SupplierPart
	if err := c.do(ctx, http.MethodPost, "/api/company/part/", nil, body, &created); err != nil {
		return SupplierPart{}, fmt.Errorf("failed to create supplier part %q: %w", sku, err)
	}
	return created, nil
}
