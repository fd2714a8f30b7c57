package supplier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"partflow/internal/models"
)

// DigikeyAdapter reads the Digi-Key product details API. Token acquisition
// (the OAuth dance) happens outside the core; the adapter is handed a
// ready-to-use bearer token.
type DigikeyAdapter struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewDigikeyAdapter uses the default HTTP client when none is given.
func NewDigikeyAdapter(baseURL, token string, client *http.Client) *DigikeyAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &DigikeyAdapter{BaseURL: baseURL, Token: token, Client: client}
}

func (a *DigikeyAdapter) Name() string { return SupplierDigikey }

// DefaultSearchKeys lists the source fields in the order the mapping engine
// consults them.
func (a *DigikeyAdapter) DefaultSearchKeys() []string {
	return []string{
		"ManufacturerProductNumber",
		"DigiKeyProductNumber",
		"ProductDescription",
		"DetailedDescription",
		"PhotoUrl",
		"DatasheetUrl",
		"ProductUrl",
	}
}

type digikeyProduct struct {
	Product struct {
		DigiKeyProductNumber      string `json:"DigiKeyProductNumber"`
		ManufacturerProductNumber string `json:"ManufacturerProductNumber"`
		Manufacturer              struct {
			Name string `json:"Name"`
		} `json:"Manufacturer"`
		Description struct {
			ProductDescription  string `json:"ProductDescription"`
			DetailedDescription string `json:"DetailedDescription"`
		} `json:"Description"`
		Category struct {
			Name            string `json:"Name"`
			ChildCategories []struct {
				Name string `json:"Name"`
			} `json:"ChildCategories"`
		} `json:"Category"`
		PhotoURL     string `json:"PhotoUrl"`
		DatasheetURL string `json:"DatasheetUrl"`
		ProductURL   string `json:"ProductUrl"`
		Parameters   []struct {
			ParameterText string `json:"ParameterText"`
			ValueText     string `json:"ValueText"`
		} `json:"Parameters"`
		StandardPricing []struct {
			BreakQuantity int             `json:"BreakQuantity"`
			UnitPrice     decimal.Decimal `json:"UnitPrice"`
		} `json:"StandardPricing"`
		Currency string `json:"Currency"`
	} `json:"Product"`
}

// Fetch looks up one product by manufacturer or Digi-Key part number.
func (a *DigikeyAdapter) Fetch(ctx context.Context, key string) (models.SupplierPart, error) {
	url := fmt.Sprintf("%s/products/v4/search/%s/productdetails", a.BaseURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.SupplierPart{}, err
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return models.SupplierPart{}, &models.TransportError{Supplier: a.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.SupplierPart{}, models.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return models.SupplierPart{}, &models.TransportError{
			Supplier: a.Name(),
			Err:      fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var raw digikeyProduct
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.SupplierPart{}, &models.TransportError{Supplier: a.Name(), Err: err}
	}

	p := raw.Product
	if p.DigiKeyProductNumber == "" && p.ManufacturerProductNumber == "" {
		return models.SupplierPart{}, models.ErrNotFound
	}

	part := models.SupplierPart{
		Supplier:     a.Name(),
		SKU:          p.DigiKeyProductNumber,
		Manufacturer: p.Manufacturer.Name,
		MPN:          p.ManufacturerProductNumber,
		Description:  p.Description.ProductDescription,
		Category:     p.Category.Name,
		ImageURL:     encodeURLWhitespace(p.PhotoURL),
		DatasheetURL: encodeURLWhitespace(p.DatasheetURL),
		DetailURL:    encodeURLWhitespace(p.ProductURL),
		Parameters:   map[string]string{},
		Pricing:      map[int]decimal.Decimal{},
		Currency:     normalizeCurrency(a.Name(), p.Currency),
	}
	if len(p.Category.ChildCategories) > 0 {
		part.Subcategory = p.Category.ChildCategories[0].Name
	}
	for _, param := range p.Parameters {
		part.Parameters[param.ParameterText] = param.ValueText
	}
	for _, pb := range p.StandardPricing {
		if pb.BreakQuantity > 0 {
			part.Pricing[pb.BreakQuantity] = pb.UnitPrice
		}
	}
	return part, nil
}
