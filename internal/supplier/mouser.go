package supplier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"partflow/internal/models"
)

// MouserAdapter reads the Mouser part-number search API.
type MouserAdapter struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewMouserAdapter uses the default HTTP client when none is given.
func NewMouserAdapter(baseURL, apiKey string, client *http.Client) *MouserAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &MouserAdapter{BaseURL: baseURL, APIKey: apiKey, Client: client}
}

func (a *MouserAdapter) Name() string { return SupplierMouser }

func (a *MouserAdapter) DefaultSearchKeys() []string {
	return []string{
		"ManufacturerPartNumber",
		"MouserPartNumber",
		"Description",
		"ImagePath",
		"DataSheetUrl",
		"ProductDetailUrl",
	}
}

type mouserSearchResponse struct {
	SearchResults struct {
		Parts []struct {
			MouserPartNumber       string `json:"MouserPartNumber"`
			ManufacturerPartNumber string `json:"ManufacturerPartNumber"`
			Manufacturer           string `json:"Manufacturer"`
			Description            string `json:"Description"`
			Category               string `json:"Category"`
			ImagePath              string `json:"ImagePath"`
			DataSheetURL           string `json:"DataSheetUrl"`
			ProductDetailURL       string `json:"ProductDetailUrl"`
			ProductAttributes      []struct {
				AttributeName  string `json:"AttributeName"`
				AttributeValue string `json:"AttributeValue"`
			} `json:"ProductAttributes"`
			PriceBreaks []struct {
				Quantity int    `json:"Quantity"`
				Price    string `json:"Price"`
				Currency string `json:"Currency"`
			} `json:"PriceBreaks"`
		} `json:"Parts"`
	} `json:"SearchResults"`
}

// Fetch looks up one part by Mouser or manufacturer part number.
func (a *MouserAdapter) Fetch(ctx context.Context, key string) (models.SupplierPart, error) {
	body, err := json.Marshal(map[string]any{
		"SearchByPartRequest": map[string]string{"mouserPartNumber": key},
	})
	if err != nil {
		return models.SupplierPart{}, err
	}

	url := fmt.Sprintf("%s/api/v1/search/partnumber?apiKey=%s", a.BaseURL, a.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return models.SupplierPart{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return models.SupplierPart{}, &models.TransportError{Supplier: a.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.SupplierPart{}, &models.TransportError{
			Supplier: a.Name(),
			Err:      fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var raw mouserSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.SupplierPart{}, &models.TransportError{Supplier: a.Name(), Err: err}
	}
	if len(raw.SearchResults.Parts) == 0 {
		return models.SupplierPart{}, models.ErrNotFound
	}

	p := raw.SearchResults.Parts[0]
	category, subcategory := splitMouserCategory(p.Category)
	part := models.SupplierPart{
		Supplier:     a.Name(),
		SKU:          p.MouserPartNumber,
		Manufacturer: p.Manufacturer,
		MPN:          p.ManufacturerPartNumber,
		Description:  p.Description,
		Category:     category,
		Subcategory:  subcategory,
		ImageURL:     encodeURLWhitespace(p.ImagePath),
		DatasheetURL: encodeURLWhitespace(p.DataSheetURL),
		DetailURL:    encodeURLWhitespace(p.ProductDetailURL),
		Parameters:   map[string]string{},
		Pricing:      map[int]decimal.Decimal{},
		Currency:     "USD",
	}

	for _, attr := range p.ProductAttributes {
		part.Parameters[attr.AttributeName] = attr.AttributeValue
	}
	for _, pb := range p.PriceBreaks {
		price, err := parseMouserPrice(pb.Price)
		if err != nil || pb.Quantity <= 0 {
			continue
		}
		part.Pricing[pb.Quantity] = price
		part.Currency = normalizeCurrency(a.Name(), pb.Currency)
	}
	return part, nil
}

// splitMouserCategory breaks "Capacitors / Ceramic Capacitors" style
// breadcrumbs into the category/subcategory pair.
func splitMouserCategory(breadcrumb string) (string, string) {
	parts := strings.SplitN(breadcrumb, "/", 2)
	category := strings.TrimSpace(parts[0])
	if len(parts) == 1 {
		return category, ""
	}
	return category, strings.TrimSpace(parts[1])
}

// parseMouserPrice strips the currency symbol Mouser prepends to prices.
func parseMouserPrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£¥ ")
	s = strings.ReplaceAll(s, ",", "")
	return decimal.NewFromString(s)
}
