package supplier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"partflow/internal/models"
)

// LCSCAdapter reads the LCSC product detail API.
type LCSCAdapter struct {
	BaseURL string
	Client  *http.Client
}

// NewLCSCAdapter uses the default HTTP client when none is given.
func NewLCSCAdapter(baseURL string, client *http.Client) *LCSCAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &LCSCAdapter{BaseURL: baseURL, Client: client}
}

func (a *LCSCAdapter) Name() string { return SupplierLCSC }

func (a *LCSCAdapter) DefaultSearchKeys() []string {
	return []string{
		"productModel",
		"productCode",
		"productIntroEn",
		"productImageUrl",
		"pdfUrl",
		"productDetailUrl",
	}
}

type lcscProduct struct {
	Result struct {
		ProductCode       string `json:"productCode"`
		ProductModel      string `json:"productModel"`
		BrandNameEn       string `json:"brandNameEn"`
		ProductIntroEn    string `json:"productIntroEn"`
		ParentCatalogName string `json:"parentCatalogName"`
		CatalogName       string `json:"catalogName"`
		ProductImageURL   string `json:"productImageUrl"`
		PdfURL            string `json:"pdfUrl"`
		ProductDetailURL  string `json:"productDetailUrl"`
		Currency          string `json:"currency"`
		ParamVOList       []struct {
			ParamNameEn  string `json:"paramNameEn"`
			ParamValueEn string `json:"paramValueEn"`
		} `json:"paramVOList"`
		ProductPriceList []struct {
			Ladder   int             `json:"ladder"`
			UsdPrice decimal.Decimal `json:"usdPrice"`
		} `json:"productPriceList"`
	} `json:"result"`
}

// Fetch looks up one product by LCSC product code.
func (a *LCSCAdapter) Fetch(ctx context.Context, key string) (models.SupplierPart, error) {
	url := fmt.Sprintf("%s/api/products/detail?product_code=%s", a.BaseURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.SupplierPart{}, err
	}

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

	var raw lcscProduct
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.SupplierPart{}, &models.TransportError{Supplier: a.Name(), Err: err}
	}

	r := raw.Result
	if r.ProductCode == "" {
		return models.SupplierPart{}, models.ErrNotFound
	}

	part := models.SupplierPart{
		Supplier:     a.Name(),
		SKU:          r.ProductCode,
		Manufacturer: r.BrandNameEn,
		MPN:          r.ProductModel,
		Description:  r.ProductIntroEn,
		Category:     r.ParentCatalogName,
		Subcategory:  r.CatalogName,
		ImageURL:     encodeURLWhitespace(r.ProductImageURL),
		DatasheetURL: encodeURLWhitespace(r.PdfURL),
		DetailURL:    encodeURLWhitespace(r.ProductDetailURL),
		Parameters:   map[string]string{},
		Pricing:      map[int]decimal.Decimal{},
		Currency:     normalizeCurrency(a.Name(), r.Currency),
	}
	for _, p := range r.ParamVOList {
		part.Parameters[p.ParamNameEn] = p.ParamValueEn
	}
	for _, pb := range r.ProductPriceList {
		if pb.Ladder > 0 {
			part.Pricing[pb.Ladder] = pb.UsdPrice
		}
	}
	return part, nil
}
