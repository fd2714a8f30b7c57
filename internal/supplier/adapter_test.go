package supplier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"partflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const digikeyFixture = `{
  "Product": {
    "DigiKeyProductNumber": "399-1096-1-ND",
    "ManufacturerProductNumber": "C0603C104K5RACTU",
    "Manufacturer": {"Name": "KEMET"},
    "Description": {"ProductDescription": "CAP CER 0.1UF 50V X7R 0603"},
    "Category": {"Name": "Capacitors", "ChildCategories": [{"Name": "Ceramic Capacitors"}]},
    "PhotoUrl": "https://media.example.com/kemet 0603.jpg",
    "DatasheetUrl": "https://media.example.com/C0603.pdf",
    "ProductUrl": "https://www.digikey.com/product-detail/399-1096-1-ND",
    "Parameters": [
      {"ParameterText": "Capacitance", "ValueText": "0.1 µF"},
      {"ParameterText": "Voltage - Rated", "ValueText": "50V"}
    ],
    "StandardPricing": [
      {"BreakQuantity": 1, "UnitPrice": 0.10},
      {"BreakQuantity": 100, "UnitPrice": 0.02}
    ],
    "Currency": "USD"
  }
}`

func TestDigikeyFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Path, "C0603C104K5RACTU")
		_, _ = w.Write([]byte(digikeyFixture))
	}))
	defer srv.Close()

	a := NewDigikeyAdapter(srv.URL, "tok", srv.Client())
	part, err := a.Fetch(context.Background(), "C0603C104K5RACTU")
	require.NoError(t, err)

	assert.Equal(t, "digikey", part.Supplier)
	assert.Equal(t, "399-1096-1-ND", part.SKU)
	assert.Equal(t, "KEMET", part.Manufacturer)
	assert.Equal(t, "C0603C104K5RACTU", part.MPN)
	assert.Equal(t, "Capacitors", part.Category)
	assert.Equal(t, "Ceramic Capacitors", part.Subcategory)
	assert.Equal(t, "0.1 µF", part.Parameters["Capacitance"])
	assert.Equal(t, "https://media.example.com/kemet%200603.jpg", part.ImageURL)
	assert.Equal(t, []int{1, 100}, part.PriceBreakQuantities())
	assert.Equal(t, "USD", part.Currency)
}

func TestDigikeyFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := NewDigikeyAdapter(srv.URL, "tok", srv.Client())
	_, err := a.Fetch(context.Background(), "NOPE")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDigikeyFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a := NewDigikeyAdapter(srv.URL, "tok", srv.Client())
	_, err := a.Fetch(context.Background(), "ANY")
	var transport *models.TransportError
	assert.ErrorAs(t, err, &transport)
}

const mouserFixture = `{
  "SearchResults": {
    "Parts": [{
      "MouserPartNumber": "595-SN74LVC1G125DBVR",
      "ManufacturerPartNumber": "SN74LVC1G125DBVR",
      "Manufacturer": "Texas Instruments",
      "Description": "Buffers & Line Drivers Single Power Supply",
      "Category": "Integrated Circuits / Buffers & Line Drivers",
      "ImagePath": "https://mouser.com/images/sn74.jpg",
      "DataSheetUrl": "https://mouser.com/ds/sn74lvc1g125.pdf",
      "ProductDetailUrl": "https://mouser.com/ProductDetail/595-SN74LVC1G125DBVR",
      "ProductAttributes": [
        {"AttributeName": "Function Type", "AttributeValue": "Buffer"}
      ],
      "PriceBreaks": [
        {"Quantity": 1, "Price": "$0.31", "Currency": "USD"},
        {"Quantity": 10, "Price": "$0.21", "Currency": "USD"}
      ]
    }]
  }
}`

func TestMouserFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "key123", r.URL.Query().Get("apiKey"))
		_, _ = w.Write([]byte(mouserFixture))
	}))
	defer srv.Close()

	a := NewMouserAdapter(srv.URL, "key123", srv.Client())
	part, err := a.Fetch(context.Background(), "SN74LVC1G125DBVR")
	require.NoError(t, err)

	assert.Equal(t, "mouser", part.Supplier)
	assert.Equal(t, "595-SN74LVC1G125DBVR", part.SKU)
	assert.Equal(t, "Integrated Circuits", part.Category)
	assert.Equal(t, "Buffers & Line Drivers", part.Subcategory)
	assert.Equal(t, "Buffer", part.Parameters["Function Type"])
	assert.Equal(t, "0.31", part.Pricing[1].String())
	assert.Equal(t, "0.21", part.Pricing[10].String())
}

func TestMouserFetchEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"SearchResults": {"Parts": []}}`))
	}))
	defer srv.Close()

	a := NewMouserAdapter(srv.URL, "key123", srv.Client())
	_, err := a.Fetch(context.Background(), "NOPE")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

const lcscFixture = `{
  "result": {
    "productCode": "C14663",
    "productModel": "CH340G",
    "brandNameEn": "WCH",
    "productIntroEn": "USB to serial chip",
    "parentCatalogName": "Interface ICs",
    "catalogName": "USB Converters",
    "productImageUrl": "https://assets.lcsc.com/images/ch340g.jpg",
    "pdfUrl": "https://datasheet.lcsc.com/CH340G.pdf",
    "productDetailUrl": "https://www.lcsc.com/product-detail/C14663.html",
    "currency": "CNY",
    "paramVOList": [
      {"paramNameEn": "Package", "paramValueEn": "SOP-16"}
    ],
    "productPriceList": [
      {"ladder": 1, "usdPrice": 0.45},
      {"ladder": 50, "usdPrice": 0.32}
    ]
  }
}`

func TestLCSCFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "C14663", r.URL.Query().Get("product_code"))
		_, _ = w.Write([]byte(lcscFixture))
	}))
	defer srv.Close()

	a := NewLCSCAdapter(srv.URL, srv.Client())
	part, err := a.Fetch(context.Background(), "C14663")
	require.NoError(t, err)

	assert.Equal(t, "lcsc", part.Supplier)
	assert.Equal(t, "C14663", part.SKU)
	assert.Equal(t, "CH340G", part.MPN)
	assert.Equal(t, "Interface ICs", part.Category)
	assert.Equal(t, "USB Converters", part.Subcategory)
	assert.Equal(t, "SOP-16", part.Parameters["Package"])
	assert.Equal(t, "CNY", part.Currency)
}

func TestNormalizeCurrencyDefaultsToUSD(t *testing.T) {
	assert.Equal(t, "USD", normalizeCurrency("lcsc", "RMBX"))
	assert.Equal(t, "USD", normalizeCurrency("lcsc", ""))
	assert.Equal(t, "EUR", normalizeCurrency("mouser", "eur"))
}

func TestEncodeURLWhitespace(t *testing.T) {
	assert.Equal(t, "https://a.example/x%20y.pdf", encodeURLWhitespace(" https://a.example/x y.pdf "))
}
