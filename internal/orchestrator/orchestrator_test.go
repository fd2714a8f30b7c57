package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partflow/internal/cad"
	"partflow/internal/configstore"
	"partflow/internal/inventory"
	"partflow/internal/models"
)

// fakeInventory is an in-memory inventory store.
type fakeInventory struct {
	categories map[string]int

	nextPK   int
	parts    map[int]*inventory.Part
	created  int
	images   int
	attached int

	templates   []inventory.ParameterTemplate
	partParams  map[int][]inventory.PartParameter
	nextParamPK int

	companies     map[string]*inventory.Company
	nextCompanyPK int

	manufacturerParts []inventory.ManufacturerPart
	supplierParts     []inventory.SupplierPart
	nextLinkPK        int

	priceBreaks map[int][]inventory.PriceBreak
	nextBreakPK int
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{
		categories: map[string]int{
			"Capacitors/":        1,
			"Capacitors/Ceramic": 2,
		},
		parts:      map[int]*inventory.Part{},
		partParams: map[int][]inventory.PartParameter{},
		templates: []inventory.ParameterTemplate{
			{PK: 1, Name: "Capacitance", Units: "F"},
			{PK: 2, Name: "Voltage Rating", Units: "V"},
		},
		companies:   map[string]*inventory.Company{},
		priceBreaks: map[int][]inventory.PriceBreak{},
	}
}

func (f *fakeInventory) ResolveCategoryPK(_ context.Context, categoryName, subcategory string) (int, error) {
	return f.categories[categoryName+"/"+subcategory], nil
}

func (f *fakeInventory) PartsByCategory(_ context.Context, categoryPK int, _ bool) ([]inventory.Part, error) {
	var parts []inventory.Part
	for _, p := range f.parts {
		if p.Category == categoryPK {
			parts = append(parts, *p)
		}
	}
	return parts, nil
}

func (f *fakeInventory) Part(_ context.Context, pk int) (inventory.Part, error) {
	p, ok := f.parts[pk]
	if !ok {
		return inventory.Part{}, fmt.Errorf("no part %d", pk)
	}
	return *p, nil
}

func (f *fakeInventory) CreatePart(_ context.Context, part inventory.NewPart) (inventory.Part, error) {
	f.nextPK++
	f.created++
	created := &inventory.Part{
		PK:          f.nextPK,
		Name:        part.Name,
		Description: part.Description,
		Revision:    part.Revision,
		Keywords:    part.Keywords,
		Category:    part.Category,
		Active:      true,
	}
	f.parts[created.PK] = created
	return *created, nil
}

func (f *fakeInventory) SetIPN(_ context.Context, pk int, value string) error {
	f.parts[pk].IPN = value
	return nil
}

func (f *fakeInventory) UploadImage(_ context.Context, partPK int, path string) error {
	f.parts[partPK].Image = path
	f.images++
	return nil
}

func (f *fakeInventory) UploadAttachment(_ context.Context, _ int, _, _ string) error {
	f.attached++
	return nil
}

func (f *fakeInventory) ParameterTemplates(_ context.Context) ([]inventory.ParameterTemplate, error) {
	return f.templates, nil
}

func (f *fakeInventory) PartParameters(_ context.Context, partPK int) ([]inventory.PartParameter, error) {
	return f.partParams[partPK], nil
}

func (f *fakeInventory) CreatePartParameter(_ context.Context, partPK, templatePK int, value string) (inventory.PartParameter, error) {
	f.nextParamPK++
	p := inventory.PartParameter{PK: f.nextParamPK, Part: partPK, Template: templatePK, Data: value}
	f.partParams[partPK] = append(f.partParams[partPK], p)
	return p, nil
}

func (f *fakeInventory) UpdatePartParameter(_ context.Context, parameterPK int, value string) error {
	for partPK := range f.partParams {
		for i := range f.partParams[partPK] {
			if f.partParams[partPK][i].PK == parameterPK {
				f.partParams[partPK][i].Data = value
				return nil
			}
		}
	}
	return fmt.Errorf("no parameter %d", parameterPK)
}

func (f *fakeInventory) EnsureCompany(_ context.Context, name string, isManufacturer, isSupplier bool) (int, error) {
	if c, ok := f.companies[name]; ok {
		c.IsManufacturer = c.IsManufacturer || isManufacturer
		c.IsSupplier = c.IsSupplier || isSupplier
		return c.PK, nil
	}
	f.nextCompanyPK++
	f.companies[name] = &inventory.Company{
		PK:             f.nextCompanyPK,
		Name:           name,
		IsManufacturer: isManufacturer,
		IsSupplier:     isSupplier,
	}
	return f.nextCompanyPK, nil
}

func (f *fakeInventory) ManufacturerParts(_ context.Context, partPK int) ([]inventory.ManufacturerPart, error) {
	var links []inventory.ManufacturerPart
	for _, l := range f.manufacturerParts {
		if l.Part == partPK {
			links = append(links, l)
		}
	}
	return links, nil
}

func (f *fakeInventory) FindManufacturerPart(_ context.Context, manufacturer, mpn string) (*inventory.ManufacturerPart, error) {
	company, ok := f.companies[manufacturer]
	if !ok || !company.IsManufacturer {
		return nil, nil
	}
	for i := range f.manufacturerParts {
		if f.manufacturerParts[i].Manufacturer == company.PK && f.manufacturerParts[i].MPN == mpn {
			return &f.manufacturerParts[i], nil
		}
	}
	return nil, nil
}

func (f *fakeInventory) CreateManufacturerPart(_ context.Context, partPK, manufacturerPK int, mpn, link string) (inventory.ManufacturerPart, error) {
	f.nextLinkPK++
	l := inventory.ManufacturerPart{PK: f.nextLinkPK, Part: partPK, Manufacturer: manufacturerPK, MPN: mpn, Link: link}
	f.manufacturerParts = append(f.manufacturerParts, l)
	return l, nil
}

func (f *fakeInventory) SupplierParts(_ context.Context, partPK int) ([]inventory.SupplierPart, error) {
	var links []inventory.SupplierPart
	for _, l := range f.supplierParts {
		if l.Part == partPK {
			links = append(links, l)
		}
	}
	return links, nil
}

func (f *fakeInventory) CreateSupplierPart(_ context.Context, partPK, supplierPK int, sku, link string, manufacturerPartPK int) (inventory.SupplierPart, error) {
	f.nextLinkPK++
	l := inventory.SupplierPart{PK: f.nextLinkPK, Part: partPK, Supplier: supplierPK, SKU: sku, Link: link, ManufacturerPart: manufacturerPartPK}
	f.supplierParts = append(f.supplierParts, l)
	return l, nil
}

func (f *fakeInventory) PriceBreaks(_ context.Context, supplierPartPK int) ([]inventory.PriceBreak, error) {
	return f.priceBreaks[supplierPartPK], nil
}

func (f *fakeInventory) CreatePriceBreak(_ context.Context, supplierPartPK, quantity int, price decimal.Decimal, currency string) (inventory.PriceBreak, error) {
	f.nextBreakPK++
	pb := inventory.PriceBreak{PK: f.nextBreakPK, SupplierPart: supplierPartPK, Quantity: quantity, Price: price, Currency: currency}
	f.priceBreaks[supplierPartPK] = append(f.priceBreaks[supplierPartPK], pb)
	return pb, nil
}

func (f *fakeInventory) UpdatePriceBreak(_ context.Context, breakPK int, price decimal.Decimal, currency string) error {
	for spPK := range f.priceBreaks {
		for i := range f.priceBreaks[spPK] {
			if f.priceBreaks[spPK][i].PK == breakPK {
				f.priceBreaks[spPK][i].Price = price
				f.priceBreaks[spPK][i].Currency = currency
				return nil
			}
		}
	}
	return fmt.Errorf("no price break %d", breakPK)
}

func (f *fakeInventory) DeletePriceBreak(_ context.Context, breakPK int) error {
	for spPK := range f.priceBreaks {
		for i := range f.priceBreaks[spPK] {
			if f.priceBreaks[spPK][i].PK == breakPK {
				f.priceBreaks[spPK] = append(f.priceBreaks[spPK][:i], f.priceBreaks[spPK][i+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("no price break %d", breakPK)
}

func (f *fakeInventory) ConvertCurrency(_ context.Context, amount decimal.Decimal, _ string) (decimal.Decimal, string, error) {
	return amount, "USD", nil
}

type fakeGateway struct {
	part models.SupplierPart
	err  error
}

func (g *fakeGateway) Fetch(_ context.Context, _, _ string) (models.SupplierPart, error) {
	return g.part, g.err
}

type fakeFetcher struct {
	failTypes map[string]bool
}

func (f *fakeFetcher) Fetch(_ context.Context, _, dest, wantType string) error {
	if f.failTypes[wantType] {
		return fmt.Errorf("status 404")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("artifact"), 0o644)
}

type fakePublisher struct {
	events []models.PartIngestedEvent
}

func (p *fakePublisher) PublishPartIngested(_ context.Context, event models.PartIngestedEvent) error {
	p.events = append(p.events, event)
	return nil
}

func supplierFixture() models.SupplierPart {
	return models.SupplierPart{
		Supplier:     "digikey",
		SKU:          "399-1096-1-ND",
		Manufacturer: "KEMET",
		MPN:          "C0603C104K5RACTU",
		Description:  "CAP CER 0.1UF 50V X7R 0603",
		Category:     "Capacitors",
		Subcategory:  "Ceramic Capacitors",
		ImageURL:     "https://media.example.com/c0603.jpg",
		DatasheetURL: "https://media.example.com/c0603.pdf",
		DetailURL:    "https://www.digikey.com/products/399-1096-1-ND",
		Parameters: map[string]string{
			"Capacitance":     "0.1 µF",
			"Voltage - Rated": "50V",
		},
		Pricing:  map[int]decimal.Decimal{1: decimal.RequireFromString("0.10"), 10: decimal.RequireFromString("0.08")},
		Currency: "USD",
	}
}

type fixture struct {
	inv       *fakeInventory
	gateway   *fakeGateway
	fetcher   *fakeFetcher
	publisher *fakePublisher
	sink      *cad.LibraryTable
	orc       *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	user := t.TempDir()

	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(user, name), []byte(content), 0o644))
	}
	write("categories.yaml", `
categories:
  Capacitors:
    Ceramic:
codes:
  Capacitors: CAP
`)
	write("digikey_parameters.yaml", `
Capacitors/Ceramic:
  map:
    Capacitance: Capacitance
    Voltage - Rated: Voltage Rating
`)
	write("parameters_filters.yaml", `
Capacitors:
  - Capacitance
`)
	write("internal_part_number.yaml", `
enable_prefix: true
prefix: PF
enable_category_code: true
unique_id_length: 6
`)
	write("digikey_categories.yaml", `
Capacitors:
  Ceramic:
    - Ceramic Capacitors
`)

	f := &fixture{
		inv:       newFakeInventory(),
		gateway:   &fakeGateway{part: supplierFixture()},
		fetcher:   &fakeFetcher{failTypes: map[string]bool{}},
		publisher: &fakePublisher{},
		sink:      cad.NewLibraryTable(t.TempDir()),
	}
	f.orc = New(Deps{
		Gateway:     f.gateway,
		Store:       configstore.New(user, t.TempDir()),
		Inventory:   f.inv,
		Fetcher:     f.fetcher,
		Sink:        f.sink,
		Publisher:   f.publisher,
		DownloadDir: t.TempDir(),
	})
	return f
}

func confirmedRequest() Request {
	return Request{
		Supplier:    "digikey",
		Key:         "C0603C104K5RACTU",
		Category:    "Capacitors",
		Subcategory: "Ceramic",
	}
}

func TestIngestCreatesNewPart(t *testing.T) {
	f := newFixture(t)

	result := f.orc.Ingest(context.Background(), confirmedRequest())

	require.Equal(t, models.StatusCreated, result.Status)
	assert.Equal(t, "PF-CAP-000001", result.IPN)
	assert.Equal(t, 1, result.InventoryPK)
	assert.Empty(t, result.Warnings)

	assert.Equal(t, 1, f.inv.created)
	assert.Equal(t, "PF-CAP-000001", f.inv.parts[1].IPN)
	assert.Equal(t, 1, f.inv.images)
	assert.Equal(t, 1, f.inv.attached)
	assert.Len(t, f.inv.partParams[1], 2)
	assert.Len(t, f.inv.manufacturerParts, 1)
	assert.Len(t, f.inv.supplierParts, 1)
	assert.Len(t, f.inv.priceBreaks[f.inv.supplierParts[0].PK], 2)
}

func TestIngestIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.orc.Ingest(ctx, confirmedRequest())
	require.Equal(t, models.StatusCreated, first.Status)

	second := f.orc.Ingest(ctx, confirmedRequest())
	require.Equal(t, models.StatusExisting, second.Status)
	assert.Equal(t, first.IPN, second.IPN)
	assert.Equal(t, first.InventoryPK, second.InventoryPK)

	// No duplicate rows anywhere.
	assert.Equal(t, 1, f.inv.created)
	assert.Len(t, f.inv.partParams[first.InventoryPK], 2)
	assert.Len(t, f.inv.manufacturerParts, 1)
	assert.Len(t, f.inv.supplierParts, 1)
	assert.Len(t, f.inv.priceBreaks[f.inv.supplierParts[0].PK], 2)
}

func TestIngestResolvesCategoryWhenNotConfirmed(t *testing.T) {
	f := newFixture(t)

	req := confirmedRequest()
	req.Category, req.Subcategory = "", ""
	result := f.orc.Ingest(context.Background(), req)

	require.Equal(t, models.StatusCreated, result.Status)
	assert.Equal(t, "Capacitors", result.Part.Category)
	assert.Equal(t, "Ceramic", result.Part.Subcategory)
}

func TestIngestSentinelNeverOverwrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.orc.Ingest(ctx, confirmedRequest())
	require.Equal(t, models.StatusCreated, first.Status)

	// Second fetch has no parameters; they map to the placeholder.
	bare := supplierFixture()
	bare.Parameters = map[string]string{}
	f.gateway.part = bare

	req := confirmedRequest()
	req.UpdateParameters = true
	second := f.orc.Ingest(ctx, req)
	require.Equal(t, models.StatusExisting, second.Status)

	for _, p := range f.inv.partParams[first.InventoryPK] {
		assert.NotEqual(t, models.Sentinel, p.Data)
	}
}

func TestIngestImageWarningNonFatal(t *testing.T) {
	f := newFixture(t)
	f.fetcher.failTypes["image"] = true

	result := f.orc.Ingest(context.Background(), confirmedRequest())

	require.Equal(t, models.StatusCreated, result.Status)
	assert.Contains(t, result.Warnings, models.WarnImageDownloadFailed)
	// Everything else still attached.
	assert.Len(t, f.inv.supplierParts, 1)
	assert.Len(t, f.inv.priceBreaks[f.inv.supplierParts[0].PK], 2)
	assert.Equal(t, 1, f.inv.attached)
	assert.Equal(t, 0, f.inv.images)
}

func TestIngestNotFound(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = models.ErrNotFound
	f.gateway.part = models.SupplierPart{}

	result := f.orc.Ingest(context.Background(), confirmedRequest())
	require.Equal(t, models.StatusFailed, result.Status)
	assert.ErrorIs(t, result.Err, models.ErrNotFound)
	assert.Equal(t, 0, f.inv.created)
}

func TestIngestMissingCategoryFatal(t *testing.T) {
	f := newFixture(t)

	req := confirmedRequest()
	req.Category, req.Subcategory = "Inductors", ""
	result := f.orc.Ingest(context.Background(), req)

	require.Equal(t, models.StatusFailed, result.Status)
	var invErr *models.InventoryError
	require.ErrorAs(t, result.Err, &invErr)
	assert.Equal(t, models.StepMissingCategory, invErr.Step)
	assert.Equal(t, 0, f.inv.created)
}

func TestIngestPriceBreakReconciliation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.orc.Ingest(ctx, confirmedRequest())
	require.Equal(t, models.StatusCreated, first.Status)
	supplierPartPK := f.inv.supplierParts[0].PK
	require.Len(t, f.inv.priceBreaks[supplierPartPK], 2)

	// The qty-10 break disappears upstream and qty-1 gets cheaper.
	part := supplierFixture()
	part.Pricing = map[int]decimal.Decimal{1: decimal.RequireFromString("0.09")}
	f.gateway.part = part

	second := f.orc.Ingest(ctx, confirmedRequest())
	require.Equal(t, models.StatusExisting, second.Status)
	breaks := f.inv.priceBreaks[supplierPartPK]
	require.Len(t, breaks, 1)
	assert.Equal(t, 1, breaks[0].Quantity)
	assert.True(t, breaks[0].Price.Equal(decimal.RequireFromString("0.09")))

	// An empty incoming ladder is a no-op, not a mass delete.
	part.Pricing = nil
	f.gateway.part = part
	third := f.orc.Ingest(ctx, confirmedRequest())
	require.Equal(t, models.StatusExisting, third.Status)
	assert.Len(t, f.inv.priceBreaks[supplierPartPK], 1)
}

func TestIngestEmitsCADSymbol(t *testing.T) {
	f := newFixture(t)

	req := confirmedRequest()
	req.EnableCAD = true
	req.Symbol = "Device:C"
	req.Footprint = "Capacitor_SMD:C_0603_1608Metric"
	result := f.orc.Ingest(context.Background(), req)

	require.Equal(t, models.StatusCreated, result.Status)
	deleted, err := f.sink.DeleteSymbol(result.IPN, "Capacitors")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestIngestPublishesEvent(t *testing.T) {
	f := newFixture(t)

	result := f.orc.Ingest(context.Background(), confirmedRequest())
	require.Equal(t, models.StatusCreated, result.Status)

	require.Len(t, f.publisher.events, 1)
	event := f.publisher.events[0]
	assert.Equal(t, result.IPN, event.IPN)
	assert.Equal(t, result.InventoryPK, event.InventoryPK)
	assert.True(t, event.WasNew)
}

func TestIngestCustomSkipsSupplierLinkage(t *testing.T) {
	f := newFixture(t)

	req := confirmedRequest()
	req.IsCustom = true
	result := f.orc.Ingest(context.Background(), req)

	require.Equal(t, models.StatusCreated, result.Status)
	assert.Empty(t, f.inv.manufacturerParts)
	assert.Empty(t, f.inv.supplierParts)
	assert.Len(t, f.inv.partParams[result.InventoryPK], 2)
}
