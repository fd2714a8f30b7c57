// Package orchestrator drives one part ingestion end to end: supplier
// lookup, category resolution, deduplication, shell-part creation, IPN
// minting and artifact attachment. The state machine is linear; fatal steps
// halt it, artifact failures become warnings and the run continues.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"partflow/internal/cad"
	"partflow/internal/category"
	"partflow/internal/configstore"
	"partflow/internal/inventory"
	"partflow/internal/ipn"
	"partflow/internal/mapping"
	"partflow/internal/models"
	"partflow/internal/util"
)

// Gateway fetches supplier records, cache-first.
type Gateway interface {
	Fetch(ctx context.Context, supplier, key string) (models.SupplierPart, error)
}

// Downloader fetches artifacts to local files.
type Downloader interface {
	Fetch(ctx context.Context, url, dest, wantType string) error
}

// Publisher emits ingestion events.
type Publisher interface {
	PublishPartIngested(ctx context.Context, event models.PartIngestedEvent) error
}

// Inventory is the slice of the inventory store the pipeline consumes.
// *inventory.Client implements it; tests use an in-memory fake.
type Inventory interface {
	ResolveCategoryPK(ctx context.Context, categoryName, subcategory string) (int, error)
	PartsByCategory(ctx context.Context, categoryPK int, cascade bool) ([]inventory.Part, error)
	Part(ctx context.Context, pk int) (inventory.Part, error)
	CreatePart(ctx context.Context, part inventory.NewPart) (inventory.Part, error)
	SetIPN(ctx context.Context, pk int, value string) error
	UploadImage(ctx context.Context, partPK int, path string) error
	UploadAttachment(ctx context.Context, partPK int, path, comment string) error
	ParameterTemplates(ctx context.Context) ([]inventory.ParameterTemplate, error)
	PartParameters(ctx context.Context, partPK int) ([]inventory.PartParameter, error)
	CreatePartParameter(ctx context.Context, partPK, templatePK int, value string) (inventory.PartParameter, error)
	UpdatePartParameter(ctx context.Context, parameterPK int, value string) error
	EnsureCompany(ctx context.Context, name string, isManufacturer, isSupplier bool) (int, error)
	ManufacturerParts(ctx context.Context, partPK int) ([]inventory.ManufacturerPart, error)
	FindManufacturerPart(ctx context.Context, manufacturer, mpn string) (*inventory.ManufacturerPart, error)
	CreateManufacturerPart(ctx context.Context, partPK, manufacturerPK int, mpn, link string) (inventory.ManufacturerPart, error)
	SupplierParts(ctx context.Context, partPK int) ([]inventory.SupplierPart, error)
	CreateSupplierPart(ctx context.Context, partPK, supplierPK int, sku, link string, manufacturerPartPK int) (inventory.SupplierPart, error)
	PriceBreaks(ctx context.Context, supplierPartPK int) ([]inventory.PriceBreak, error)
	CreatePriceBreak(ctx context.Context, supplierPartPK, quantity int, price decimal.Decimal, currency string) (inventory.PriceBreak, error)
	UpdatePriceBreak(ctx context.Context, breakPK int, price decimal.Decimal, currency string) error
	DeletePriceBreak(ctx context.Context, breakPK int) error
	ConvertCurrency(ctx context.Context, amount decimal.Decimal, from string) (decimal.Decimal, string, error)
}

// Request is one ingestion order. Category and Subcategory, when set, are
// taken as user-confirmed and bypass the resolver.
type Request struct {
	Supplier    string `json:"supplier"`
	Key         string `json:"key"`
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
	Symbol      string `json:"symbol,omitempty"`
	Footprint   string `json:"footprint,omitempty"`

	EnableCAD        bool `json:"enable_cad,omitempty"`
	IsCustom         bool `json:"is_custom,omitempty"`
	UpdateParameters bool `json:"update_parameters,omitempty"`
}

// Deps wires an Orchestrator. Sink and Publisher may be nil.
type Deps struct {
	Gateway     Gateway
	Store       *configstore.Store
	Inventory   Inventory
	Fetcher     Downloader
	Sink        cad.Sink
	Publisher   Publisher
	DownloadDir string
}

// Orchestrator runs ingestions. Safe for sequential use; one ingestion is
// single-threaded by design.
type Orchestrator struct {
	gateway     Gateway
	store       *configstore.Store
	inventory   Inventory
	fetcher     Downloader
	sink        cad.Sink
	publisher   Publisher
	mapper      *mapping.Engine
	downloadDir string
	logger      *zap.Logger
}

// New creates an orchestrator from its dependencies.
func New(deps Deps) *Orchestrator {
	return &Orchestrator{
		gateway:     deps.Gateway,
		store:       deps.Store,
		inventory:   deps.Inventory,
		fetcher:     deps.Fetcher,
		sink:        deps.Sink,
		publisher:   deps.Publisher,
		mapper:      mapping.NewEngine(),
		downloadDir: deps.DownloadDir,
		logger:      util.GetLogger(),
	}
}

// Ingest runs the full pipeline for one (supplier, key) pair.
func (o *Orchestrator) Ingest(ctx context.Context, req Request) models.IngestionResult {
	ctx, span := util.StartSpan(ctx, "Orchestrator.Ingest")
	defer span.End()

	o.logger.Info("Starting ingestion",
		zap.String("supplier", req.Supplier),
		zap.String("key", req.Key))

	part, err := o.gateway.Fetch(ctx, req.Supplier, req.Key)
	if err != nil {
		return o.fail(err)
	}

	cat, sub := req.Category, req.Subcategory
	if cat == "" {
		cat, sub, err = o.resolveCategory(req.Supplier, part)
		if err != nil {
			return o.fail(err)
		}
	}

	path := []string{cat}
	if sub != "" {
		path = append(path, sub)
	}
	paramMap, err := o.store.LoadParameterMap(req.Supplier, path)
	if err != nil {
		return o.fail(err)
	}

	internal := o.mapper.Map(part, cat, sub, paramMap)
	if req.Symbol != "" {
		internal.Parameters[models.ParamSymbol] = req.Symbol
	}
	if req.Footprint != "" {
		internal.Parameters[models.ParamFootprint] = req.Footprint
	}

	categoryPK, err := o.inventory.ResolveCategoryPK(ctx, cat, sub)
	if err != nil {
		return o.fail(&models.InventoryError{Step: models.StepCategoryLookup, Err: err})
	}
	if categoryPK == 0 {
		return o.fail(&models.InventoryError{
			Step: models.StepMissingCategory,
			Err:  fmt.Errorf("category %q / %q not present in inventory store", cat, sub),
		})
	}

	duplicate, err := o.findDuplicate(ctx, internal, categoryPK)
	if err != nil {
		return o.fail(&models.InventoryError{Step: models.StepDuplicateCheck, Err: err})
	}

	var partPK int
	wasNew := duplicate == nil
	hadImage := false
	if duplicate != nil {
		partPK = duplicate.PK
		internal.IPN = duplicate.IPN
		hadImage = duplicate.Image != ""
		o.logger.Info("Part already in inventory",
			zap.Int("pk", partPK),
			zap.String("ipn", internal.IPN))
	} else {
		partPK, err = o.createAndStamp(ctx, &internal, categoryPK)
		if err != nil {
			return o.fail(err)
		}
	}

	warnings := o.attachArtifacts(ctx, &internal, part, partPK, req, wasNew, hadImage)
	warnings = o.emitCAD(internal, req, warnings)
	warnings = o.publish(ctx, part, internal, partPK, wasNew, warnings)

	status := models.StatusExisting
	if wasNew {
		status = models.StatusCreated
		util.IngestionsCreatedTotal.Inc()
	} else {
		util.IngestionsExistingTotal.Inc()
	}
	o.logger.Info("Ingestion finished",
		zap.String("status", status),
		zap.String("ipn", internal.IPN),
		zap.Int("pk", partPK),
		zap.Int("warnings", len(warnings)))

	return models.IngestionResult{
		Status:      status,
		IPN:         internal.IPN,
		InventoryPK: partPK,
		Part:        &internal,
		Warnings:    warnings,
	}
}

// createAndStamp creates the shell part and mints and stores its IPN.
func (o *Orchestrator) createAndStamp(ctx context.Context, internal *models.InternalPart, categoryPK int) (int, error) {
	created, err := o.inventory.CreatePart(ctx, inventory.NewPart{
		Name:        internal.Name,
		Description: internal.Description,
		Revision:    internal.Revision,
		Keywords:    internal.Keywords,
		Category:    categoryPK,
	})
	if err != nil {
		return 0, &models.InventoryError{Step: models.StepCreateFailed, Err: err}
	}

	policy, err := o.store.LoadIPNPolicy()
	if err != nil {
		return 0, err
	}
	codes, err := o.store.LoadCategoryCodes()
	if err != nil {
		return 0, err
	}
	minted := ipn.Compose(internal.Category, created.PK, policy, codes)
	if minted == "" {
		return 0, &models.InventoryError{
			Step: models.StepIPNFailed,
			Err:  fmt.Errorf("could not mint IPN for part %d", created.PK),
		}
	}
	if err := o.inventory.SetIPN(ctx, created.PK, minted); err != nil {
		return 0, &models.InventoryError{Step: models.StepIPNFailed, Err: err}
	}
	internal.IPN = minted
	return created.PK, nil
}

// resolveCategory builds a resolver from the supplier's lookup tables and
// runs it. Config load failures are fatal; unresolvable parts surface later
// as a missing category.
func (o *Orchestrator) resolveCategory(supplierName string, part models.SupplierPart) (string, string, error) {
	inverted, err := o.store.InvertedCategoryMap(supplierName)
	if err != nil {
		return "", "", err
	}
	catMap, err := o.store.LoadSupplierCategoryMap(supplierName)
	if err != nil {
		return "", "", err
	}
	taxonomy, err := o.store.LoadTaxonomy()
	if err != nil {
		return "", "", err
	}
	opts, err := o.store.LoadSupplierOptions(supplierName)
	if err != nil {
		return "", "", err
	}

	resolver := category.NewResolver(category.Resolver{
		Inverted:        inverted,
		Map:             catMap,
		Taxonomy:        taxonomy,
		FilterParameter: opts.FilterParameter,
		Threshold:       opts.MatchThreshold,
		ParameterMap: func(cat string) map[string]string {
			m, err := o.store.LoadParameterMap(supplierName, []string{cat})
			if err != nil {
				return nil
			}
			return m
		},
	})
	cat, sub := resolver.Resolve(part)
	return cat, sub, nil
}

func (o *Orchestrator) fail(err error) models.IngestionResult {
	util.IngestionsFailedTotal.WithLabelValues(failureReason(err)).Inc()
	o.logger.Error("Ingestion failed", zap.Error(err))
	return models.Failed(err, nil)
}

func failureReason(err error) string {
	var invErr *models.InventoryError
	if errors.As(err, &invErr) {
		return invErr.Step
	}
	var cfgErr *models.ConfigError
	if errors.As(err, &cfgErr) {
		return "config_invalid"
	}
	var transportErr *models.TransportError
	if errors.As(err, &transportErr) {
		return "transport"
	}
	if errors.Is(err, models.ErrNotFound) {
		return "not_found"
	}
	return "other"
}
