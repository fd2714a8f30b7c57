package orchestrator

import (
	"context"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"partflow/internal/inventory"
	"partflow/internal/models"
	"partflow/internal/util"
)

// attachArtifacts runs the attachment steps in their fixed order:
// image, parameters, manufacturer link, supplier link, pricing, datasheet.
// Every failure is recorded as a warning; nothing here halts the run.
func (o *Orchestrator) attachArtifacts(ctx context.Context, internal *models.InternalPart, src models.SupplierPart, partPK int, req Request, wasNew, hadImage bool) []string {
	var warnings []string

	warnings = o.attachImage(ctx, internal, partPK, hadImage, warnings)
	warnings = o.attachParameters(ctx, internal, partPK, req.UpdateParameters, warnings)

	manufacturerPartPK := 0
	if !req.IsCustom {
		manufacturerPartPK, warnings = o.attachManufacturer(ctx, internal, src, partPK, warnings)
		var supplierPartPK int
		supplierPartPK, warnings = o.attachSupplier(ctx, src, partPK, manufacturerPartPK, warnings)
		warnings = o.attachPricing(ctx, src, supplierPartPK, warnings)
	}
	warnings = o.attachDatasheet(ctx, internal, partPK, wasNew, warnings)
	return warnings
}

func (o *Orchestrator) attachImage(ctx context.Context, internal *models.InternalPart, partPK int, hadImage bool, warnings []string) []string {
	if internal.ImageURL == "" || hadImage {
		return warnings
	}
	dest := filepath.Join(o.downloadDir, "images", artifactFileName(internal.Name, internal.ImageURL, ".jpg"))
	if err := o.fetcher.Fetch(ctx, internal.ImageURL, dest, "image"); err != nil {
		return o.warn(warnings, models.WarnImageDownloadFailed, err,
			zap.String("url", internal.ImageURL))
	}
	if err := o.inventory.UploadImage(ctx, partPK, dest); err != nil {
		return o.warn(warnings, models.WarnImageUploadFailed, err,
			zap.Int("part", partPK))
	}
	return warnings
}

func (o *Orchestrator) attachParameters(ctx context.Context, internal *models.InternalPart, partPK int, update bool, warnings []string) []string {
	if len(internal.Parameters) == 0 {
		return warnings
	}
	templates, err := o.inventory.ParameterTemplates(ctx)
	if err != nil {
		return o.warn(warnings, models.WarnParameterSkipped, err)
	}
	byName := make(map[string]inventory.ParameterTemplate, len(templates))
	for _, tpl := range templates {
		byName[tpl.Name] = tpl
	}

	existing, err := o.inventory.PartParameters(ctx, partPK)
	if err != nil {
		return o.warn(warnings, models.WarnParameterSkipped, err)
	}
	byTemplate := make(map[int]inventory.PartParameter, len(existing))
	for _, p := range existing {
		byTemplate[p.Template] = p
	}

	names := make([]string, 0, len(internal.Parameters))
	for name := range internal.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := internal.Parameters[name]
		tpl, ok := byName[name]
		if !ok {
			warnings = o.warn(warnings, models.WarnParameterTemplateMissing, nil,
				zap.String("parameter", name))
			continue
		}
		current, exists := byTemplate[tpl.PK]
		if !exists {
			if _, err := o.inventory.CreatePartParameter(ctx, partPK, tpl.PK, value); err != nil {
				warnings = o.warn(warnings, models.WarnParameterSkipped, err,
					zap.String("parameter", name))
			}
			continue
		}
		// The placeholder never overwrites a real value.
		if update && current.Data != value && value != models.Sentinel {
			if err := o.inventory.UpdatePartParameter(ctx, current.PK, value); err != nil {
				warnings = o.warn(warnings, models.WarnParameterSkipped, err,
					zap.String("parameter", name))
			}
		}
	}
	return warnings
}

func (o *Orchestrator) attachManufacturer(ctx context.Context, internal *models.InternalPart, src models.SupplierPart, partPK int, warnings []string) (int, []string) {
	if src.Manufacturer == "" || src.MPN == "" {
		return 0, warnings
	}
	links, err := o.inventory.ManufacturerParts(ctx, partPK)
	if err != nil {
		return 0, o.warn(warnings, models.WarnManufacturerLinkFailed, err)
	}
	for _, link := range links {
		if link.MPN == src.MPN {
			return link.PK, warnings
		}
	}

	companyPK, err := o.inventory.EnsureCompany(ctx, src.Manufacturer, true, false)
	if err != nil {
		return 0, o.warn(warnings, models.WarnManufacturerLinkFailed, err,
			zap.String("manufacturer", src.Manufacturer))
	}
	link := ""
	if validLink(internal.DatasheetURL) {
		link = internal.DatasheetURL
	}
	created, err := o.inventory.CreateManufacturerPart(ctx, partPK, companyPK, src.MPN, link)
	if err != nil {
		return 0, o.warn(warnings, models.WarnManufacturerLinkFailed, err,
			zap.String("mpn", src.MPN))
	}
	return created.PK, warnings
}

func (o *Orchestrator) attachSupplier(ctx context.Context, src models.SupplierPart, partPK, manufacturerPartPK int, warnings []string) (int, []string) {
	if src.Supplier == "" || src.SKU == "" {
		return 0, warnings
	}
	links, err := o.inventory.SupplierParts(ctx, partPK)
	if err != nil {
		return 0, o.warn(warnings, models.WarnSupplierLinkFailed, err)
	}
	for _, link := range links {
		if link.SKU == src.SKU {
			return link.PK, warnings
		}
	}

	companyPK, err := o.inventory.EnsureCompany(ctx, src.Supplier, false, true)
	if err != nil {
		return 0, o.warn(warnings, models.WarnSupplierLinkFailed, err,
			zap.String("supplier", src.Supplier))
	}
	link := ""
	if validLink(src.DetailURL) {
		link = src.DetailURL
	}
	created, err := o.inventory.CreateSupplierPart(ctx, partPK, companyPK, src.SKU, link, manufacturerPartPK)
	if err != nil {
		return 0, o.warn(warnings, models.WarnSupplierLinkFailed, err,
			zap.String("sku", src.SKU))
	}
	return created.PK, warnings
}

// attachPricing reconciles the supplier part's price breaks with the
// incoming ladder. An empty incoming ladder leaves stored breaks alone.
func (o *Orchestrator) attachPricing(ctx context.Context, src models.SupplierPart, supplierPartPK int, warnings []string) []string {
	if len(src.Pricing) == 0 || supplierPartPK == 0 {
		return warnings
	}
	stored, err := o.inventory.PriceBreaks(ctx, supplierPartPK)
	if err != nil {
		return o.warn(warnings, models.WarnPriceBreakSkipped, err)
	}
	byQuantity := make(map[int]inventory.PriceBreak, len(stored))
	for _, pb := range stored {
		byQuantity[pb.Quantity] = pb
	}

	seen := map[int]bool{}
	for _, quantity := range src.PriceBreakQuantities() {
		seen[quantity] = true
		price, currency, err := o.inventory.ConvertCurrency(ctx, src.Pricing[quantity], src.Currency)
		if err != nil {
			warnings = o.warn(warnings, models.WarnPriceBreakSkipped, err,
				zap.Int("quantity", quantity))
			continue
		}
		if existing, ok := byQuantity[quantity]; ok {
			if !existing.Price.Equal(price) {
				if err := o.inventory.UpdatePriceBreak(ctx, existing.PK, price, currency); err != nil {
					warnings = o.warn(warnings, models.WarnPriceBreakSkipped, err,
						zap.Int("quantity", quantity))
				}
			}
			continue
		}
		if _, err := o.inventory.CreatePriceBreak(ctx, supplierPartPK, quantity, price, currency); err != nil {
			warnings = o.warn(warnings, models.WarnPriceBreakSkipped, err,
				zap.Int("quantity", quantity))
		}
	}
	for _, pb := range stored {
		if !seen[pb.Quantity] {
			if err := o.inventory.DeletePriceBreak(ctx, pb.PK); err != nil {
				warnings = o.warn(warnings, models.WarnPriceBreakSkipped, err,
					zap.Int("quantity", pb.Quantity))
			}
		}
	}
	return warnings
}

func (o *Orchestrator) attachDatasheet(ctx context.Context, internal *models.InternalPart, partPK int, wasNew bool, warnings []string) []string {
	if internal.DatasheetURL == "" || !wasNew {
		return warnings
	}
	dest := filepath.Join(o.downloadDir, "datasheets", artifactFileName(internal.Name, internal.DatasheetURL, ".pdf"))
	if err := o.fetcher.Fetch(ctx, internal.DatasheetURL, dest, "application"); err != nil {
		return o.warn(warnings, models.WarnDatasheetDownloadFailed, err,
			zap.String("url", internal.DatasheetURL))
	}
	if err := o.inventory.UploadAttachment(ctx, partPK, dest, "Datasheet"); err != nil {
		return o.warn(warnings, models.WarnDatasheetUploadFailed, err,
			zap.Int("part", partPK))
	}
	return warnings
}

// emitCAD records the symbol with the CAD sink when requested and wired.
func (o *Orchestrator) emitCAD(internal models.InternalPart, req Request, warnings []string) []string {
	if !req.EnableCAD || o.sink == nil {
		return warnings
	}
	general, err := o.store.LoadGeneral()
	if err != nil {
		return o.warn(warnings, models.WarnCADSymbolFailed, err)
	}
	library := general.SymbolLibrary
	if library == "" {
		library = internal.Category
	}
	if _, _, err := o.sink.AddSymbol(internal, library, general.SymbolTemplate); err != nil {
		return o.warn(warnings, models.WarnCADSymbolFailed, err,
			zap.String("library", library))
	}
	return warnings
}

// publish emits the part.ingested event; failures never affect the result.
func (o *Orchestrator) publish(ctx context.Context, src models.SupplierPart, internal models.InternalPart, partPK int, wasNew bool, warnings []string) []string {
	if o.publisher == nil {
		return warnings
	}
	event := models.PartIngestedEvent{
		Supplier:    src.Supplier,
		SKU:         src.SKU,
		MPN:         src.MPN,
		IPN:         internal.IPN,
		InventoryPK: partPK,
		WasNew:      wasNew,
	}
	if err := o.publisher.PublishPartIngested(ctx, event); err != nil {
		return o.warn(warnings, models.WarnEventPublishFailed, err)
	}
	return warnings
}

func (o *Orchestrator) warn(warnings []string, kind string, err error, fields ...zap.Field) []string {
	util.ArtifactWarningsTotal.WithLabelValues(kind).Inc()
	fields = append(fields, zap.String("kind", kind))
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	o.logger.Warn("Artifact step failed", fields...)
	return append(warnings, kind)
}

// artifactFileName derives a stable local file name for a part artifact,
// keeping the remote extension when it has one.
func artifactFileName(partName, remoteURL, fallbackExt string) string {
	ext := fallbackExt
	if u, err := url.Parse(remoteURL); err == nil {
		if e := path.Ext(u.Path); e != "" {
			ext = e
		}
	}
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, partName)
	return cleaned + ext
}

func validLink(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
