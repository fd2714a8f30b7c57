package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"partflow/internal/inventory"
	"partflow/internal/models"
)

// findDuplicate looks for an inventory part already representing the new
// part. Primary check: parameter equality against every candidate under the
// resolved category (filter-list parameters when the category has a filter
// list, all parameters otherwise). Secondary check: an existing
// manufacturer-part record with the same (manufacturer, MPN) pair. Parts
// whose parameters are all the placeholder skip the primary check.
func (o *Orchestrator) findDuplicate(ctx context.Context, internal models.InternalPart, categoryPK int) (*inventory.Part, error) {
	if len(internal.Parameters) > 0 && !internal.AllSentinel() {
		candidates, err := o.inventory.PartsByCategory(ctx, categoryPK, true)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			filter, err := o.store.LoadParameterFilters(internal.Category)
			if err != nil {
				return nil, err
			}
			names, err := o.templateNames(ctx)
			if err != nil {
				return nil, err
			}
			for i := range candidates {
				stored, err := o.storedParameters(ctx, candidates[i].PK, names)
				if err != nil {
					return nil, err
				}
				if parametersMatch(internal.Parameters, stored, filter) {
					o.logger.Info("Duplicate detected by parameter match",
						zap.Int("pk", candidates[i].PK),
						zap.Int("filter_size", len(filter)))
					return &candidates[i], nil
				}
			}
		}
	}

	manufacturer, mpn := internal.FirstMPN()
	if manufacturer == "" || mpn == "" {
		return nil, nil
	}
	link, err := o.inventory.FindManufacturerPart(ctx, manufacturer, mpn)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, nil
	}
	part, err := o.inventory.Part(ctx, link.Part)
	if err != nil {
		return nil, err
	}
	o.logger.Info("Duplicate detected by manufacturer part",
		zap.Int("pk", part.PK),
		zap.String("mpn", mpn))
	return &part, nil
}

// templateNames maps template pk to template name.
func (o *Orchestrator) templateNames(ctx context.Context) (map[int]string, error) {
	templates, err := o.inventory.ParameterTemplates(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(templates))
	for _, tpl := range templates {
		names[tpl.PK] = tpl.Name
	}
	return names, nil
}

// storedParameters reads a candidate's parameters keyed by canonical name.
func (o *Orchestrator) storedParameters(ctx context.Context, partPK int, names map[int]string) (map[string]string, error) {
	parameters, err := o.inventory.PartParameters(ctx, partPK)
	if err != nil {
		return nil, err
	}
	stored := make(map[string]string, len(parameters))
	for _, p := range parameters {
		if name, ok := names[p.Template]; ok {
			stored[name] = p.Data
		}
	}
	return stored, nil
}

// parametersMatch applies the deduplication predicate. A parameter missing
// on either side is a non-match.
func parametersMatch(incoming, stored map[string]string, filter []string) bool {
	if len(filter) > 0 {
		for _, name := range filter {
			newValue, okNew := incoming[name]
			storedValue, okStored := stored[name]
			if !okNew || !okStored || newValue != storedValue {
				return false
			}
		}
		return true
	}
	if len(incoming) == 0 {
		return false
	}
	for name, newValue := range incoming {
		storedValue, ok := stored[name]
		if !ok || newValue != storedValue {
			return false
		}
	}
	return true
}
