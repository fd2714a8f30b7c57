package category

import (
	"testing"

	"partflow/internal/models"

	"github.com/stretchr/testify/assert"
)

func testTaxonomy() []*models.CategoryNode {
	caps := &models.CategoryNode{Name: "Capacitors"}
	caps.Children = []*models.CategoryNode{
		{Name: "Ceramic", Parent: caps},
		{Name: "Electrolytic", Parent: caps},
	}
	ics := &models.CategoryNode{Name: "Integrated Circuits"}
	ics.Children = []*models.CategoryNode{
		{Name: "Buffer", Parent: ics},
		{Name: "Logic Gates", Parent: ics},
	}
	return []*models.CategoryNode{caps, ics}
}

func testResolver() *Resolver {
	return NewResolver(Resolver{
		Inverted: map[string]models.CategoryTarget{
			"Ceramic Capacitors": {Category: "Capacitors", Subcategory: "Ceramic"},
			"Logic - Buffers, Drivers, Receivers, Transceivers": {
				Category: "Integrated Circuits", Subcategory: "__Buffer",
			},
		},
		Map: models.CategoryMap{
			"Capacitors": {
				"Ceramic": {"Ceramic Capacitors"},
			},
			"Integrated Circuits": {
				"__Buffer":      {"Logic - Buffers, Drivers, Receivers, Transceivers"},
				"__Logic Gates": {"Logic - Gates and Inverters"},
			},
		},
		Taxonomy: testTaxonomy(),
		ParameterMap: func(category string) map[string]string {
			if category == "Integrated Circuits" {
				return map[string]string{"Logic Type": "Function Type"}
			}
			return nil
		},
	})
}

func TestResolveExactMapHit(t *testing.T) {
	r := testResolver()
	cat, sub := r.Resolve(models.SupplierPart{
		Category:    "Capacitors",
		Subcategory: "Ceramic Capacitors",
		MPN:         "C0603C0G1E101J030BA",
	})
	assert.Equal(t, "Capacitors", cat)
	assert.Equal(t, "Ceramic", sub)
}

func TestResolveFunctionFilteredSubcategory(t *testing.T) {
	r := testResolver()
	cat, sub := r.Resolve(models.SupplierPart{
		Category:    "Integrated Circuits (ICs)",
		Subcategory: "Logic - Buffers, Drivers, Receivers, Transceivers",
		Parameters:  map[string]string{"Function Type": "Buffer"},
	})
	assert.Equal(t, "Integrated Circuits", cat)
	assert.Equal(t, "Buffer", sub)
}

func TestResolveFunctionFilterViaParameterMap(t *testing.T) {
	// The supplier reports the function under its own name; the parameter
	// map routes it onto the canonical filter parameter.
	r := testResolver()
	cat, sub := r.Resolve(models.SupplierPart{
		Subcategory: "Logic - Buffers, Drivers, Receivers, Transceivers",
		Parameters:  map[string]string{"Logic Type": "Buffer"},
	})
	assert.Equal(t, "Integrated Circuits", cat)
	assert.Equal(t, "Buffer", sub)
}

func TestResolveFunctionFilterInconclusive(t *testing.T) {
	// No filter parameter at all: the category survives, the subcategory
	// stays open for the human.
	r := testResolver()
	cat, sub := r.Resolve(models.SupplierPart{
		Subcategory: "Logic - Buffers, Drivers, Receivers, Transceivers",
		Parameters:  map[string]string{},
	})
	assert.Equal(t, "Integrated Circuits", cat)
	assert.Equal(t, "", sub)
}

func TestResolveFuzzyCategory(t *testing.T) {
	r := testResolver()
	// "Capacitors" appears verbatim inside the supplier string, so the
	// partial ratio is 100 at category level.
	cat, sub := r.Resolve(models.SupplierPart{
		Category:    "Capacitors - Aluminum",
		Subcategory: "Electrolytic - Leaded",
	})
	assert.Equal(t, "Capacitors", cat)
	assert.Equal(t, "Electrolytic", sub)
}

func TestResolveFuzzySubcategoryFixesCategory(t *testing.T) {
	r := testResolver()
	// Nothing matches at category level; the subcategory match carries its
	// parent category along.
	cat, sub := r.Resolve(models.SupplierPart{
		Category:    "Passive Components",
		Subcategory: "Ceramic - SMD",
	})
	assert.Equal(t, "Capacitors", cat)
	assert.Equal(t, "Ceramic", sub)
}

func TestResolveNothingMatches(t *testing.T) {
	r := testResolver()
	cat, sub := r.Resolve(models.SupplierPart{
		Category:    "Quantum Widgets",
		Subcategory: "Unobtainium",
	})
	assert.Equal(t, "", cat)
	assert.Equal(t, "", sub)
}

func TestResolveMissingTablesDegradeToNull(t *testing.T) {
	r := NewResolver(Resolver{})
	cat, sub := r.Resolve(models.SupplierPart{Category: "Capacitors", Subcategory: "Ceramic"})
	assert.Equal(t, "", cat)
	assert.Equal(t, "", sub)
}

func TestPartialRatio(t *testing.T) {
	assert.Equal(t, 100, PartialRatio("Buffer", "Buffer"))
	assert.Equal(t, 100, PartialRatio("Capacitors", "Capacitors - Aluminum"))
	assert.Equal(t, 0, PartialRatio("", "anything"))
	assert.Less(t, PartialRatio("Buffer", "Oscillator"), 100)
}
