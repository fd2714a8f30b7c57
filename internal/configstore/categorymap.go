package configstore

import (
	"fmt"
	"strings"

	"partflow/internal/models"
)

// LoadSupplierCategoryMap reads <supplier>_categories.yaml:
// internal category -> internal subcategory -> supplier subcategory strings.
// Subcategory keys prefixed with the function-filter sigil mark entries whose
// final match is parameter-driven.
func (s *Store) LoadSupplierCategoryMap(supplier string) (models.CategoryMap, error) {
	m := models.CategoryMap{}
	if err := s.decodeMerged(supplierFile(filePatCategory, supplier), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// InvertedCategoryMap flips a supplier category map into
// supplier-subcategory-string -> internal (category, subcategory).
// Function-filtered targets keep their sigil so the resolver can tell them
// apart from plain matches.
func (s *Store) InvertedCategoryMap(supplier string) (map[string]models.CategoryTarget, error) {
	m, err := s.LoadSupplierCategoryMap(supplier)
	if err != nil {
		return nil, err
	}
	inverted := make(map[string]models.CategoryTarget)
	for category, subs := range m {
		for subcategory, supplierNames := range subs {
			for _, name := range supplierNames {
				inverted[name] = models.CategoryTarget{
					Category:    category,
					Subcategory: subcategory,
				}
			}
		}
	}
	return inverted, nil
}

// FunctionFilteredGroup lists the subcategories of an internal category whose
// map entries carry the function-filter sigil, with the sigil stripped.
func FunctionFilteredGroup(m models.CategoryMap, category string) []string {
	var group []string
	for subcategory := range m[category] {
		if strings.HasPrefix(subcategory, models.FunctionFilterSigil) {
			group = append(group, strings.TrimPrefix(subcategory, models.FunctionFilterSigil))
		}
	}
	return group
}

func supplierFile(pattern, supplier string) string {
	return fmt.Sprintf(pattern, strings.ToLower(supplier))
}
