// Package category places a supplier-reported category pair into the
// internal taxonomy. Three tiers run in order, halting on first success:
// exact map hit, parameter-driven function filter, approximate string match.
package category

import (
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"go.uber.org/zap"

	"partflow/internal/models"
	"partflow/internal/util"
)

// Scorer rates the similarity of two strings on a 0-100 scale.
type Scorer func(a, b string) int

// PartialRatio is the default scorer.
func PartialRatio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	return fuzzy.PartialRatio(a, b)
}

// DefaultFilterParameter is the canonical parameter deciding
// function-filtered subcategories.
const DefaultFilterParameter = "Function Type"

// Resolver holds the per-supplier lookup tables. Missing tables degrade to
// the null pair; the resolver never fails.
type Resolver struct {
	// Inverted maps supplier subcategory strings to internal targets.
	Inverted map[string]models.CategoryTarget
	// Map is the forward supplier category map, consulted for
	// function-filtered groups.
	Map models.CategoryMap
	// Taxonomy is the internal category forest.
	Taxonomy []*models.CategoryNode
	// ParameterMap loads the supplier-parameter translation for a category.
	// May be nil.
	ParameterMap func(category string) map[string]string
	// FilterParameter is the canonical parameter name driving Tier B.
	FilterParameter string
	// Threshold is the minimum accepted score; 100 means exact.
	Threshold int
	// Score rates candidate strings; defaults to PartialRatio.
	Score Scorer

	logger *zap.Logger
}

// NewResolver applies defaults for the tunable fields.
func NewResolver(r Resolver) *Resolver {
	if r.FilterParameter == "" {
		r.FilterParameter = DefaultFilterParameter
	}
	if r.Threshold <= 0 {
		r.Threshold = 100
	}
	if r.Score == nil {
		r.Score = PartialRatio
	}
	r.logger = util.GetLogger()
	return &r
}

// Resolve returns the best internal (category, subcategory) pair for a
// supplier part. Either or both may be empty; the caller is expected to ask
// a human when blanks remain.
func (r *Resolver) Resolve(part models.SupplierPart) (string, string) {
	// Tier A: exact inverted-map hit.
	if target, ok := r.Inverted[part.Subcategory]; ok {
		if !strings.HasPrefix(target.Subcategory, models.FunctionFilterSigil) {
			return target.Category, target.Subcategory
		}

		// Tier B: the map fixed the category but the subcategory depends on
		// a parameter value.
		category := target.Category
		if sub := r.resolveFunctionFilter(part, category); sub != "" {
			return category, sub
		}
		// The subcategory stays open for the human: the supplier string
		// already matched the map exactly, so re-scoring it fuzzily would
		// only echo the function-filtered entry back.
		r.logger.Debug("Function filter inconclusive",
			zap.String("category", category))
		return category, ""
	}

	// Tier C: fuzzy match, first on the category string, then retried with
	// the subcategory string for whatever is still open.
	cat, sub := r.fuzzyMatch(part.Category, "")
	if cat == "" || sub == "" {
		cat2, sub2 := r.fuzzyMatch(part.Subcategory, cat)
		if cat == "" {
			cat = cat2
		}
		if sub == "" {
			sub = sub2
		}
	}
	return cat, sub
}

// resolveFunctionFilter scores each function-filtered subcategory of the
// category against the values the supplier reported for the filter
// parameter.
func (r *Resolver) resolveFunctionFilter(part models.SupplierPart, category string) string {
	var values []string
	if r.ParameterMap != nil {
		for supplierParam, canonical := range r.ParameterMap(category) {
			if canonical != r.FilterParameter {
				continue
			}
			if v, ok := part.Parameters[supplierParam]; ok && v != "" {
				values = append(values, v)
			}
		}
	}
	// The supplier may also report the filter parameter under its canonical
	// name directly.
	if v, ok := part.Parameters[r.FilterParameter]; ok && v != "" {
		values = append(values, v)
	}
	if len(values) == 0 {
		return ""
	}
	sort.Strings(values)

	group := functionFilteredGroup(r.Map, category)
	for _, candidate := range group {
		for _, v := range values {
			if r.Score(candidate, v) >= r.Threshold {
				return candidate
			}
		}
	}
	return ""
}

// fuzzyMatch scores input against the taxonomy. With an empty fixed
// category it may match at either level, recording the best category and
// subcategory independently; with a fixed category only that category's
// subcategories are considered and the returned category is always empty.
func (r *Resolver) fuzzyMatch(input, fixed string) (string, string) {
	if strings.TrimSpace(input) == "" {
		return "", ""
	}

	roots := r.Taxonomy
	if fixed != "" {
		node := findRoot(r.Taxonomy, fixed)
		if node == nil {
			return "", ""
		}
		roots = []*models.CategoryNode{node}
	}

	var bestCat, bestSub, bestSubParent string
	catScore, subScore := 0, 0
	for _, n := range roots {
		if fixed == "" {
			if s := r.Score(input, n.Name); s > catScore {
				catScore, bestCat = s, n.Name
			}
		}
		for _, c := range n.Children {
			if s := r.Score(input, c.Name); s > subScore {
				subScore, bestSub, bestSubParent = s, c.Name, n.Name
			}
		}
	}

	if fixed == "" && catScore >= r.Threshold {
		return bestCat, ""
	}

	var cat, sub string
	if subScore >= r.Threshold {
		sub = bestSub
		if fixed == "" {
			cat = bestSubParent
		}
	}
	return cat, sub
}

func functionFilteredGroup(m models.CategoryMap, category string) []string {
	var group []string
	for subcategory := range m[category] {
		if strings.HasPrefix(subcategory, models.FunctionFilterSigil) {
			group = append(group, strings.TrimPrefix(subcategory, models.FunctionFilterSigil))
		}
	}
	sort.Strings(group)
	return group
}

func findRoot(forest []*models.CategoryNode, name string) *models.CategoryNode {
	for _, n := range forest {
		if n.Name == name {
			return n
		}
	}
	return nil
}
