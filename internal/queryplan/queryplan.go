// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package queryplan derives literature query variants from a candidate.
//
// The planner classifies the target condition into a clinical-endpoint
// category by keyword rules and emits 2–4 query variants differentiated
// by retrieval strategy. Planning is deterministic given the same keyword
// tables and has no side effects. The endpoint keyword tables live here
// and are shared with the quality gate's topic matching.
package queryplan

import (
	"strings"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// endpointKeywords maps each endpoint category to the lowercase keywords
// that signal it, in condition text and in claim/abstract text.
var endpointKeywords = map[types.EndpointCategory][]string{
	types.EndpointImaging: {
		"calcification", "calcium score", "plaque", "imaging",
		"computed tomography", "mri", "lesion", "stenosis",
		"densitometry", "angiograph",
	},
	types.EndpointFunctional: {
		"function", "symptom", "cognition", "cognitive", "walking",
		"pain", "fatigue", "quality of life", "scale", "mobility",
	},
	types.EndpointEvent: {
		"mortality", "death", "myocardial infarction", "stroke",
		"hospitalization", "survival", "fracture", "event rate",
		"progression to", "incidence",
	},
}

// Keywords returns the topic keywords for a category. EndpointOther has
// none: no topical penalty applies when no category-specific vocabulary
// exists.
func Keywords(category types.EndpointCategory) []string {
	return endpointKeywords[category]
}

// Classify assigns the endpoint category whose keywords hit the
// condition text most often. Categories are evaluated in a fixed order
// (imaging, functional, event) and only a strictly greater hit count
// displaces an earlier winner, so classification is deterministic.
// No hits means EndpointOther.
func Classify(condition string) types.EndpointCategory {
	text := strings.ToLower(condition)

	best := types.EndpointOther
	bestHits := 0
	for _, category := range []types.EndpointCategory{
		types.EndpointImaging, types.EndpointFunctional, types.EndpointEvent,
	} {
		hits := 0
		for _, kw := range endpointKeywords[category] {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best = category
			bestHits = hits
		}
	}
	return best
}

// Plan produces the query variants for a candidate. When hint is a valid
// category it overrides classification. The endpoint-narrowed variant is
// omitted for EndpointOther, leaving the mechanism-generic and
// cross-condition variants plus a plain conjunction.
func Plan(c types.Candidate, hint types.EndpointCategory) []types.QueryVariant {
	category := hint
	if _, ok := endpointKeywords[category]; !ok && category != types.EndpointOther {
		category = Classify(c.Condition)
	}

	var variants []types.QueryVariant

	if kws := endpointKeywords[category]; len(kws) > 0 {
		variants = append(variants, types.QueryVariant{
			Kind:     types.VariantEndpoint,
			Category: category,
			Query:    c.Name + " AND " + c.Condition + " AND (" + orClause(kws[:3]) + ")",
		})
	}

	variants = append(variants,
		types.QueryVariant{
			Kind:     types.VariantMechanism,
			Category: category,
			Query:    c.Name + " AND " + c.Condition + " AND (mechanism OR pathway OR treatment)",
		},
		types.QueryVariant{
			Kind:     types.VariantCrossCondition,
			Category: category,
			Query:    c.Name + " AND " + broadTerm(c.Condition),
		},
	)

	if len(endpointKeywords[category]) == 0 {
		// No endpoint variant existed; keep a plain conjunction so the
		// condition-specific signal is not lost entirely.
		variants = append(variants, types.QueryVariant{
			Kind:     types.VariantEndpoint,
			Category: category,
			Query:    c.Name + " AND " + c.Condition,
		})
	}

	return variants
}

// orClause joins keywords with OR for a boolean query fragment.
func orClause(kws []string) string {
	return strings.Join(kws, " OR ")
}

// broadTerm widens the condition to its head term (the last word) so the
// cross-condition variant catches indirect evidence, e.g. "coronary
// artery calcification" → "calcification".
func broadTerm(condition string) string {
	fields := strings.Fields(condition)
	if len(fields) == 0 {
		return condition
	}
	return fields[len(fields)-1]
}
