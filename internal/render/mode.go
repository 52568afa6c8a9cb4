// Package render decides how an analysis result should be presented.
//
// The classification is a pure function kept outside the analysis contract:
// the rule can change without touching the schema, and the schema carries no
// presentation hints.
package render

import (
	"strings"

	"github.com/prabhuch28/ingredient-insights/internal/insight"
)

// Mode selects the rendering style for an analysis result.
type Mode string

const (
	// ModeHighlights renders per-ingredient concern cards.
	ModeHighlights Mode = "highlights"

	// ModeNutritionFacts renders the summary as nutrition-facts clauses;
	// used when the model fell back to summarizing a nutrition table.
	ModeNutritionFacts Mode = "nutrition_facts"
)

// nutritionFactsLabels are the highlight names that signal a nutrition-facts
// fallback rather than a true ingredient analysis. Matching is
// case-insensitive.
var nutritionFactsLabels = map[string]struct{}{
	"sodium":        {},
	"carbohydrates": {},
	"dietary fiber": {},
	"protein":       {},
	"fat":           {},
	"sugar":         {},
}

// Classify returns the rendering mode for a result: nutrition-facts when
// any highlight's ingredient name matches a nutrition-facts label,
// highlights otherwise. An empty highlight list always renders as
// highlights.
func Classify(result *insight.AnalysisResult) Mode {
	if result == nil {
		return ModeHighlights
	}
	for _, h := range result.Highlights {
		name := strings.ToLower(strings.TrimSpace(h.Ingredient))
		if _, ok := nutritionFactsLabels[name]; ok {
			return ModeNutritionFacts
		}
	}
	return ModeHighlights
}

// SummaryClauses splits a summary into its period-delimited clauses for the
// nutrition-facts view, dropping empty fragments.
func SummaryClauses(summary string) []string {
	parts := strings.Split(summary, ".")
	clauses := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			clauses = append(clauses, p)
		}
	}
	return clauses
}
