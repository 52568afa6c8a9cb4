package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prabhuch28/ingredient-insights/internal/insight"
)

func TestParseSessionID(t *testing.T) {
	id, err := parseSessionID("1755859200123")
	require.NoError(t, err)
	assert.Equal(t, int64(1755859200123), id)

	for _, arg := range []string{"", "abc", "-5", "0", "1.5"} {
		_, err := parseSessionID(arg)
		assert.Error(t, err, "arg %q", arg)
	}
}

func TestPrintResultHighlights(t *testing.T) {
	note := "The label was partially unreadable."
	result := &insight.AnalysisResult{
		Summary: "Contains an artificial color.",
		Highlights: []insight.Highlight{
			{Ingredient: "Red Dye 40", Reason: "artificial color", Confidence: insight.ConfidenceHigh},
		},
		UncertaintyNote:  &note,
		SuggestedActions: []string{"Look for a dye-free alternative."},
	}

	var sb strings.Builder
	printResult(&sb, result)
	out := sb.String()

	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "Contains an artificial color.")
	assert.Contains(t, out, "[high] Red Dye 40: artificial color")
	assert.Contains(t, out, "Note: The label was partially unreadable.")
	assert.Contains(t, out, "- Look for a dye-free alternative.")
}

func TestPrintResultNutritionFacts(t *testing.T) {
	result := &insight.AnalysisResult{
		Summary: "Calories 120. Sodium 200mg.",
		Highlights: []insight.Highlight{
			{Ingredient: "Sodium", Reason: "high per serving", Confidence: insight.ConfidenceHigh},
		},
	}

	var sb strings.Builder
	printResult(&sb, result)
	out := sb.String()

	assert.Contains(t, out, "Nutrition Facts")
	assert.Contains(t, out, "  Calories 120\n")
	assert.Contains(t, out, "  Sodium 200mg\n")
	assert.NotContains(t, out, "Summary\n")
}
