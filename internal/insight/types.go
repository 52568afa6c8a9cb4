// Package insight implements the structured ingredient-analysis contract:
// the request and result schemas exchanged with the model, the request
// builder that validates and encodes user input, and the Genkit flow that
// performs the analysis call.
package insight

import (
	"errors"
	"fmt"
)

// Confidence is the coarse three-valued certainty label attached to a
// highlight. No other value is valid.
type Confidence string

// Valid confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether c is one of the three accepted levels.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// Sentinel errors for the analysis contract. Check with errors.Is().
var (
	// ErrEmptyInput indicates neither ingredient text nor a photo was
	// provided. The request is rejected before any model call.
	ErrEmptyInput = errors.New("ingredient text or photo required")

	// ErrContractViolation indicates the model output failed schema
	// coercion. Not a retry condition.
	ErrContractViolation = errors.New("model output violates analysis schema")
)

// AnalysisRequest is the validated input handed to the model.
// At least one field must be present and non-empty.
type AnalysisRequest struct {
	// IngredientsText is the raw ingredient list to analyze.
	IngredientsText string `json:"ingredientsText,omitempty"`

	// PhotoDataURI is a photo of a food label as a base64 data URI:
	// "data:<mimetype>;base64,<encoded_data>".
	PhotoDataURI string `json:"photoDataUri,omitempty"`
}

// Validate enforces the OR-invariant: absence of both fields is a
// validation failure.
func (r AnalysisRequest) Validate() error {
	if r.IngredientsText == "" && r.PhotoDataURI == "" {
		return ErrEmptyInput
	}
	return nil
}

// Highlight is one ingredient-level concern entry.
type Highlight struct {
	// Ingredient is the name of the flagged ingredient.
	Ingredient string `json:"ingredient"`

	// Reason explains in plain language why the ingredient may concern a
	// health-conscious reader.
	Reason string `json:"reason"`

	// Confidence is the model's certainty in this assessment.
	Confidence Confidence `json:"confidence"`
}

// AnalysisResult is the structured output the model must conform to.
type AnalysisResult struct {
	// Summary is a high-level overview of the analysis. When the model falls
	// back to a nutrition-facts table it packs 1-3 components here as
	// period-delimited clauses; that shape is a presentation convention,
	// not a schema field.
	Summary string `json:"summary"`

	// Highlights lists concerning ingredients, possibly empty.
	Highlights []Highlight `json:"highlights"`

	// UncertaintyNote states uncertainties in the analysis, or is null.
	UncertaintyNote *string `json:"uncertaintyNote" jsonschema:"nullable"`

	// SuggestedActions lists follow-up actions, possibly empty.
	SuggestedActions []string `json:"suggestedActions"`
}

// Validate checks the result's shape and enum constraints. It judges only
// whether the output coerces to the contract, not whether it is true.
func (r *AnalysisResult) Validate() error {
	if r == nil {
		return errors.New("nil analysis result")
	}
	if r.Summary == "" {
		return errors.New("summary is required")
	}
	for i, h := range r.Highlights {
		if h.Ingredient == "" {
			return fmt.Errorf("highlight %d missing ingredient name", i)
		}
		if !h.Confidence.Valid() {
			return fmt.Errorf("highlight %d (%s) has invalid confidence %q", i, h.Ingredient, h.Confidence)
		}
	}
	return nil
}
