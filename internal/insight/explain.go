package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
)

// ExplainFlowName is the registered name of the explanation flow in Genkit.
const ExplainFlowName = "insights/explain"

// ErrEmptyIngredient indicates an explanation was requested without naming
// an ingredient. Rejected before any model call.
var ErrEmptyIngredient = errors.New("ingredient name required")

// explainSystemPrompt instructs the model to expand one highlight into a
// fuller explanation, keeping the cautious register of the analysis.
const explainSystemPrompt = `You are a cautious AI assistant explaining why a food ingredient is potentially concerning.

You will receive an ingredient name and the short reason it was highlighted. Provide a clear, concise explanation of why the ingredient is potentially concerning, along with a confidence level: high, medium, or low. If there is uncertainty in your explanation, state it in the uncertainty note; otherwise leave it null.`

// ExplainRequest asks for a deeper explanation of one highlighted
// ingredient. Reason carries the highlight's short justification and may be
// empty.
type ExplainRequest struct {
	Ingredient string `json:"ingredient"`
	Reason     string `json:"reason,omitempty"`
}

// Validate rejects requests that name no ingredient.
func (r ExplainRequest) Validate() error {
	if strings.TrimSpace(r.Ingredient) == "" {
		return ErrEmptyIngredient
	}
	return nil
}

// ExplainResult is the structured output of the explanation flow.
type ExplainResult struct {
	// Explanation expands the highlight's reason in plain language.
	Explanation string `json:"explanation"`

	// Confidence is the model's certainty in the explanation.
	Confidence Confidence `json:"confidence"`

	// UncertaintyNote states uncertainties in the explanation, or is null.
	UncertaintyNote *string `json:"uncertaintyNote" jsonschema:"nullable"`
}

// Validate checks the result's shape and enum constraints.
func (r *ExplainResult) Validate() error {
	if r == nil {
		return errors.New("nil explain result")
	}
	if r.Explanation == "" {
		return errors.New("explanation is required")
	}
	if !r.Confidence.Valid() {
		return fmt.Errorf("invalid confidence %q", r.Confidence)
	}
	return nil
}

// ExplainFlow is the type alias for the explanation Genkit flow.
type ExplainFlow = core.Flow[ExplainRequest, ExplainResult, struct{}]

var (
	explainFlowOnce sync.Once
	explainFlow     *ExplainFlow
)

// NewExplainFlow returns the explanation flow singleton, initializing it on
// first call.
func NewExplainFlow(g *genkit.Genkit, analyzer *Analyzer) *ExplainFlow {
	explainFlowOnce.Do(func() {
		explainFlow = genkit.DefineFlow(g, ExplainFlowName,
			func(ctx context.Context, req ExplainRequest) (ExplainResult, error) {
				result, err := analyzer.Explain(ctx, req)
				if err != nil {
					return ExplainResult{}, err
				}
				return *result, nil
			})
	})
	return explainFlow
}

// ResetExplainFlowForTesting resets the flow singleton so tests can register
// the flow against a fresh Genkit instance. Not safe for concurrent use.
func ResetExplainFlowForTesting() {
	explainFlowOnce = sync.Once{}
	explainFlow = nil
}

// Explain performs one blocking explanation round trip for a single
// highlight. Validation and failure semantics match Analyze: empty input
// never reaches the model, and output that does not coerce to the
// ExplainResult schema is ErrContractViolation.
func (a *Analyzer) Explain(ctx context.Context, req ExplainRequest) (*ExplainResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := "Ingredient: " + strings.TrimSpace(req.Ingredient)
	if reason := strings.TrimSpace(req.Reason); reason != "" {
		prompt += "\nReason: " + reason
	}

	start := time.Now()
	resp, err := genkit.Generate(ctx, a.g,
		ai.WithModel(a.model),
		ai.WithSystem(explainSystemPrompt),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(prompt))),
		ai.WithOutputType(ExplainResult{}),
	)
	if err != nil {
		return nil, fmt.Errorf("generating explanation: %w", err)
	}

	var result ExplainResult
	if err := resp.Output(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContractViolation, err)
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContractViolation, err)
	}

	a.logger.Debug("explanation completed",
		"ingredient", req.Ingredient,
		"confidence", result.Confidence,
		"duration", time.Since(start),
	)
	return &result, nil
}
