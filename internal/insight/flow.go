package insight

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
)

// FlowName is the registered name of the analysis flow in Genkit.
const FlowName = "insights/analyze"

// DefaultTimeout bounds the model round trip when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Flow is the type alias for the analysis Genkit flow, exported for use with
// genkit.Handler().
type Flow = core.Flow[AnalysisRequest, AnalysisResult, struct{}]

// Flow singleton: genkit.DefineFlow panics on re-registration, so the flow
// is defined once per process.
var (
	flowOnce sync.Once
	flow     *Flow
)

// Analyzer performs the structured analysis call against the model.
// It is stateless and safe for concurrent use.
type Analyzer struct {
	g       *genkit.Genkit
	model   ai.ModelRef
	timeout time.Duration
	logger  *slog.Logger
}

// NewAnalyzer creates an Analyzer bound to the given model reference.
// timeout <= 0 falls back to DefaultTimeout.
func NewAnalyzer(g *genkit.Genkit, model ai.ModelRef, timeout time.Duration, logger *slog.Logger) *Analyzer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{g: g, model: model, timeout: timeout, logger: logger}
}

// NewFlow returns the analysis flow singleton, initializing it on first
// call. Subsequent calls return the existing flow.
func NewFlow(g *genkit.Genkit, analyzer *Analyzer) *Flow {
	flowOnce.Do(func() {
		flow = genkit.DefineFlow(g, FlowName,
			func(ctx context.Context, req AnalysisRequest) (AnalysisResult, error) {
				result, err := analyzer.Analyze(ctx, req)
				if err != nil {
					return AnalysisResult{}, err
				}
				return *result, nil
			})
	})
	return flow
}

// ResetFlowForTesting resets the flow singleton so tests can register the
// flow against a fresh Genkit instance. Not safe for concurrent use.
func ResetFlowForTesting() {
	flowOnce = sync.Once{}
	flow = nil
}

// Analyze performs one blocking analysis round trip.
//
// The request is validated first (ErrEmptyInput short-circuits before any
// model call). Output that does not coerce to the AnalysisResult schema is
// ErrContractViolation and is never retried. There is no streaming; the call
// is bounded by the configured timeout.
func (a *Analyzer) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	parts := make([]*ai.Part, 0, 2)
	if req.PhotoDataURI != "" {
		parts = append(parts, ai.NewMediaPart(mimeFromDataURI(req.PhotoDataURI), req.PhotoDataURI))
	}
	if req.IngredientsText != "" {
		parts = append(parts, ai.NewTextPart("Ingredient list:\n"+req.IngredientsText))
	} else {
		parts = append(parts, ai.NewTextPart("Analyze the attached food label photo."))
	}

	start := time.Now()
	resp, err := genkit.Generate(ctx, a.g,
		ai.WithModel(a.model),
		ai.WithSystem(analysisSystemPrompt),
		ai.WithMessages(ai.NewUserMessage(parts...)),
		ai.WithOutputType(AnalysisResult{}),
	)
	if err != nil {
		return nil, fmt.Errorf("generating analysis: %w", err)
	}

	var result AnalysisResult
	if err := resp.Output(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContractViolation, err)
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContractViolation, err)
	}

	a.logger.Debug("analysis completed",
		"highlights", len(result.Highlights),
		"actions", len(result.SuggestedActions),
		"duration", time.Since(start),
	)
	return &result, nil
}
