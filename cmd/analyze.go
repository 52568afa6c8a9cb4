package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prabhuch28/ingredient-insights/internal/app"
	"github.com/prabhuch28/ingredient-insights/internal/config"
	"github.com/prabhuch28/ingredient-insights/internal/insight"
	"github.com/prabhuch28/ingredient-insights/internal/render"
)

var analyzeImagePath string

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ingredients...]",
	Short: "Analyze an ingredient list from text or a label photo",
	Long: `Analyze sends an ingredient list to the AI model and prints a structured
report: a summary, notable ingredient highlights with confidence levels,
an uncertainty note when the input is ambiguous, and suggested actions.

Examples:
  insights analyze "sugar, salt, red dye 40"
  insights analyze --image label.jpg
  insights analyze --image label.jpg "partial text from the label"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd, args)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeImagePath, "image", "", "path to a label photo to analyze")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "To set your API key:")
		fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		return config.ErrMissingAPIKey
	}

	var image []byte
	if analyzeImagePath != "" {
		image, err = os.ReadFile(analyzeImagePath)
		if err != nil {
			return fmt.Errorf("reading image: %w", err)
		}
	}

	req, err := insight.BuildRequest(strings.Join(args, " "), image, "")
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	ctx := cmd.Context()
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	result, err := a.Analyzer.Analyze(ctx, req)
	if err != nil {
		return fmt.Errorf("analyzing ingredients: %w", err)
	}

	printResult(cmd.OutOrStdout(), result)
	return nil
}

// printResult renders the analysis for the terminal, using the same
// presentation split as the API: nutrition-fact style results list the
// summary clause by clause.
func printResult(w io.Writer, result *insight.AnalysisResult) {
	switch render.Classify(result) {
	case render.ModeNutritionFacts:
		fmt.Fprintln(w, "Nutrition Facts")
		for _, clause := range render.SummaryClauses(result.Summary) {
			fmt.Fprintf(w, "  %s\n", clause)
		}
	default:
		fmt.Fprintln(w, "Summary")
		fmt.Fprintf(w, "  %s\n", result.Summary)
	}

	if len(result.Highlights) > 0 {
		fmt.Fprintln(w, "\nHighlights")
		for _, h := range result.Highlights {
			fmt.Fprintf(w, "  [%s] %s: %s\n", h.Confidence, h.Ingredient, h.Reason)
		}
	}

	if result.UncertaintyNote != nil && *result.UncertaintyNote != "" {
		fmt.Fprintf(w, "\nNote: %s\n", *result.UncertaintyNote)
	}

	if len(result.SuggestedActions) > 0 {
		fmt.Fprintln(w, "\nSuggested actions")
		for _, action := range result.SuggestedActions {
			fmt.Fprintf(w, "  - %s\n", action)
		}
	}
}
