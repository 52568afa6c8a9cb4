// Package app provides application initialization and dependency wiring.
//
// App is the container that holds every long-lived component: the Genkit
// instance, the analyzer and assistant built on top of it, and the local
// session store. Commands call Setup once and share the result.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"google.golang.org/genai"

	"github.com/prabhuch28/ingredient-insights/internal/assistant"
	"github.com/prabhuch28/ingredient-insights/internal/config"
	"github.com/prabhuch28/ingredient-insights/internal/insight"
	"github.com/prabhuch28/ingredient-insights/internal/store"
)

// App is the core application container.
type App struct {
	Config    *config.Config
	Genkit    *genkit.Genkit
	Analyzer  *insight.Analyzer
	Assistant *assistant.Assistant
	Store     *store.Store

	logger *slog.Logger
}

// Setup initializes Genkit with the Gemini provider, opens the session
// store, and builds the analyzer and assistant. The GOOGLE_API_KEY
// environment variable carries the key into the plugin.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// The googlegenai plugin reads the key from the environment only, so
	// a key loaded from the config file is exported here.
	if cfg.APIKey != "" {
		if err := os.Setenv("GOOGLE_API_KEY", cfg.APIKey); err != nil {
			return nil, fmt.Errorf("exporting API key: %w", err)
		}
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with gemini provider")
	}
	logger.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)

	model := ai.NewModelRef("googleai/"+cfg.ModelName, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(cfg.Temperature),
	})

	st, err := store.Open(cfg.StorePath(), logger)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	return &App{
		Config:    cfg,
		Genkit:    g,
		Analyzer:  insight.NewAnalyzer(g, model, cfg.ModelTimeout, logger),
		Assistant: assistant.New(g, model, cfg.ModelTimeout, logger),
		Store:     st,
		logger:    logger,
	}, nil
}

// Close releases application resources.
func (a *App) Close() error {
	a.logger.Info("shutting down application")
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
