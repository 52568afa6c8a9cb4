// Package assistant implements the freeform nutrition chat contract.
//
// The contract is stateless between calls: the caller supplies the full
// conversation history, oldest first, on every call. Persistence of the
// conversation belongs to the caller (the store), not to this package.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
)

// FlowName is the registered name of the chat flow in Genkit.
const FlowName = "insights/chat"

// DefaultTimeout bounds the model round trip when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// ErrChatFailed wraps any failure from the underlying model call. Callers
// surface it as a generic "chat failed" condition.
var ErrChatFailed = errors.New("chat failed")

// systemPrompt constrains the assistant to food/nutrition/ingredient topics.
// The constraint lives entirely in the prompt; there is no code-level topic
// filtering.
const systemPrompt = `You are a friendly and knowledgeable nutrition assistant for the Ingredient Insights app. You help users understand food ingredients, nutrition labels, dietary choices, and general food science.

Stay on the topics of food, nutrition, and ingredients. If the user asks about something unrelated, politely redirect them back to food and nutrition questions.

Keep answers clear and practical. When you are not certain about a health claim, say so rather than overstating it.`

// Turn is one prior exchange entry in the conversation history.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatInput is the request payload for the chat flow. History is ordered
// chronologically, oldest first.
type ChatInput struct {
	Message string `json:"message"`
	History []Turn `json:"history,omitempty"`
}

// ChatOutput is the response payload from the chat flow.
type ChatOutput struct {
	Response string `json:"response"`
}

// Flow is the type alias for the chat Genkit flow.
type Flow = core.Flow[ChatInput, ChatOutput, struct{}]

var (
	flowOnce sync.Once
	flow     *Flow
)

// Assistant performs chat calls against the model. Stateless and safe for
// concurrent use.
type Assistant struct {
	g       *genkit.Genkit
	model   ai.ModelRef
	timeout time.Duration
	logger  *slog.Logger
}

// New creates an Assistant bound to the given model reference.
// timeout <= 0 falls back to DefaultTimeout.
func New(g *genkit.Genkit, model ai.ModelRef, timeout time.Duration, logger *slog.Logger) *Assistant {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{g: g, model: model, timeout: timeout, logger: logger}
}

// NewFlow returns the chat flow singleton, initializing it on first call.
func NewFlow(g *genkit.Genkit, a *Assistant) *Flow {
	flowOnce.Do(func() {
		flow = genkit.DefineFlow(g, FlowName,
			func(ctx context.Context, input ChatInput) (ChatOutput, error) {
				out, err := a.Send(ctx, input)
				if err != nil {
					return ChatOutput{}, err
				}
				return *out, nil
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

// Send performs one blocking chat round trip. Any failure from the
// underlying call is wrapped as ErrChatFailed; there is no partial or
// streamed response.
func (a *Assistant) Send(ctx context.Context, input ChatInput) (*ChatOutput, error) {
	if input.Message == "" {
		return nil, fmt.Errorf("%w: empty message", ErrChatFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	// System prompt + history + new user message, oldest first.
	messages := make([]*ai.Message, 0, len(input.History)+1)
	for _, turn := range input.History {
		part := ai.NewTextPart(turn.Content)
		if turn.Role == "assistant" {
			messages = append(messages, ai.NewModelMessage(part))
		} else {
			messages = append(messages, ai.NewUserMessage(part))
		}
	}
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(input.Message)))

	start := time.Now()
	resp, err := genkit.Generate(ctx, a.g,
		ai.WithModel(a.model),
		ai.WithSystem(systemPrompt),
		ai.WithMessages(messages...),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChatFailed, err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: empty model response", ErrChatFailed)
	}

	a.logger.Debug("chat completed",
		"history", len(input.History),
		"duration", time.Since(start),
	)
	return &ChatOutput{Response: text}, nil
}
