package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prabhuch28/ingredient-insights/internal/insight"
)

// Explainer is the highlight-explanation dependency as consumed by this
// package.
type Explainer interface {
	Explain(ctx context.Context, req insight.ExplainRequest) (*insight.ExplainResult, error)
}

// explainHandler handles POST /api/v1/explain.
type explainHandler struct {
	explainer Explainer
	logger    *slog.Logger
}

// serve expands one highlight into a fuller explanation. The request body is
// an ExplainRequest; error mapping mirrors the analyze handler.
func (h *explainHandler) serve(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)

	var req insight.ExplainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	req.Ingredient = strings.TrimSpace(req.Ingredient)
	req.Reason = strings.TrimSpace(req.Reason)
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "empty_input", "Please provide an ingredient to explain.")
		return
	}

	result, err := h.explainer.Explain(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, insight.ErrEmptyIngredient):
			writeError(w, http.StatusBadRequest, "empty_input", "Please provide an ingredient to explain.")
		case errors.Is(err, insight.ErrContractViolation):
			h.logger.Error("explanation contract violation", "error", err,
				"request_id", requestIDFromContext(r.Context()))
			writeError(w, http.StatusBadGateway, "explanation_failed",
				"Explanation failed. The AI could not process the ingredient.")
		default:
			h.logger.Error("explanation call failed", "error", err,
				"request_id", requestIDFromContext(r.Context()))
			writeError(w, http.StatusInternalServerError, "unexpected_error",
				"An unexpected error occurred. Please try again later.")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}
