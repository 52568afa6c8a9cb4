package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/prabhuch28/ingredient-insights/internal/insight"
	"github.com/prabhuch28/ingredient-insights/internal/render"
)

// maxAnalyzeBody bounds the request body; label photos dominate the size.
const maxAnalyzeBody = 10 << 20 // 10 MiB

// Analyzer is the analysis dependency as consumed by this package.
type Analyzer interface {
	Analyze(ctx context.Context, req insight.AnalysisRequest) (*insight.AnalysisResult, error)
}

// analyzeHandler handles POST /api/v1/analyze.
type analyzeHandler struct {
	analyzer Analyzer
	logger   *slog.Logger
}

// AnalyzeResponse pairs the analysis result with its presentation mode.
// The mode is a presentation hint derived from the result, not part of the
// model contract.
type AnalyzeResponse struct {
	Result *insight.AnalysisResult `json:"result"`
	Mode   render.Mode             `json:"mode"`
}

// serve accepts either a multipart form (fields "ingredients" and "image")
// or a JSON AnalysisRequest body. Input failing validation is rejected with
// 400 before any model interaction.
func (h *analyzeHandler) serve(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAnalyzeBody)

	req, err := h.parseRequest(r)
	if err != nil {
		if errors.Is(err, insight.ErrEmptyInput) {
			writeError(w, http.StatusBadRequest, "empty_input",
				"Please enter a list of ingredients or attach a photo.")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, insight.ErrEmptyInput):
			writeError(w, http.StatusBadRequest, "empty_input",
				"Please enter a list of ingredients or attach a photo.")
		case errors.Is(err, insight.ErrContractViolation):
			h.logger.Error("analysis contract violation", "error", err,
				"request_id", requestIDFromContext(r.Context()))
			writeError(w, http.StatusBadGateway, "analysis_failed",
				"Analysis failed. The AI could not process the ingredients.")
		default:
			h.logger.Error("analysis call failed", "error", err,
				"request_id", requestIDFromContext(r.Context()))
			writeError(w, http.StatusInternalServerError, "unexpected_error",
				"An unexpected error occurred. Please try again later.")
		}
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Result: result,
		Mode:   render.Classify(result),
	})
}

// parseRequest builds the AnalysisRequest from either encoding. The data-URI
// encode happens here, before the model call, and nowhere else.
func (h *analyzeHandler) parseRequest(r *http.Request) (insight.AnalysisRequest, error) {
	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		contentType = ""
	}

	if strings.HasPrefix(contentType, "multipart/") {
		if err := r.ParseMultipartForm(maxAnalyzeBody); err != nil {
			return insight.AnalysisRequest{}, errors.New("malformed multipart form")
		}

		var image []byte
		var imageMime string
		if file, header, err := r.FormFile("image"); err == nil {
			defer file.Close() //nolint:errcheck // read-only file handle
			image, err = io.ReadAll(file)
			if err != nil {
				return insight.AnalysisRequest{}, errors.New("reading image upload")
			}
			imageMime = header.Header.Get("Content-Type")
			if imageMime == "application/octet-stream" {
				// Generic type from the client; sniff from the bytes instead.
				imageMime = ""
			}
		}

		return insight.BuildRequest(r.FormValue("ingredients"), image, imageMime)
	}

	var req insight.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return insight.AnalysisRequest{}, errors.New("invalid request body")
	}
	req.IngredientsText = strings.TrimSpace(req.IngredientsText)
	if err := req.Validate(); err != nil {
		return insight.AnalysisRequest{}, err
	}
	return req, nil
}
