package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prabhuch28/ingredient-insights/internal/assistant"
	"github.com/prabhuch28/ingredient-insights/internal/insight"
	"github.com/prabhuch28/ingredient-insights/internal/log"
	"github.com/prabhuch28/ingredient-insights/internal/store"
)

// fakeAnalyzer implements Analyzer with canned output.
type fakeAnalyzer struct {
	result *insight.AnalysisResult
	err    error
	calls  int
	gotReq insight.AnalysisRequest
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req insight.AnalysisRequest) (*insight.AnalysisResult, error) {
	f.calls++
	f.gotReq = req
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeExplainer implements Explainer with canned output.
type fakeExplainer struct {
	result *insight.ExplainResult
	err    error
	gotReq insight.ExplainRequest
}

func (f *fakeExplainer) Explain(_ context.Context, req insight.ExplainRequest) (*insight.ExplainResult, error) {
	f.gotReq = req
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeAssistant implements Assistant with canned output.
type fakeAssistant struct {
	response string
	err      error
	gotInput assistant.ChatInput
}

func (f *fakeAssistant) Send(_ context.Context, in assistant.ChatInput) (*assistant.ChatOutput, error) {
	f.gotInput = in
	if f.err != nil {
		return nil, f.err
	}
	return &assistant.ChatOutput{Response: f.response}, nil
}

func defaultResult() *insight.AnalysisResult {
	return &insight.AnalysisResult{
		Summary: "Contains an artificial color.",
		Highlights: []insight.Highlight{
			{Ingredient: "Red Dye 40", Reason: "artificial color", Confidence: insight.ConfidenceHigh},
		},
		SuggestedActions: []string{"Look for a dye-free alternative."},
	}
}

func defaultExplanation() *insight.ExplainResult {
	return &insight.ExplainResult{
		Explanation: "Red Dye 40 is a synthetic azo dye associated with hyperactivity concerns.",
		Confidence:  insight.ConfidenceMedium,
	}
}

// newTestServer builds a server around fakes and a real store in a temp dir.
func newTestServer(t *testing.T, cfg ServerConfig) (http.Handler, *store.Store) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "chat.json"), log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg.Logger = log.NewNop()
	cfg.Store = st
	if cfg.Analyzer == nil {
		cfg.Analyzer = &fakeAnalyzer{result: defaultResult()}
	}
	if cfg.Explainer == nil {
		cfg.Explainer = &fakeExplainer{result: defaultExplanation()}
	}
	if cfg.Assistant == nil {
		cfg.Assistant = &fakeAssistant{response: "Happy to help with nutrition questions."}
	}

	srv, err := NewServer(cfg)
	require.NoError(t, err)
	return srv.Handler(), st
}

func TestNewServerRequiresDependencies(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "chat.json"), log.NewNop())
	require.NoError(t, err)

	_, err = NewServer(ServerConfig{Explainer: &fakeExplainer{}, Assistant: &fakeAssistant{}, Store: st})
	assert.Error(t, err, "missing analyzer")

	_, err = NewServer(ServerConfig{Analyzer: &fakeAnalyzer{}, Assistant: &fakeAssistant{}, Store: st})
	assert.Error(t, err, "missing explainer")

	_, err = NewServer(ServerConfig{Analyzer: &fakeAnalyzer{}, Explainer: &fakeExplainer{}, Store: st})
	assert.Error(t, err, "missing assistant")

	_, err = NewServer(ServerConfig{Analyzer: &fakeAnalyzer{}, Explainer: &fakeExplainer{}, Assistant: &fakeAssistant{}})
	assert.Error(t, err, "missing store")
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := newTestServer(t, ServerConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestIDHeader(t *testing.T) {
	handler, _ := newTestServer(t, ServerConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	handler, _ := newTestServer(t, ServerConfig{
		CORSOrigins: []string{"http://localhost:3000"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitExceeded(t *testing.T) {
	handler, _ := newTestServer(t, ServerConfig{RateBurst: 1})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestUnknownRouteNotFound(t *testing.T) {
	handler, _ := newTestServer(t, ServerConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
