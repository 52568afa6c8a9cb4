package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/prabhuch28/ingredient-insights/internal/store"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Analyzer    Analyzer     // Required
	Explainer   Explainer    // Required
	Assistant   Assistant    // Required
	Store       *store.Store // Required
	CORSOrigins []string     // Allowed origins for CORS
	TrustProxy  bool         // Trust X-Real-IP/X-Forwarded-For headers (behind reverse proxy)
	RateBurst   int          // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	if cfg.Explainer == nil {
		return nil, errors.New("explainer is required")
	}
	if cfg.Assistant == nil {
		return nil, errors.New("assistant is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("session store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ah := &analyzeHandler{analyzer: cfg.Analyzer, logger: logger}
	eh := &explainHandler{explainer: cfg.Explainer, logger: logger}
	ch := &chatHandler{assistant: cfg.Assistant, store: cfg.Store, logger: logger}
	sh := &sessionHandler{store: cfg.Store, logger: logger}

	mux := http.NewServeMux()

	// Analysis
	mux.HandleFunc("POST /api/v1/analyze", ah.serve)
	mux.HandleFunc("POST /api/v1/explain", eh.serve)

	// Chat
	mux.HandleFunc("POST /api/v1/chat", ch.serve)

	// Session CRUD
	mux.HandleFunc("GET /api/v1/sessions", sh.list)
	mux.HandleFunc("POST /api/v1/sessions", sh.create)
	mux.HandleFunc("GET /api/v1/sessions/{id}", sh.get)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", sh.delete)

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID must be before Logging so request_id is available in log attributes.
	// CORS must be before RateLimit so preflight OPTIONS gets proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Use a top-level mux to keep the health probe out of the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
