package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/prabhuch28/ingredient-insights/internal/store"
)

// sessionHandler handles the /api/v1/sessions routes.
type sessionHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// CreateSessionRequest is the optional body for POST /api/v1/sessions.
type CreateSessionRequest struct {
	Title string `json:"title"`
}

// SessionsResponse wraps the session list so the payload stays extensible.
type SessionsResponse struct {
	Sessions []store.Session `json:"sessions"`
}

// list handles GET /api/v1/sessions. The list is newest first; a corrupt
// or missing store file degrades to an empty list rather than an error.
func (h *sessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListSessions(r.Context())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionsResponse{Sessions: sessions})
}

// create handles POST /api/v1/sessions. An empty or absent body creates a
// session with the default title.
func (h *sessionHandler) create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)

	// A missing body is fine and yields the default title.
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	session, err := h.store.CreateSession(r.Context(), strings.TrimSpace(req.Title))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// get handles GET /api/v1/sessions/{id} and returns the session together
// with its messages, oldest first.
func (h *sessionHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	detail, err := h.store.GetSession(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// delete handles DELETE /api/v1/sessions/{id}. Deletion is idempotent, so
// an unknown ID still answers 204.
func (h *sessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteSession(r.Context(), id); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *sessionHandler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown_session", "session does not exist")
		return
	}
	h.logger.Error("session store failure", "error", err,
		"request_id", requestIDFromContext(r.Context()))
	writeError(w, http.StatusInternalServerError, "storage_failed",
		"could not read or write chat history")
}

// sessionIDParam parses the {id} path segment. On failure it has already
// written the error response.
func sessionIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_session_id", "session id must be a positive integer")
		return 0, false
	}
	return id, true
}
