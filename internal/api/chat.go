package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prabhuch28/ingredient-insights/internal/assistant"
	"github.com/prabhuch28/ingredient-insights/internal/store"
)

const maxChatBody = 64 << 10 // 64 KiB

// Assistant is the chat dependency as consumed by this package.
type Assistant interface {
	Send(ctx context.Context, in assistant.ChatInput) (*assistant.ChatOutput, error)
}

// chatHandler handles POST /api/v1/chat.
type chatHandler struct {
	assistant Assistant
	store     *store.Store
	logger    *slog.Logger
}

// ChatRequest is the request body for a chat turn.
type ChatRequest struct {
	SessionID int64  `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse carries the assistant reply and both persisted messages.
type ChatResponse struct {
	SessionID int64         `json:"session_id"`
	User      store.Message `json:"user"`
	Assistant store.Message `json:"assistant"`
}

// serve runs one chat turn: it loads the session history, calls the
// assistant, and persists the user and assistant messages. The user message
// is only written after the assistant replies, so a failed turn leaves no
// dangling half-exchange in the session.
func (h *chatHandler) serve(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "empty_message", "message must not be empty")
		return
	}

	ctx := r.Context()

	history, err := h.store.Messages(ctx, req.SessionID)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	turns := make([]assistant.Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, assistant.Turn{Role: m.Role, Content: m.Content})
	}

	out, err := h.assistant.Send(ctx, assistant.ChatInput{
		Message: req.Message,
		History: turns,
	})
	if err != nil {
		h.logger.Error("chat call failed", "error", err,
			"session_id", req.SessionID,
			"request_id", requestIDFromContext(ctx))
		writeError(w, http.StatusInternalServerError, "chat_failed",
			"Sorry, I encountered an error. Please try again.")
		return
	}

	userMsg, err := h.store.AppendMessage(ctx, req.SessionID, store.RoleUser, req.Message)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	assistantMsg, err := h.store.AppendMessage(ctx, req.SessionID, store.RoleAssistant, out.Response)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		SessionID: req.SessionID,
		User:      *userMsg,
		Assistant: *assistantMsg,
	})
}

func (h *chatHandler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown_session", "session does not exist")
		return
	}
	h.logger.Error("session store failure", "error", err,
		"request_id", requestIDFromContext(r.Context()))
	writeError(w, http.StatusInternalServerError, "storage_failed",
		"could not read or write chat history")
}
