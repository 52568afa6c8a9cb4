package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prabhuch28/ingredient-insights/internal/store"
)

func TestCreateSession(t *testing.T) {
	handler, _ := newTestServer(t, ServerConfig{})

	rec := postJSON(t, handler, "/api/v1/sessions", CreateSessionRequest{Title: "Snack check"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sess store.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, "Snack check", sess.Title)
	assert.Positive(t, sess.ID)
}

func TestCreateSessionDefaultTitle(t *testing.T) {
	handler, _ := newTestServer(t, ServerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sess store.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, store.DefaultTitle, sess.Title)
}

func TestListSessionsNewestFirst(t *testing.T) {
	handler, st := newTestServer(t, ServerConfig{})

	ctx := context.Background()
	first, err := st.CreateSession(ctx, "first")
	require.NoError(t, err)
	second, err := st.CreateSession(ctx, "second")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Sessions, 2)
	assert.Equal(t, second.ID, resp.Sessions[0].ID)
	assert.Equal(t, first.ID, resp.Sessions[1].ID)
}

func TestListSessionsEmpty(t *testing.T) {
	handler, _ := newTestServer(t, ServerConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessions":[]}`, rec.Body.String())
}

func TestGetSessionWithMessages(t *testing.T) {
	handler, st := newTestServer(t, ServerConfig{})

	ctx := context.Background()
	sess, err := st.CreateSession(ctx, "")
	require.NoError(t, err)
	_, err = st.AppendMessage(ctx, sess.ID, store.RoleUser, "hello")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/v1/sessions/%d", sess.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var detail store.SessionDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, sess.ID, detail.ID)
	require.Len(t, detail.Messages, 1)
	assert.Equal(t, "hello", detail.Messages[0].Content)
}

func TestGetSessionNotFound(t *testing.T) {
	handler, _ := newTestServer(t, ServerConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/99999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown_session", decodeError(t, rec).Error)
}

func TestGetSessionInvalidID(t *testing.T) {
	handler, _ := newTestServer(t, ServerConfig{})

	for _, id := range []string{"abc", "-1", "0"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "id %q", id)
	}
}

func TestDeleteSessionIdempotent(t *testing.T) {
	handler, st := newTestServer(t, ServerConfig{})

	sess, err := st.CreateSession(context.Background(), "")
	require.NoError(t, err)

	path := fmt.Sprintf("/api/v1/sessions/%d", sess.ID)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, path, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Second delete of the same ID still succeeds.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, path, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = st.GetSession(context.Background(), sess.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
