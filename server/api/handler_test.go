package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/relaygw/relay/config"
	"github.com/relaygw/relay/pkg/session"
	"github.com/relaygw/relay/pkg/storage"
	"github.com/relaygw/relay/pkg/task"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func testHandler(t *testing.T) (*Handler, *session.Store, *task.Manager) {
	t.Helper()

	dir := t.TempDir()

	configPath := filepath.Join(dir, "config.yaml")

	require.NoError(t, os.WriteFile(configPath, []byte(`
providers:
  - name: claude
    type: anthropic
    token: sk-test
    model: claude-sonnet-4-5
`), 0600))

	cfg, err := config.Parse(configPath)
	require.NoError(t, err)

	db, err := storage.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	sessions, err := session.NewStore(db)
	require.NoError(t, err)

	tasks, err := task.NewStore(db)
	require.NoError(t, err)

	manager := task.NewManager(tasks, sessions, cfg.Completer)
	t.Cleanup(manager.Close)

	h, err := New(cfg, sessions, manager)
	require.NoError(t, err)

	return h, sessions, manager
}

func serve(h *Handler, method, path string, body any) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Attach(r)

	var reader *bytes.Reader

	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	return rec
}

func TestChatRejectsBlankMessage(t *testing.T) {
	h, _, _ := testHandler(t)

	rec := serve(h, "POST", "/chat", ChatRequest{})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "validation", resp.Kind)
}

func TestChatRejectsUnknownProvider(t *testing.T) {
	h, _, _ := testHandler(t)

	rec := serve(h, "POST", "/chat", ChatRequest{
		Provider: "missing",
		Message:  "hi",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "unsupported_provider", resp.Kind)
}

func TestChatRejectsUnknownSession(t *testing.T) {
	h, _, _ := testHandler(t)

	rec := serve(h, "POST", "/chat", ChatRequest{
		SessionID: "missing",
		Message:   "hi",
	})

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestModels(t *testing.T) {
	h, _, _ := testHandler(t)

	rec := serve(h, "GET", "/models", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var models []ModelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &models))
	require.NotEmpty(t, models)
	require.Equal(t, "claude", models[0].Provider)
}

func TestSessionLifecycle(t *testing.T) {
	h, sessions, _ := testHandler(t)
	ctx := context.Background()

	created, err := sessions.Create(ctx, "chat")
	require.NoError(t, err)

	require.NoError(t, sessions.Append(ctx, created.ID, "user", "hi"))

	rec := serve(h, "GET", "/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Empty(t, list[0].Messages)

	rec = serve(h, "GET", "/sessions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Messages, 1)
	require.Equal(t, "hi", got.Messages[0].Content)

	rec = serve(h, "DELETE", "/sessions/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(h, "GET", "/sessions/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskLifecycle(t *testing.T) {
	h, _, _ := testHandler(t)

	rec := serve(h, "POST", "/tasks", TaskRequest{
		Title:   "briefing",
		Request: "summarize the news",

		IntervalSeconds: 3600,
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var created TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	require.True(t, created.Running)
	require.Equal(t, 3600, created.IntervalSeconds)

	rec = serve(h, "GET", "/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = serve(h, "GET", "/tasks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, "DELETE", "/tasks/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(h, "GET", "/tasks/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskRejectsInvalidDefinition(t *testing.T) {
	h, _, _ := testHandler(t)

	rec := serve(h, "POST", "/tasks", TaskRequest{
		Request: "",

		IntervalSeconds: 0,
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "validation", resp.Kind)
	require.NotEmpty(t, resp.Reasons)
}
