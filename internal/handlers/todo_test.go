package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ytakahashi/todo-web/internal/models"
	"github.com/ytakahashi/todo-web/internal/services"
)

func newTestRouter(t *testing.T, store services.TodoStore, opts RouterOptions) (*echo.Echo, *logtest.Hook) {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return NewRouter(store, log, opts), hook
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeTodo(t *testing.T, rec *httptest.ResponseRecorder) models.Todo {
	t.Helper()
	var todo models.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todo), rec.Body.String())
	return todo
}

func decodeTodos(t *testing.T, rec *httptest.ResponseRecorder) []models.Todo {
	t.Helper()
	var todos []models.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todos), rec.Body.String())
	return todos
}

func TestTodoLifecycle(t *testing.T) {
	e, _ := newTestRouter(t, services.NewMemoryStore(), RouterOptions{})

	rec := do(e, http.MethodGet, "/api/todos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/todos", `{"text":"Buy milk"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeTodo(t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Buy milk", created.Text)
	assert.False(t, created.Completed)

	rec = do(e, http.MethodGet, "/api/todos", "")
	todos := decodeTodos(t, rec)
	require.Len(t, todos, 1)
	assert.Equal(t, created.ID, todos[0].ID)

	rec = do(e, http.MethodPatch, "/api/todos/"+created.ID, `{"completed":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeTodo(t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Buy milk", updated.Text)
	assert.True(t, updated.Completed)

	rec = do(e, http.MethodPatch, "/api/todos/"+created.ID, `{"text":"Buy oat milk"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/todos/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeTodo(t, rec)
	assert.Equal(t, "Buy oat milk", got.Text)
	assert.True(t, got.Completed)

	rec = do(e, http.MethodDelete, "/api/todos/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/todos", "")
	assert.Empty(t, decodeTodos(t, rec))
}

func TestTodoFailures(t *testing.T) {
	store := services.NewMemoryStore()
	existing, err := store.CreateTodo(context.Background(), "existing")
	require.NoError(t, err)
	e, _ := newTestRouter(t, store, RouterOptions{})

	testCases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"create empty text", http.MethodPost, "/api/todos", `{"text":""}`, http.StatusBadRequest},
		{"create blank text", http.MethodPost, "/api/todos", `{"text":"   "}`, http.StatusBadRequest},
		{"create missing text", http.MethodPost, "/api/todos", `{}`, http.StatusBadRequest},
		{"create wrong type", http.MethodPost, "/api/todos", `{"text":5}`, http.StatusBadRequest},
		{"create malformed", http.MethodPost, "/api/todos", `{"text":`, http.StatusBadRequest},
		{"create no body", http.MethodPost, "/api/todos", ``, http.StatusBadRequest},
		{"get unknown", http.MethodGet, "/api/todos/nope", ``, http.StatusNotFound},
		{"update unknown", http.MethodPatch, "/api/todos/nope", `{"completed":true}`, http.StatusNotFound},
		{"update blank text", http.MethodPatch, "/api/todos/" + existing.ID, `{"text":" "}`, http.StatusBadRequest},
		{"update wrong type", http.MethodPatch, "/api/todos/" + existing.ID, `{"completed":"yes"}`, http.StatusBadRequest},
		{"update array body", http.MethodPatch, "/api/todos/" + existing.ID, `[]`, http.StatusBadRequest},
		{"delete unknown", http.MethodDelete, "/api/todos/nope", ``, http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(e, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}

	todos, err := store.ListTodos(context.Background())
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, "existing", todos[0].Text)
	assert.False(t, todos[0].Completed)
}

// brokenStore fails every call with a storage fault.
type brokenStore struct {
	services.TodoStore
}

var errConnection = errors.New("connection refused: 10.0.0.7:8080")

func (brokenStore) CreateTodo(context.Context, string) (*models.Todo, error) {
	return nil, errConnection
}

func (brokenStore) ListTodos(context.Context) ([]*models.Todo, error) {
	return nil, errConnection
}

func TestStoreFaultIsHidden(t *testing.T) {
	e, hook := newTestRouter(t, brokenStore{}, RouterOptions{})

	for _, rec := range []*httptest.ResponseRecorder{
		do(e, http.MethodGet, "/api/todos", ""),
		do(e, http.MethodPost, "/api/todos", `{"text":"x"}`),
	} {
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "10.0.0.7")
	}

	var logged bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel && entry.Data[logrus.ErrorKey] == errConnection {
			logged = true
		}
	}
	assert.True(t, logged, "store fault should be logged")
}

func TestTrailingSlash(t *testing.T) {
	e, _ := newTestRouter(t, services.NewMemoryStore(), RouterOptions{})

	rec := do(e, http.MethodPost, "/api/todos/", `{"text":"Buy milk"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeTodo(t, rec)

	rec = do(e, http.MethodGet, "/api/todos/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeTodos(t, rec), 1)

	rec = do(e, http.MethodPatch, "/api/todos/"+created.ID+"/", `{"completed":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decodeTodo(t, rec).Completed)
}

func TestHealth(t *testing.T) {
	e, _ := newTestRouter(t, services.NewMemoryStore(), RouterOptions{})
	rec := do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>todos</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	e, _ := newTestRouter(t, services.NewMemoryStore(), RouterOptions{StaticDir: dir})

	rec := do(e, http.MethodGet, "/app.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())

	rec = do(e, http.MethodGet, "/some/client/route", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "todos")

	rec = do(e, http.MethodGet, "/api/todos", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/todos/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	e, _ := newTestRouter(t, services.NewMemoryStore(), RouterOptions{BodyLimit: "1K"})
	rec := do(e, http.MethodPost, "/api/todos", `{"text":"`+strings.Repeat("a", 2048)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
