package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ytakahashi/todo-rpc/internal/metrics"
	"github.com/ytakahashi/todo-rpc/internal/models"
	"github.com/ytakahashi/todo-rpc/internal/services"
	"github.com/ytakahashi/todo-rpc/internal/store"
)

func newTestRouter() (*echo.Echo, *services.TodoService) {
	todos := services.NewTodoService(store.NewMemory())
	return NewRouter(NewTodoHandler(todos, zap.NewNop()), nil), todos
}

func doJSON(e http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTodoHandler_CreateTodo(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		want       *models.Todo
	}{
		{name: "valid", body: `{"text":"buy milk"}`, wantStatus: http.StatusCreated, want: &models.Todo{ID: 1, Text: "buy milk"}},
		{name: "empty text", body: `{"text":""}`, wantStatus: http.StatusBadRequest},
		{name: "missing text", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "malformed json", body: `{"text":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestRouter()
			rec := doJSON(e, http.MethodPost, "/todos", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.want != nil {
				var got models.Todo
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, *tt.want, got)
			}
		})
	}
}

func TestTodoHandler_Scenario(t *testing.T) {
	e, _ := newTestRouter()

	rec := doJSON(e, http.MethodPost, "/todos", `{"text":"buy milk"}`)
	assert.JSONEq(t, `{"id":1,"text":"buy milk"}`, rec.Body.String())

	rec = doJSON(e, http.MethodPost, "/todos", `{"text":"walk dog"}`)
	assert.JSONEq(t, `{"id":2,"text":"walk dog"}`, rec.Body.String())

	rec = doJSON(e, http.MethodGet, "/todos", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[{"id":1,"text":"buy milk"},{"id":2,"text":"walk dog"}]}`, rec.Body.String())

	again := doJSON(e, http.MethodGet, "/todos", "")
	assert.Equal(t, rec.Body.String(), again.Body.String())
}

func TestTodoHandler_ReadTodosEmpty(t *testing.T) {
	e, _ := newTestRouter()

	rec := doJSON(e, http.MethodGet, "/todos", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestTodoHandler_Health(t *testing.T) {
	e, _ := newTestRouter()
	doJSON(e, http.MethodPost, "/todos", `{"text":"buy milk"}`)

	rec := doJSON(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","todos":1}`, rec.Body.String())
}

func TestTodoHandler_Metrics(t *testing.T) {
	e, _ := newTestRouter()
	doJSON(e, http.MethodPost, "/todos", `{"text":"buy milk"}`)

	rec := doJSON(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "todo_created_total")
}

func readStream(t *testing.T, srv *httptest.Server) []models.Todo {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/todos/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	got := []models.Todo{}
	for {
		var todo models.Todo
		if err := conn.ReadJSON(&todo); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
			return got
		}
		got = append(got, todo)
	}
}

func TestTodoHandler_ReadTodosStream(t *testing.T) {
	e, todos := newTestRouter()
	srv := httptest.NewServer(Instrument(e, zap.NewNop()))
	defer srv.Close()

	assert.Empty(t, readStream(t, srv), "empty store streams no items")

	for _, text := range []string{"buy milk", "walk dog", "call mom"} {
		_, err := todos.CreateTodo(context.Background(), text)
		require.NoError(t, err)
	}

	assert.Equal(t, []models.Todo{
		{ID: 1, Text: "buy milk"},
		{ID: 2, Text: "walk dog"},
		{ID: 3, Text: "call mom"},
	}, readStream(t, srv))
}

func TestTodoHandler_ReadTodosStreamPeerGone(t *testing.T) {
	const total = 200000

	e, todos := newTestRouter()
	for i := 0; i < total; i++ {
		_, err := todos.CreateTodo(context.Background(), "item")
		require.NoError(t, err)
	}
	srv := httptest.NewServer(e)
	defer srv.Close()

	sent := metrics.StreamItemsTotal.WithLabelValues("websocket")
	before := testutil.ToFloat64(sent)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/todos/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	var first models.Todo
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, int64(1), first.ID)
	require.NoError(t, conn.Close())

	// wait for the producer to stop
	last := testutil.ToFloat64(sent)
	require.Eventually(t, func() bool {
		cur := testutil.ToFloat64(sent)
		stable := cur == last
		last = cur
		return stable
	}, 5*time.Second, 50*time.Millisecond)

	assert.Less(t, last-before, float64(total/2), "producer must stop once the peer disconnects")
}
