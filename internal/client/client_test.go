package client

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/ytakahashi/todo-rpc/internal/handlers"
	"github.com/ytakahashi/todo-rpc/internal/models"
	"github.com/ytakahashi/todo-rpc/internal/rpc"
	"github.com/ytakahashi/todo-rpc/internal/services"
	"github.com/ytakahashi/todo-rpc/internal/store"
)

func newGRPCClient(t *testing.T) Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := rpc.NewGRPCServer(services.NewTodoService(store.NewMemory()), zap.NewNop())
	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.Stop)

	c, err := DialGRPC(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func newHTTPClient(t *testing.T) Client {
	t.Helper()

	todos := services.NewTodoService(store.NewMemory())
	router := handlers.NewRouter(handlers.NewTodoHandler(todos, zap.NewNop()), nil)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	c, err := NewHTTP(srv.URL)
	require.NoError(t, err)
	return c
}

var transports = map[string]func(*testing.T) Client{
	"grpc": newGRPCClient,
	"http": newHTTPClient,
}

func TestClient_Scenario(t *testing.T) {
	for name, newClient := range transports {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newClient(t)

			milk, err := c.Create(ctx, "buy milk")
			require.NoError(t, err)
			assert.Equal(t, models.Todo{ID: 1, Text: "buy milk"}, milk)

			dog, err := c.Create(ctx, "walk dog")
			require.NoError(t, err)
			assert.Equal(t, models.Todo{ID: 2, Text: "walk dog"}, dog)

			list, err := c.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, models.TodoList{Items: []models.Todo{milk, dog}}, list)
		})
	}
}

func TestClient_CreateValidation(t *testing.T) {
	for name, newClient := range transports {
		t.Run(name, func(t *testing.T) {
			_, err := newClient(t).Create(context.Background(), "")
			assert.ErrorIs(t, err, ErrInvalidArgument)

			var te *TransportError
			assert.False(t, errors.As(err, &te))
		})
	}
}

func TestClient_ListEmpty(t *testing.T) {
	for name, newClient := range transports {
		t.Run(name, func(t *testing.T) {
			list, err := newClient(t).List(context.Background())
			require.NoError(t, err)
			assert.Equal(t, models.TodoList{Items: []models.Todo{}}, list)
		})
	}
}

func TestClient_ListStreaming(t *testing.T) {
	for name, newClient := range transports {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newClient(t)

			var summary StreamSummary
			err := c.ListStreaming(ctx, func(models.Todo) error {
				t.Fatal("no items expected")
				return nil
			}, func(s StreamSummary) { summary = s })
			require.NoError(t, err)
			assert.Equal(t, StreamSummary{}, summary)

			want := []models.Todo{}
			for _, text := range []string{"buy milk", "walk dog", "call mom"} {
				todo, err := c.Create(ctx, text)
				require.NoError(t, err)
				want = append(want, todo)
			}

			var got []models.Todo
			var done int
			err = c.ListStreaming(ctx, func(todo models.Todo) error {
				got = append(got, todo)
				return nil
			}, func(s StreamSummary) {
				done++
				summary = s
			})
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, 1, done)
			assert.Equal(t, StreamSummary{Count: 3}, summary)
		})
	}
}

func TestClient_ListStreamingNilItemCallback(t *testing.T) {
	for name, newClient := range transports {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newClient(t)
			for _, text := range []string{"buy milk", "walk dog", "call mom"} {
				_, err := c.Create(ctx, text)
				require.NoError(t, err)
			}

			var summary StreamSummary
			require.NotPanics(t, func() {
				err := c.ListStreaming(ctx, nil, func(s StreamSummary) { summary = s })
				require.NoError(t, err)
			})
			assert.Equal(t, StreamSummary{Count: 3}, summary)
		})
	}
}

func TestClient_ListStreamingStopEarly(t *testing.T) {
	for name, newClient := range transports {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newClient(t)
			for i := 0; i < 5; i++ {
				_, err := c.Create(ctx, "item")
				require.NoError(t, err)
			}

			stop := errors.New("enough")
			var summary StreamSummary
			err := c.ListStreaming(ctx, func(todo models.Todo) error {
				if todo.ID == 2 {
					return stop
				}
				return nil
			}, func(s StreamSummary) { summary = s })

			assert.ErrorIs(t, err, stop)
			assert.Equal(t, 2, summary.Count)
			assert.ErrorIs(t, summary.Err, stop)

			// the service keeps serving after an abandoned stream
			todo, err := c.Create(ctx, "after")
			require.NoError(t, err)
			assert.Equal(t, int64(6), todo.ID)
		})
	}
}

func TestClient_ConcurrentCreate(t *testing.T) {
	for name, newClient := range transports {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newClient(t)
			const k = 20

			var mu sync.Mutex
			var ids []int64
			var wg sync.WaitGroup
			for i := 0; i < k; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					todo, err := c.Create(ctx, "item")
					assert.NoError(t, err)
					mu.Lock()
					ids = append(ids, todo.ID)
					mu.Unlock()
				}()
			}
			wg.Wait()

			sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
			require.Len(t, ids, k)
			for i, id := range ids {
				assert.Equal(t, int64(i+1), id)
			}
		})
	}
}

func TestHTTPClient_TransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/todos":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"items":`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c, err := NewHTTP(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	var te *TransportError

	_, err = c.List(ctx)
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "list", te.Op)

	err = c.ListStreaming(ctx, func(models.Todo) error { return nil }, nil)
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "stream", te.Op)

	srv.Close()
	_, err = c.Create(ctx, "buy milk")
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "create", te.Op)
}

func TestGRPCClient_Unreachable(t *testing.T) {
	lis := bufconn.Listen(1 << 10)
	require.NoError(t, lis.Close())

	c, err := DialGRPC(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Create(context.Background(), "buy milk")
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "create", te.Op)
}
