package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ytakahashi/todo-rpc/internal/models"
)

type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	dialer  *websocket.Dialer
}

// NewHTTP accepts "host:port" or a full http(s) URL.
func NewHTTP(addr string) (*HTTPClient, error) {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", addr, err)
	}

	return &HTTPClient{
		baseURL: u,
		http:    http.DefaultClient,
		dialer:  websocket.DefaultDialer,
	}, nil
}

func (c *HTTPClient) Close() error {
	return nil
}

func (c *HTTPClient) Create(ctx context.Context, text string) (models.Todo, error) {
	body, err := json.Marshal(models.CreateTodoRequest{Text: text})
	if err != nil {
		return models.Todo{}, fmt.Errorf("failed to encode request: %w", err)
	}

	var todo models.Todo
	if err := c.do(ctx, "create", http.MethodPost, "todos", body, http.StatusCreated, &todo); err != nil {
		return models.Todo{}, err
	}
	return todo, nil
}

func (c *HTTPClient) List(ctx context.Context) (models.TodoList, error) {
	var list models.TodoList
	if err := c.do(ctx, "list", http.MethodGet, "todos", nil, http.StatusOK, &list); err != nil {
		return models.TodoList{}, err
	}
	if list.Items == nil {
		list.Items = []models.Todo{}
	}
	return list, nil
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, body []byte, want int, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), bytes.NewReader(body))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case want:
	case http.StatusBadRequest:
		return fmt.Errorf("%s: %w: %s", op, ErrInvalidArgument, errorMessage(resp.Body))
	default:
		return &TransportError{Op: op, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}

func errorMessage(r io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil || payload.Message == "" {
		return "rejected by server"
	}
	return payload.Message
}

func (c *HTTPClient) streamURL() string {
	u := c.baseURL.JoinPath("todos", "stream")
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	return u.String()
}

func (c *HTTPClient) ListStreaming(ctx context.Context, onItem func(models.Todo) error, onDone func(StreamSummary)) error {
	conn, _, err := c.dialer.DialContext(ctx, c.streamURL(), nil)
	if err != nil {
		return finish(onDone, 0, &TransportError{Op: "stream", Err: err})
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	var count int
	for {
		_, p, err := conn.ReadMessage()
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			return finish(onDone, count, nil)
		}
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			return finish(onDone, count, &TransportError{Op: "stream", Err: err})
		}

		var todo models.Todo
		if err := json.Unmarshal(p, &todo); err != nil {
			return finish(onDone, count, &TransportError{Op: "stream", Err: fmt.Errorf("malformed item: %w", err)})
		}
		count++
		if err := emit(onItem, todo); err != nil {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "consumer stopped"))
			return finish(onDone, count, err)
		}
	}
}
