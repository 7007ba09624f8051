package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ytakahashi/todo-rpc/internal/metrics"
	"github.com/ytakahashi/todo-rpc/internal/models"
	"github.com/ytakahashi/todo-rpc/internal/services"
)

const (
	writeWait = 5 * time.Second

	// EndOfStream is the close reason sent after the last streamed todo.
	EndOfStream = "end of stream"
)

type TodoHandler struct {
	todos    *services.TodoService
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewTodoHandler(todos *services.TodoService, log *zap.Logger) *TodoHandler {
	return &TodoHandler{
		todos: todos,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *TodoHandler) Register(e *echo.Echo) {
	e.POST("/todos", h.CreateTodo)
	e.GET("/todos", h.ReadTodos)
	e.GET("/todos/stream", h.ReadTodosStream)
	e.GET("/health", h.Health)
}

func (h *TodoHandler) CreateTodo(c echo.Context) error {
	var req models.CreateTodoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	todo, err := h.todos.CreateTodo(c.Request().Context(), req.Text)
	if errors.Is(err, services.ErrEmptyText) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		h.log.Error("failed to create todo", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create todo")
	}

	return c.JSON(http.StatusCreated, todo)
}

func (h *TodoHandler) ReadTodos(c echo.Context) error {
	list, err := h.todos.ReadTodos(c.Request().Context())
	if err != nil {
		h.log.Error("failed to read todos", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read todos")
	}

	return c.JSON(http.StatusOK, list)
}

// ReadTodosStream upgrades to a websocket, writes one JSON text frame per
// todo and finishes with a normal close frame. A peer that goes away
// cancels the stream.
func (h *TodoHandler) ReadTodosStream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn("failed to upgrade", zap.Error(err))
		return nil
	}
	defer conn.Close()

	log := h.log.With(zap.String("session", uuid.NewString()))
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	stream, err := h.todos.ReadTodosStream(ctx)
	if err != nil {
		log.Error("failed to open todo stream", zap.Error(err))
		writeClose(conn, websocket.CloseInternalServerErr, "failed to read todos")
		return nil
	}

	var sent int
	err = stream.Drain(ctx, func(todo models.Todo) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(todo); err != nil {
			return err
		}
		sent++
		metrics.StreamItemsTotal.WithLabelValues("websocket").Inc()
		return nil
	})
	if err != nil {
		log.Info("todo stream stopped early", zap.Int("sent", sent), zap.Error(err))
		return nil
	}

	log.Debug("todo stream finished", zap.Int("sent", sent))
	writeClose(conn, websocket.CloseNormalClosure, EndOfStream)
	return nil
}

func (h *TodoHandler) Health(c echo.Context) error {
	n, err := h.todos.Count(c.Request().Context())
	if err != nil {
		h.log.Error("health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok", "todos": n})
}

func writeClose(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
