package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ytakahashi/todo-rpc/internal/metrics"
	"github.com/ytakahashi/todo-rpc/internal/models"
	"github.com/ytakahashi/todo-rpc/internal/store"
)

type Todo = models.Todo

var (
	// ErrEmptyText is returned when a todo is created without text.
	ErrEmptyText = errors.New("text is required")
	// ErrStreamClosed is returned by Next after Close.
	ErrStreamClosed = errors.New("todo stream closed")
)

// TodoService mediates between the transports and a Store it owns.
type TodoService struct {
	store store.Store
}

func NewTodoService(s store.Store) *TodoService {
	return &TodoService{
		store: s,
	}
}

func (ts *TodoService) Close() error {
	return ts.store.Close()
}

// Count returns the number of stored todos.
func (ts *TodoService) Count(ctx context.Context) (int, error) {
	return ts.store.Len(ctx)
}

func (ts *TodoService) CreateTodo(ctx context.Context, text string) (Todo, error) {
	if strings.TrimSpace(text) == "" {
		return Todo{}, ErrEmptyText
	}

	todo, err := ts.store.Append(ctx, text)
	if err != nil {
		return Todo{}, fmt.Errorf("failed to create todo: %w", err)
	}
	metrics.TodosCreatedTotal.Inc()

	return todo, nil
}

func (ts *TodoService) ReadTodos(ctx context.Context) (models.TodoList, error) {
	todos, err := ts.store.Snapshot(ctx)
	if err != nil {
		return models.TodoList{}, fmt.Errorf("failed to read todos: %w", err)
	}

	return models.TodoList{Items: todos}, nil
}

// ReadTodosStream snapshots the store and returns a stream over that
// snapshot. Todos created afterwards are not part of the stream.
func (ts *TodoService) ReadTodosStream(ctx context.Context) (*TodoStream, error) {
	todos, err := ts.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read todos: %w", err)
	}

	return newTodoStream(todos), nil
}

// TodoStream is a finite, non-restartable sequence of todos.
// Next returns io.EOF once every item has been emitted.
type TodoStream struct {
	mu     sync.Mutex
	items  []Todo
	pos    int
	ended  bool
	closed bool
}

func newTodoStream(items []Todo) *TodoStream {
	return &TodoStream{items: items}
}

func (s *TodoStream) Next(ctx context.Context) (Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return Todo{}, io.EOF
	}
	if s.closed {
		return Todo{}, ErrStreamClosed
	}
	if err := ctx.Err(); err != nil {
		s.closed = true
		s.items = nil
		return Todo{}, err
	}
	if s.pos >= len(s.items) {
		s.ended = true
		s.items = nil
		return Todo{}, io.EOF
	}

	todo := s.items[s.pos]
	s.pos++
	return todo, nil
}

// Close stops the stream early. It is safe to call more than once.
func (s *TodoStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.items = nil
}

// Drain calls fn for every remaining item and returns nil on end-of-stream.
// The stream is closed when Drain returns.
func (s *TodoStream) Drain(ctx context.Context, fn func(Todo) error) error {
	defer s.Close()

	for {
		todo, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(todo); err != nil {
			return err
		}
	}
}
