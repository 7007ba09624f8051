package store

import (
	"context"
	"sync"
)

// Memory keeps todos for the lifetime of the process. There is no size limit.
type Memory struct {
	mu    sync.RWMutex
	todos []Todo
}

func NewMemory() *Memory {
	return &Memory{
		todos: make([]Todo, 0),
	}
}

func (m *Memory) Append(_ context.Context, text string) (Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	todo := Todo{
		ID:   int64(len(m.todos)) + 1,
		Text: text,
	}
	m.todos = append(m.todos, todo)

	return todo, nil
}

func (m *Memory) Snapshot(_ context.Context) ([]Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Todo, len(m.todos))
	copy(out, m.todos)
	return out, nil
}

func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.todos), nil
}

func (m *Memory) Close() error {
	return nil
}
