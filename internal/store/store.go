// Package store holds the ordered, append-only collection of todos.
//
// Ids are assigned as the current length plus one, atomically with the
// insertion, so insertion order and id order always agree.
package store

import (
	"context"

	"github.com/ytakahashi/todo-rpc/internal/models"
)

type Todo = models.Todo

// Store is implemented by every todo backend.
type Store interface {
	// Append creates a todo with id len+1 and returns it.
	Append(ctx context.Context, text string) (Todo, error)
	// Snapshot returns a point-in-time copy of all todos in insertion order.
	Snapshot(ctx context.Context) ([]Todo, error)
	// Len returns the number of todos currently held.
	Len(ctx context.Context) (int, error)
	Close() error
}
