// Package client calls the todo service over gRPC or HTTP.
//
// Failures are surfaced as they happen: there are no retries, no implicit
// timeouts and no caching of partial results. Anything that goes wrong on
// the wire is a *TransportError; a request the server refused as invalid
// wraps ErrInvalidArgument.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/ytakahashi/todo-rpc/internal/models"
)

// ErrInvalidArgument is wrapped by errors for requests the server rejected.
var ErrInvalidArgument = errors.New("invalid argument")

type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StreamSummary is passed to the completion callback of ListStreaming.
// Err is nil when the server signalled end-of-stream.
type StreamSummary struct {
	Count int
	Err   error
}

// Client is implemented by GRPCClient and HTTPClient.
type Client interface {
	Create(ctx context.Context, text string) (models.Todo, error)
	List(ctx context.Context) (models.TodoList, error)
	// ListStreaming calls onItem for every streamed todo and onDone once the
	// stream is over. An error from onItem stops the stream early. A nil
	// onItem only counts the items.
	ListStreaming(ctx context.Context, onItem func(models.Todo) error, onDone func(StreamSummary)) error
	Close() error
}

func emit(onItem func(models.Todo) error, todo models.Todo) error {
	if onItem == nil {
		return nil
	}
	return onItem(todo)
}

func finish(onDone func(StreamSummary), count int, err error) error {
	if onDone != nil {
		onDone(StreamSummary{Count: count, Err: err})
	}
	return err
}
