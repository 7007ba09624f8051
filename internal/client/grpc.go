package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/ytakahashi/todo-rpc/internal/models"
	"github.com/ytakahashi/todo-rpc/internal/rpc"
)

type GRPCClient struct {
	conn *grpc.ClientConn
	rpc  *rpc.TodoClient
}

// DialGRPC connects without transport security; securing the channel is
// left to the deployment. Dialing does not block, so the error here only
// covers a malformed target or options. An unreachable server surfaces as a
// TransportError on the first call.
func DialGRPC(ctx context.Context, addr string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)

	conn, err := grpc.DialContext(ctx, addr, opts...)
	if err != nil {
		return nil, &TransportError{Op: "dial", Err: err}
	}
	return NewGRPCClient(conn), nil
}

func NewGRPCClient(conn *grpc.ClientConn) *GRPCClient {
	return &GRPCClient{
		conn: conn,
		rpc:  rpc.NewTodoClient(conn),
	}
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) Create(ctx context.Context, text string) (models.Todo, error) {
	todo, err := c.rpc.CreateTodo(ctx, &models.CreateTodoRequest{Text: text})
	if err != nil {
		return models.Todo{}, grpcError("create", err)
	}
	return *todo, nil
}

func (c *GRPCClient) List(ctx context.Context) (models.TodoList, error) {
	list, err := c.rpc.ReadTodos(ctx, &models.ReadTodosRequest{})
	if err != nil {
		return models.TodoList{}, grpcError("list", err)
	}
	if list.Items == nil {
		list.Items = []models.Todo{}
	}
	return *list, nil
}

func (c *GRPCClient) ListStreaming(ctx context.Context, onItem func(models.Todo) error, onDone func(StreamSummary)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.rpc.ReadTodosStream(ctx, &models.ReadTodosRequest{})
	if err != nil {
		return finish(onDone, 0, grpcError("stream", err))
	}

	var count int
	for {
		todo, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return finish(onDone, count, nil)
		}
		if err != nil {
			return finish(onDone, count, grpcError("stream", err))
		}
		count++
		if err := emit(onItem, *todo); err != nil {
			return finish(onDone, count, err)
		}
	}
}

func grpcError(op string, err error) error {
	if st, ok := status.FromError(err); ok && st.Code() == codes.InvalidArgument {
		return fmt.Errorf("%s: %w: %s", op, ErrInvalidArgument, st.Message())
	}
	return &TransportError{Op: op, Err: err}
}
