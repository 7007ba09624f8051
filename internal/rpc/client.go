package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/ytakahashi/todo-rpc/internal/models"
)

// TodoClient is the client API for the todo service.
type TodoClient struct {
	cc grpc.ClientConnInterface
}

func NewTodoClient(cc grpc.ClientConnInterface) *TodoClient {
	return &TodoClient{cc: cc}
}

func (c *TodoClient) CreateTodo(ctx context.Context, in *models.CreateTodoRequest, opts ...grpc.CallOption) (*models.Todo, error) {
	out := new(models.Todo)
	if err := c.cc.Invoke(ctx, createTodoMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TodoClient) ReadTodos(ctx context.Context, in *models.ReadTodosRequest, opts ...grpc.CallOption) (*models.TodoList, error) {
	out := new(models.TodoList)
	if err := c.cc.Invoke(ctx, readTodosMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TodoClient) ReadTodosStream(ctx context.Context, in *models.ReadTodosRequest, opts ...grpc.CallOption) (TodoStreamClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], readTodosStreamMethod, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &todoStreamClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// TodoStreamClient is the client side of ReadTodosStream. Recv returns
// io.EOF once the server has sent every item.
type TodoStreamClient interface {
	Recv() (*models.Todo, error)
	grpc.ClientStream
}

type todoStreamClient struct {
	grpc.ClientStream
}

func (x *todoStreamClient) Recv() (*models.Todo, error) {
	m := new(models.Todo)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.ForceCodec(Codec())}, opts...)
}
