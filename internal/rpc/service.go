package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/ytakahashi/todo-rpc/internal/models"
)

const (
	ServiceName = "todo.v1.TodoService"

	createTodoMethod      = "/" + ServiceName + "/CreateTodo"
	readTodosMethod       = "/" + ServiceName + "/ReadTodos"
	readTodosStreamMethod = "/" + ServiceName + "/ReadTodosStream"
)

// TodoServer is the server API for the todo service.
type TodoServer interface {
	CreateTodo(context.Context, *models.CreateTodoRequest) (*models.Todo, error)
	ReadTodos(context.Context, *models.ReadTodosRequest) (*models.TodoList, error)
	ReadTodosStream(*models.ReadTodosRequest, TodoStreamServer) error
}

// TodoStreamServer is the server side of ReadTodosStream.
type TodoStreamServer interface {
	Send(*models.Todo) error
	grpc.ServerStream
}

type todoStreamServer struct {
	grpc.ServerStream
}

func (x *todoStreamServer) Send(m *models.Todo) error {
	return x.ServerStream.SendMsg(m)
}

func RegisterTodoServer(s grpc.ServiceRegistrar, srv TodoServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func createTodoHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(models.CreateTodoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TodoServer).CreateTodo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: createTodoMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TodoServer).CreateTodo(ctx, req.(*models.CreateTodoRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func readTodosHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(models.ReadTodosRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TodoServer).ReadTodos(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: readTodosMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TodoServer).ReadTodos(ctx, req.(*models.ReadTodosRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func readTodosStreamHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(models.ReadTodosRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(TodoServer).ReadTodosStream(in, &todoStreamServer{stream})
}

// ServiceDesc describes todo.v1.TodoService. Messages are plain Go structs
// carried by the msgpack codec, so no generated code is involved.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TodoServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateTodo",
			Handler:    createTodoHandler,
		},
		{
			MethodName: "ReadTodos",
			Handler:    readTodosHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ReadTodosStream",
			Handler:       readTodosStreamHandler,
			ServerStreams: true,
		},
	},
	Metadata: "internal/rpc/service.go",
}
