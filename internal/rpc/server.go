package rpc

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ytakahashi/todo-rpc/internal/metrics"
	"github.com/ytakahashi/todo-rpc/internal/models"
	"github.com/ytakahashi/todo-rpc/internal/services"
)

type Server struct {
	todos *services.TodoService
	log   *zap.Logger
}

func NewServer(todos *services.TodoService, log *zap.Logger) *Server {
	return &Server{
		todos: todos,
		log:   log,
	}
}

// NewGRPCServer builds a grpc.Server with the todo service registered and
// the recovery, logging and metrics interceptors installed.
func NewGRPCServer(todos *services.TodoService, log *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.ForceServerCodec(Codec()),
		grpc.ChainUnaryInterceptor(
			Recovery(log),
			Logger(log),
			Metrics(),
		),
		grpc.ChainStreamInterceptor(
			StreamRecovery(log),
			StreamLogger(log),
			StreamMetrics(),
		),
	}, opts...)

	s := grpc.NewServer(opts...)
	RegisterTodoServer(s, NewServer(todos, log))
	return s
}

func (s *Server) CreateTodo(ctx context.Context, req *models.CreateTodoRequest) (*models.Todo, error) {
	todo, err := s.todos.CreateTodo(ctx, req.Text)
	if err != nil {
		return nil, toStatus(err)
	}
	return &todo, nil
}

func (s *Server) ReadTodos(ctx context.Context, _ *models.ReadTodosRequest) (*models.TodoList, error) {
	list, err := s.todos.ReadTodos(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &list, nil
}

func (s *Server) ReadTodosStream(_ *models.ReadTodosRequest, stream TodoStreamServer) error {
	ctx := stream.Context()

	todos, err := s.todos.ReadTodosStream(ctx)
	if err != nil {
		return toStatus(err)
	}

	err = todos.Drain(ctx, func(todo models.Todo) error {
		if err := stream.Send(&todo); err != nil {
			return err
		}
		metrics.StreamItemsTotal.WithLabelValues("grpc").Inc()
		return nil
	})
	if err != nil {
		s.log.Debug("todo stream stopped early", zap.Error(err))
		return toStatus(err)
	}
	return nil
}

func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, services.ErrEmptyText):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Errorf(codes.Internal, "%v", err)
	}
}
