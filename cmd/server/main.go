package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/ytakahashi/todo-rpc/internal/config"
	"github.com/ytakahashi/todo-rpc/internal/handlers"
	"github.com/ytakahashi/todo-rpc/internal/logger"
	"github.com/ytakahashi/todo-rpc/internal/rpc"
	"github.com/ytakahashi/todo-rpc/internal/services"
	"github.com/ytakahashi/todo-rpc/internal/store"
)

func main() {
	cfg, loaded := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logg, err := logger.New(cfg, "todo-server")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logg.Sync()

	if !loaded {
		logg.Info("no .env file found")
	}

	if err := run(cfg, logg); err != nil {
		logg.Fatal("server failed", zap.Error(err))
	}
}

func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.StoreBackend == config.StoreFirestore {
		return store.NewFirestore(ctx, cfg.ProjectID)
	}
	return store.NewMemory(), nil
}

func run(cfg *config.Config, logg *zap.Logger) error {
	ctx := context.Background()

	st, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	todos := services.NewTodoService(st)
	defer todos.Close()

	var webhookHandler *handlers.WebhookHandler
	if cfg.LineEnabled() {
		bot, err := messaging_api.NewMessagingApiAPI(cfg.LineChannelToken)
		if err != nil {
			return err
		}
		webhookHandler = handlers.NewWebhookHandler(bot, cfg.LineChannelSecret, todos, logg)
	}

	e := handlers.NewRouter(handlers.NewTodoHandler(todos, logg), webhookHandler)
	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: handlers.Instrument(e, logg),
	}

	httpLis, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", httpServer.Addr, err)
	}
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		_ = httpLis.Close()
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCAddr, err)
	}
	grpcServer := rpc.NewGRPCServer(todos, logg)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logg.Info("serving",
		zap.String("http_addr", httpLis.Addr().String()),
		zap.String("grpc_addr", grpcLis.Addr().String()),
		zap.String("store", cfg.StoreBackend),
		zap.Bool("line_webhook", webhookHandler != nil),
	)
	return serve(ctx, logg, httpServer, httpLis, grpcServer, grpcLis)
}

// serve runs both servers until ctx is done or either of them fails, then
// shuts both down. A failed server is returned as the error.
func serve(ctx context.Context, logg *zap.Logger, httpServer *http.Server, httpLis net.Listener, grpcServer *grpc.Server, grpcLis net.Listener) error {
	wg := new(sync.WaitGroup)
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server failed: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := grpcServer.Serve(grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server failed: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logg.Info("shutting down")
	case serveErr = <-errCh:
		logg.Error("shutting down", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Warn("http server forced to shutdown", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logg.Warn("grpc server forced to shutdown")
		grpcServer.Stop()
	}

	wg.Wait()
	logg.Info("server exited")
	return serveErr
}
