package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ytakahashi/todo-rpc/internal/client"
	"github.com/ytakahashi/todo-rpc/internal/models"
	"github.com/ytakahashi/todo-rpc/internal/ui"
)

var (
	transport string
	addr      string
)

var rootCmd = &cobra.Command{
	Use:   "todoctl",
	Short: "Client for the todo service",
	Long: `todoctl talks to the todo server over gRPC (default) or HTTP.

Example:
  todoctl create buy milk
  todoctl list
  todoctl stream --transport http --addr localhost:8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var createCmd = &cobra.Command{
	Use:   "create <text...>",
	Short: "Create a todo",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c client.Client) error {
			todo, err := c.Create(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Created(todo))
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all todos",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c client.Client) error {
			list, err := c.List(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.List(list))
			return nil
		})
	},
}

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream all todos one at a time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c client.Client) error {
			out := cmd.OutOrStdout()
			return c.ListStreaming(ctx, func(todo models.Todo) error {
				fmt.Fprintln(out, ui.Todo(todo))
				return nil
			}, func(s client.StreamSummary) {
				if s.Err == nil {
					fmt.Fprintln(out, ui.StreamDone(s.Count))
				}
			})
		})
	},
}

func withClient(ctx context.Context, fn func(context.Context, client.Client) error) error {
	var (
		c   client.Client
		err error
	)

	switch transport {
	case "grpc":
		c, err = client.DialGRPC(ctx, addrOr("localhost:40000"))
	case "http":
		c, err = client.NewHTTP(addrOr("localhost:8080"))
	default:
		return fmt.Errorf("unknown transport %q (want grpc or http)", transport)
	}
	if err != nil {
		return err
	}
	defer c.Close()

	return fn(ctx, c)
}

func addrOr(fallback string) string {
	if addr != "" {
		return addr
	}
	return fallback
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&transport, "transport", "t", "grpc", "transport to use: grpc or http")
	rootCmd.PersistentFlags().StringVarP(&addr, "addr", "a", "", "server address (default localhost:40000 for grpc, localhost:8080 for http)")
	rootCmd.AddCommand(createCmd, listCmd, streamCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Error(err))
		os.Exit(1)
	}
}
