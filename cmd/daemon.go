package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zheng/callscope/internal/daemon"
)

func daemonCmd() *cobra.Command {
	var pipePath string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run as a persistent extraction server",
		Long: `Parse the call-graph source once and serve extraction requests from a
named pipe until interrupted. Requests are submitted with "callscope send";
each is processed to completion before the next is read. Bad requests are
logged and skipped, never fatal.

Example:
  callscope daemon -g vmlinux.graph
  callscope send -f sys_open --depth 2 -o open.dot`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pipePath == "" {
				pipePath = viper.GetString("pipe")
			}

			log := slog.New(slog.NewTextHandler(os.Stderr, nil))
			srv, err := daemon.NewServer(GraphPath, pipePath, daemon.WithLogger(log))
			if err != nil {
				return fmt.Errorf("start daemon: %w", err)
			}
			defer srv.Stop()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&pipePath, "pipe", "", "request pipe path (default from config)")
	return cmd
}
