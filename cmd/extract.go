package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/zheng/callscope/internal/daemon"
	"github.com/zheng/callscope/internal/extract"
	"github.com/zheng/callscope/internal/graph"
)

func extractCmd() *cobra.Command {
	var rf requestFlags

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract a filtered subgraph rooted at functions of interest",
		Long: `Parse the call-graph source, walk it from the requested roots and write
a filtered DOT description (or a rendered image via graphviz).

Examples:
  callscope extract -g full.graph -f sys_open
  callscope extract -f "sys_read;sys_write" --depth 3 --trim --format png
  callscope extract -f start_kernel --end panic -r`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := graph.Load(GraphPath)
			if err != nil {
				return fmt.Errorf("load call graph: %w", err)
			}

			log := slog.New(slog.NewTextHandler(os.Stderr, nil))
			err = daemon.Run(cmd.Context(), g, rf.buildRequest(), log)
			if errors.Is(err, extract.ErrEmptyResult) {
				// Reported, never fatal: the filters ate everything.
				fmt.Fprintln(os.Stderr, "no output produced:", err)
				return nil
			}
			return err
		},
	}

	addRequestFlags(cmd, &rf)
	return cmd
}
