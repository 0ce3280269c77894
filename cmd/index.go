package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zheng/callscope/internal/graph"
	"github.com/zheng/callscope/internal/storage"
)

func indexCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "index [dump-path]",
		Short: "Import a text call-graph dump into a sqlite cache",
		Long: `Parse a collector dump once and persist it as a sqlite database. Both
extract and daemon accept the cache directly (any -g path ending in .db or
.sqlite), which skips re-parsing large dumps on every start.

Example:
  callscope index vmlinux.graph -o vmlinux.db
  callscope daemon -g vmlinux.db`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dumpPath := GraphPath
			if len(args) > 0 {
				dumpPath = args[0]
			}

			f, err := os.Open(dumpPath)
			if err != nil {
				return fmt.Errorf("open dump: %w", err)
			}
			defer f.Close()

			g, err := graph.Parse(f)
			if err != nil {
				return fmt.Errorf("parse dump: %w", err)
			}

			db, err := storage.Open(outputPath)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer db.Close()

			if err := db.ImportGraph(g); err != nil {
				return fmt.Errorf("import graph: %w", err)
			}

			nodes, edges, _ := db.GetStats()
			fmt.Printf("indexed %s: %d functions, %d calls -> %s\n", dumpPath, nodes, edges, outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "callscope.db", "cache database path")
	return cmd
}
