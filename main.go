package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zheng/callscope/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "callscope",
		Short: "Filtered call-graph extraction for large codebases",
		Long: `callscope turns a whole-program call graph into small, readable DOT
subgraphs rooted at functions of interest: forward or reverse traversal,
depth bounds, ignore/show/trim filters and path pruning to an end function.
A daemon mode keeps one parsed graph resident and serves repeated
extraction requests over a named pipe.`,
	}

	cmd.RegisterCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
