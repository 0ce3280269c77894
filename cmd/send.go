package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zheng/callscope/internal/daemon"
)

func sendCmd() *cobra.Command {
	var rf requestFlags
	var pipePath string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Submit one extraction request to a running daemon",
		Long: `Encode the extraction parameters as a single request record and write it
to the daemon's pipe. There is no response channel: outcomes appear as the
requested output artifact and on the daemon's status stream (redirectable
per request with --status-file).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pipePath == "" {
				pipePath = viper.GetString("pipe")
			}
			return daemon.Submit(pipePath, rf.buildRequest())
		},
	}

	addRequestFlags(cmd, &rf)
	cmd.Flags().StringVar(&pipePath, "pipe", "", "request pipe path (default from config)")
	return cmd
}
