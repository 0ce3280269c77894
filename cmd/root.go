package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zheng/callscope/internal/daemon"
	"github.com/zheng/callscope/internal/render"
)

var (
	// GraphPath is the call-graph source (text dump or sqlite cache).
	GraphPath string
	// CfgFile overrides the config file location.
	CfgFile string
)

// RegisterCommands adds all subcommands to the root command
func RegisterCommands(rootCmd *cobra.Command) {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&GraphPath, "graph", "g", "full.graph", "call-graph source (.graph dump or .db cache)")
	rootCmd.PersistentFlags().StringVar(&CfgFile, "config", "", "config file (default $HOME/.callscope.yaml)")

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(daemonCmd())
	rootCmd.AddCommand(sendCmd())
	rootCmd.AddCommand(indexCmd())
}

// initConfig reads rendering and daemon defaults from the config file, if
// one exists. Flags always win over config values.
func initConfig() {
	if CfgFile != "" {
		viper.SetConfigFile(CfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".callscope")
		viper.SetConfigType("yaml")
	}

	viper.SetDefault("format", render.FormatDot)
	viper.SetDefault("font", "Helvetica")
	viper.SetDefault("font-size", 12)
	viper.SetDefault("rankdir", "LR")
	viper.SetDefault("pipe", defaultPipePath)
	viper.SetDefault("dot-bin", "dot")

	viper.SetEnvPrefix("CALLSCOPE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "using config:", viper.ConfigFileUsed())
	}

	daemon.Renderer = render.Renderer{DotBin: viper.GetString("dot-bin")}
}
