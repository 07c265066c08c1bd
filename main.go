package main

import (
	"fmt"
	"os"

	"github.com/go-i2p/logger"
	"github.com/spf13/cobra"

	"github.com/go-i2p/ircloop/lib/config"
)

var log = logger.GetGoI2PLogger()

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0-dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ircloop",
		Short: "Keep a set of IRC sessions connected, registered and joined",
		Long: `ircloop drives any number of IRC sessions from one periodic tick. Each
session is connected, identified, joined to its channels and kept alive,
and is reconnected when the connection drops.

Sessions are declared in a YAML file (default ~/.ircloop/config.yaml).
SIGHUP or editing the file applies changes without a restart.

Logging is controlled by the environment:
  DEBUG_I2P=debug|warn|error   enable logging at that level
  WARNFAIL_I2P=true            make warnings and errors fatal`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&config.CfgFile, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(newRunCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "ircloop", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Error("ircloop exited with an error")
		fmt.Fprintln(os.Stderr, "ircloop:", err)
		os.Exit(1)
	}
}
