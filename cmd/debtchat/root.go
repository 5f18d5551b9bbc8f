package main

import (
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "v0.1.0"

const rootLongDesc string = `debtchat serves the CollectWise negotiation chatbot.

The browser widget posts the whole conversation to /api/chat and receives
the next bot reply; the server keeps no conversation state.`

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "debtchat",
		Short:         "Debt-negotiation chat service",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to YAML configuration file (default: built-in defaults)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
