package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/collectwise/debtchat/config"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(configPath(cmd))
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (provider %s, model %s, port %d)\n",
				cfg.Completion.Provider, cfg.Completion.Model, cfg.Server.Port)
			return nil
		},
	}
}
