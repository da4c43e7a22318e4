package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the GigDir CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gigdir",
		Short: "GigDir - band and gig directory server",
		Long: `GigDir is the HTTP API server for the band and gig directory,
handling accounts, authentication, and password resets.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
