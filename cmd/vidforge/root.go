package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"vidforge/internal/infra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vidforge",
		Short:         "AI video generation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newWorkerCommand())
	rootCmd.AddCommand(newMigrateCommand())

	return rootCmd
}

// loadConfig loads .env (optional) and the environment configuration.
func loadConfig() (*infra.Config, error) {
	_ = godotenv.Load()
	return infra.LoadConfig()
}
