package main

import (
	"context"

	"github.com/spf13/cobra"

	"vidforge/internal/infra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := infra.NewLogger(cfg.AppEnv)

			ctx := context.Background()
			pool, err := infra.NewDBPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := infra.Migrate(ctx, pool); err != nil {
				return err
			}
			logger.Info().Msg("schema applied")
			return nil
		},
	}
}
