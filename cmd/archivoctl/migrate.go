package main

import (
	"github.com/spf13/cobra"

	"github.com/kirillkom/archivo-expedientes/internal/infrastructure/repository/postgres"
)

func newMigrateCmd() *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply (or roll back) database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := loadEnv()
			if down {
				return postgres.MigrateDown(cfg.PostgresDSN, logger)
			}
			return postgres.Migrate(cfg.PostgresDSN, logger)
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back every migration")
	return cmd
}
