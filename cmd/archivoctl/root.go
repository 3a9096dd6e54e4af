package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kirillkom/archivo-expedientes/internal/bootstrap"
	"github.com/kirillkom/archivo-expedientes/internal/config"
	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
	"github.com/kirillkom/archivo-expedientes/internal/observability/logging"
)

const cliName = "archivoctl"

// systemPrincipal acts for operator-run maintenance commands.
var systemPrincipal = domain.Principal{Username: cliName, Role: domain.RoleAdmin}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   cliName,
		Short: "Administrative tasks for the expediente archive",
		Long: `archivoctl runs maintenance tasks against the archive database:
schema migrations, catalog seeding, bootstrap of the first administrator
and audit log purges. Connection settings come from the same environment
variables (or .env file) as the API.`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newSeedCatalogCmd(),
		newCreateAdminCmd(),
		newPurgeAuditCmd(),
	)
	return root
}

func loadEnv() (config.Config, *slog.Logger) {
	cfg := config.Load()
	logger := logging.NewJSONLogger(cliName, cfg.LogLevel)
	slog.SetDefault(logger)
	return cfg, logger
}

// withAdminApp opens the database-backed use cases for the duration of fn.
func withAdminApp(ctx context.Context, fn func(app *bootstrap.App) error) error {
	cfg, logger := loadEnv()
	cfg.MigrateOnStart = false

	app, err := bootstrap.NewAdmin(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}
