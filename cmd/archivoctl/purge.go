package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/archivo-expedientes/internal/bootstrap"
)

func newPurgeAuditCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge-audit",
		Short: "Delete bitácora entries older than the given number of days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdminApp(cmd.Context(), func(app *bootstrap.App) error {
				deleted, err := app.Audit.Purge(cmd.Context(), systemPrincipal, days)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purged %d audit entries older than %d days\n", deleted, days)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 365, "retention window in days")
	return cmd
}
