package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/archivo-expedientes/internal/bootstrap"
	"github.com/kirillkom/archivo-expedientes/internal/infrastructure/seed"
)

func newSeedCatalogCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-catalog",
		Short: "Load units, sections, series and subseries from a YAML file",
		Long: `seed-catalog upserts the archive catalog from a YAML document
(see configs/catalog.example.yaml). Existing rows are matched by code,
so the command can be rerun safely.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := seed.LoadCatalog(file)
			if err != nil {
				return err
			}
			return withAdminApp(cmd.Context(), func(app *bootstrap.App) error {
				summary, err := app.Catalog.ImportCatalog(cmd.Context(), doc)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "catalog imported: %d unidades, %d secciones, %d series, %d subseries\n",
					summary.Units, summary.Sections, summary.Series, summary.Subseries)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "configs/catalog.example.yaml", "catalog YAML file")
	return cmd
}
