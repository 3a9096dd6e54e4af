package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/archivo-expedientes/internal/bootstrap"
	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

func newCreateAdminCmd() *cobra.Command {
	var in domain.CreateUserInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long: `create-admin creates a user with the administrador role. It is the
only way to obtain the first account on an empty database. The password
may also be supplied through ARCHIVO_ADMIN_PASSWORD.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Password == "" {
				in.Password = os.Getenv("ARCHIVO_ADMIN_PASSWORD")
			}
			if in.Password == "" {
				return errors.New("--password or ARCHIVO_ADMIN_PASSWORD is required")
			}
			return withAdminApp(cmd.Context(), func(app *bootstrap.App) error {
				user, err := app.Users.BootstrapAdmin(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "administrator %q created with id %d\n", user.Username, user.ID)
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&in.Username, "username", "admin", "login name")
	flags.StringVar(&in.Email, "email", "", "e-mail address")
	flags.StringVar(&in.Password, "password", "", "initial password")
	flags.StringVar(&in.Nombre, "name", "", "given name")
	flags.StringVar(&in.ApellidoPaterno, "apellido", "", "paternal surname")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
