package cli

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/stemsi/exstem-certify/internal/model"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show the stored credential",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(app *App) error {
				view := StatusView{
					Role:          app.Creds.Role(),
					Authenticated: app.Creds.Role() != model.RoleAnonymous,
					Backend:       app.Config.CredentialBackend,
				}
				if exp, ok := app.Creds.ExpiresAt(); ok {
					view.ExpiresAt = &exp
				}
				f := newFormatter(rootOpts, cmd)
				return f.Success(view, func(w io.Writer) error { return renderStatus(w, view) })
			})
		},
	}
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "logout",
		Short:         "Delete the stored credential",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(app *App) error {
				f := newFormatter(rootOpts, cmd)
				if err := app.Auth.Logout(cmd.Context()); err != nil {
					return f.Fail(err)
				}
				return f.Success(map[string]bool{"loggedOut": true}, func(w io.Writer) error {
					_, err := io.WriteString(w, "Logged out.\n")
					return err
				})
			})
		},
	}
}
