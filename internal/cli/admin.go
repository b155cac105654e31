package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// NewAdminCommand creates the admin command group.
func NewAdminCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Enrollment administration",
		Long: `Sign in as an admin, enroll candidates, list or remove enrollments and
look up a candidate's latest result. Every subcommand except login needs a
stored admin credential.`,
	}

	cmd.AddCommand(newAdminLoginCommand(rootOpts))
	cmd.AddCommand(newAdminEnrollCommand(rootOpts))
	cmd.AddCommand(newAdminEnrollmentsCommand(rootOpts))
	cmd.AddCommand(newAdminUnenrollCommand(rootOpts))
	cmd.AddCommand(newAdminResultCommand(rootOpts))

	return cmd
}

func newAdminLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:           "login",
		Short:         "Sign in as an admin",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(app *App) error {
				f := newFormatter(rootOpts, cmd)
				p := NewPrompter(cmd.InOrStdin(), f.GetErrWriter())

				var err error
				if email == "" {
					if email, err = p.Required("Admin email: "); err != nil {
						return f.Fail(err)
					}
				}
				password, err := p.Secret("Password: ")
				if err != nil {
					return f.Fail(err)
				}

				if err := app.Auth.AdminLogin(cmd.Context(), email, password); err != nil {
					return f.Fail(err)
				}
				return f.Success(map[string]string{"role": string(app.Creds.Role())}, func(w io.Writer) error {
					_, err := io.WriteString(w, "Signed in as admin.\n")
					return err
				})
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email (prompted when empty)")
	return cmd
}

func newAdminEnrollCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "enroll <email>",
		Short:         "Enroll a candidate and print the access code",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(app *App) error {
				f := newFormatter(rootOpts, cmd)
				enr, err := app.Admin.Enroll(cmd.Context(), args[0])
				if err != nil {
					return f.Fail(err)
				}
				return f.Success(enr, func(w io.Writer) error { return renderEnrollment(w, enr) })
			})
		},
	}
}

func newAdminEnrollmentsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "enrollments",
		Short:         "List enrollments",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(app *App) error {
				f := newFormatter(rootOpts, cmd)
				list, err := app.Admin.ListEnrollments(cmd.Context())
				if err != nil {
					return f.Fail(err)
				}
				return f.Success(list, func(w io.Writer) error { return renderEnrollments(w, list) })
			})
		},
	}
}

func newAdminUnenrollCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "unenroll <id> <email>",
		Short:         "Remove an enrollment",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(app *App) error {
				f := newFormatter(rootOpts, cmd)
				if err := app.Admin.Unenroll(cmd.Context(), args[0], args[1]); err != nil {
					return f.Fail(err)
				}
				return f.Success(map[string]string{"unenrolled": args[0]}, func(w io.Writer) error {
					_, err := io.WriteString(w, "Unenrolled "+args[1]+".\n")
					return err
				})
			})
		},
	}
}

func newAdminResultCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "result <email>",
		Short:         "Show a candidate's latest result",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(app *App) error {
				f := newFormatter(rootOpts, cmd)
				res, err := app.Admin.CandidateResult(cmd.Context(), args[0])
				if err != nil {
					return f.Fail(err)
				}
				return f.Success(res, func(w io.Writer) error { return renderCandidateResult(w, res) })
			})
		},
	}
}
