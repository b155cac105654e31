// Package cli implements the certify command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	newApp AppFactory
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command. newApp builds the engine each
// subcommand runs against; nil means DefaultAppFactory.
func NewRootCommand(newApp AppFactory) *cobra.Command {
	if newApp == nil {
		newApp = DefaultAppFactory
	}
	opts := &RootOptions{newApp: newApp}

	cmd := &cobra.Command{
		Use:   "certify",
		Short: "certify - AML/CFT certification exam client",
		Long: `Redeem an access code, take the AML/CFT certification exam and collect
the certificate. Admins can enroll candidates and look up their results.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewTakeCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewAdminCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// withApp opens the engine for one command and closes it afterwards.
func withApp(opts *RootOptions, cmd *cobra.Command, fn func(app *App) error) error {
	app, err := opts.newApp(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		f := newFormatter(opts, cmd)
		_ = f.Error("BACKEND_UNAVAILABLE", err.Error(), nil)
		return WrapExitError(ExitCommandError, "open engine", err)
	}
	defer app.Close()
	return fn(app)
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
