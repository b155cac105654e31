package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/stemsi/exstem-certify/internal/exam"
	"github.com/stemsi/exstem-certify/internal/response"
)

// NewTakeCommand creates the take command.
func NewTakeCommand(rootOpts *RootOptions) *cobra.Command {
	var email, code string

	cmd := &cobra.Command{
		Use:   "take",
		Short: "Redeem an access code and take the exam",
		Long: `Redeem an access code, answer every question, enter the name to print
on the certificate, and submit. A passing submission saves the certificate
to CERTIFICATE_DIR. A failed submission can be retried without re-entering
answers; a graded one can never be resubmitted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(app *App) error {
				return runTake(cmd.Context(), rootOpts, cmd, app, email, code)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "candidate email (prompted when empty)")
	cmd.Flags().StringVar(&code, "code", "", "access code (prompted when empty)")

	return cmd
}

func runTake(ctx context.Context, opts *RootOptions, cmd *cobra.Command, app *App, email, code string) error {
	f := newFormatter(opts, cmd)
	p := NewPrompter(cmd.InOrStdin(), f.GetErrWriter())

	var err error
	if email == "" {
		if email, err = p.Required("Email: "); err != nil {
			return f.Fail(err)
		}
	}
	if code == "" {
		if code, err = p.Required("Access code: "); err != nil {
			return f.Fail(err)
		}
	}

	sess, err := app.Redemption.Redeem(ctx, email, code)
	if err != nil {
		return f.Fail(err)
	}
	f.VerboseLog("Session %s started with %d question(s)", sess.ID(), len(sess.Questions()))

	questions := sess.Questions()
	for i, q := range questions {
		ans, err := p.Answer(q, i+1, len(questions))
		if err != nil {
			return f.Fail(err)
		}
		if err := sess.RecordAnswer(q.ID, ans); err != nil {
			return f.Fail(err)
		}
	}

	name, err := p.Required("\nFull name for the certificate: ")
	if err != nil {
		return f.Fail(err)
	}
	if err := sess.SetCandidateName(name); err != nil {
		return f.Fail(err)
	}

	previous := app.Submission.Attempts()
	result, err := submitWithRetry(ctx, f, p, app, sess)
	if err != nil {
		return f.Fail(err)
	}

	if cert, ok := result.(*exam.Certified); ok && cert.SaveErr != nil {
		fmt.Fprintf(f.GetErrWriter(), "Warning: the certificate was issued but could not be saved: %v\n", cert.SaveErr)
	}

	proj := exam.Project(result, previous)
	if err := f.Success(proj, func(w io.Writer) error { return renderProjection(w, proj) }); err != nil {
		return err
	}
	if !proj.Passed {
		return NewExitError(ExitNotPassed, "exam not passed")
	}
	return nil
}

// submitWithRetry submits sess, offering a retry while the failure is
// retryable. The session keeps its answers between attempts.
func submitWithRetry(ctx context.Context, f *OutputFormatter, p *Prompter, app *App, sess *exam.Session) (exam.Result, error) {
	for {
		result, err := app.Submission.Submit(ctx, sess)
		if err == nil {
			return result, nil
		}

		var rerr *response.Error
		if !errors.As(err, &rerr) || !rerr.Retryable() {
			return nil, err
		}

		fmt.Fprintf(f.GetErrWriter(), "Submission failed: %s\n", rerr.UserMessage())
		again, perr := p.Confirm("Retry submission?", true)
		if perr != nil || !again {
			return nil, err
		}
	}
}
