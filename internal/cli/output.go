package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/stemsi/exstem-certify/internal/exam"
	"github.com/stemsi/exstem-certify/internal/model"
	"github.com/stemsi/exstem-certify/internal/response"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Engine error (rejected code, network, server fault, ...)
	ExitCommandError = 2 // Command error (bad flags, backend unavailable)
	ExitNotPassed    = 3 // Exam submitted but not passed
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // prompts and diagnostics; keeps JSON on Writer clean
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code      string `json:"code"` // error kind, e.g. "ALREADY_REDEEMED"
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Details   any    `json:"details,omitempty"`
}

// Success outputs data. Text mode calls render when given, otherwise
// prints data with fmt.
func (f *OutputFormatter) Success(data any, render func(w io.Writer) error) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	if render != nil {
		return render(f.Writer)
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	return f.writeError(&CLIError{Code: code, Message: message, Details: details})
}

// Fail renders err and returns it wrapped with ExitFailure. Engine errors
// show their kind and user message; anything else shows err.Error().
func (f *OutputFormatter) Fail(err error) error {
	cliErr := &CLIError{Code: "ERROR", Message: err.Error()}

	var rerr *response.Error
	if errors.As(err, &rerr) {
		cliErr.Code = string(rerr.Kind)
		cliErr.Message = rerr.UserMessage()
		cliErr.Retryable = rerr.Retryable()
		if len(rerr.Fields) > 0 {
			cliErr.Details = rerr.Fields
		}
	}

	_ = f.writeError(cliErr)
	return WrapExitError(ExitFailure, cliErr.Message, err)
}

func (f *OutputFormatter) writeError(e *CLIError) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "error", Error: e})
	}

	fmt.Fprintf(f.GetErrWriter(), "Error [%s]: %s\n", e.Code, e.Message)
	if fields, ok := e.Details.(map[string]string); ok {
		for _, k := range sortedKeys(fields) {
			fmt.Fprintf(f.GetErrWriter(), "  %s: %s\n", k, fields[k])
		}
	} else if f.Verbose && e.Details != nil {
		fmt.Fprintf(f.GetErrWriter(), "Details: %v\n", e.Details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// ─── Text renderers ────────────────────────────────────────────────────

func renderProjection(w io.Writer, p exam.Projection) error {
	if p.Passed {
		fmt.Fprintln(w, "Result: PASSED")
	} else {
		fmt.Fprintln(w, "Result: NOT PASSED")
	}

	if p.Certified {
		fmt.Fprintf(w, "Score: %.1f%%\n", p.Percentage)
		fmt.Fprintf(w, "Certificate: %s\n", p.CertificateFile)
		return nil
	}

	fmt.Fprintf(w, "Score: %d (%.1f%%, pass mark %.0f%%)\n", p.Score, p.Percentage, exam.PassThreshold)
	fmt.Fprintf(w, "Attempts used: %d of %d\n", p.AttemptsUsed, exam.MaxAttempts)
	fmt.Fprintf(w, "Attempts remaining: %d\n", p.AttemptsRemaining)

	switch {
	case p.Passed:
	case p.RetryEligible:
		fmt.Fprintln(w, "Ask your administrator for a new access code to try again.")
	default:
		fmt.Fprintln(w, "No attempts remaining.")
	}
	return nil
}

// StatusView is the credential summary shown by `certify status`.
type StatusView struct {
	Role          model.Role `json:"role"`
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	Backend       string     `json:"backend"`
}

func renderStatus(w io.Writer, s StatusView) error {
	if !s.Authenticated {
		fmt.Fprintln(w, "Not signed in.")
	} else {
		fmt.Fprintf(w, "Signed in as: %s\n", s.Role)
		if s.ExpiresAt != nil {
			fmt.Fprintf(w, "Token expires: %s\n", s.ExpiresAt.UTC().Format(time.RFC3339))
		}
	}
	fmt.Fprintf(w, "Credential backend: %s\n", s.Backend)
	return nil
}

func renderEnrollments(w io.Writer, list []model.Enrollment) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No enrollments.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tACCESS CODE\tUSED\tATTEMPTS\tPASSED")
	for _, e := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			e.ID, e.Email, orDash(e.AccessCode), yesNo(e.Used), e.Attempts, yesNo(e.Passed))
	}
	return tw.Flush()
}

func renderEnrollment(w io.Writer, e *model.Enrollment) error {
	fmt.Fprintf(w, "Enrolled: %s\n", e.Email)
	fmt.Fprintf(w, "ID: %s\n", e.ID)
	fmt.Fprintf(w, "Access code: %s\n", orDash(e.AccessCode))
	return nil
}

func renderCandidateResult(w io.Writer, r *model.CandidateResult) error {
	fmt.Fprintf(w, "Candidate: %s\n", r.Email)
	if r.Name != "" {
		fmt.Fprintf(w, "Name: %s\n", r.Name)
	}
	fmt.Fprintf(w, "Score: %d (%.1f%%)\n", r.Score, r.Percentage)
	fmt.Fprintf(w, "Passed: %s\n", yesNo(r.Passed))
	fmt.Fprintf(w, "Attempts: %d of %d\n", r.Attempts, exam.MaxAttempts)
	if r.TakenAt != nil {
		fmt.Fprintf(w, "Taken at: %s\n", r.TakenAt.UTC().Format(time.RFC3339))
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
