package response

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure kinds surfaced by the engine. Callers
// branch on Kind rather than parsing Message.
type Kind string

const (
	// ─── Local ─────────────────────────────────────────────────────────
	KindPreconditionFailed Kind = "PRECONDITION_FAILED"
	KindStoreFailed        Kind = "STORE_FAILED"

	// ─── Authentication ────────────────────────────────────────────────
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindAlreadyRedeemed    Kind = "ALREADY_REDEEMED"
	KindRejected           Kind = "REJECTED"

	// ─── Transport / Server ────────────────────────────────────────────
	KindNetworkFailure   Kind = "NETWORK_FAILURE"
	KindServerFault      Kind = "SERVER_FAULT"
	KindValidationFailed Kind = "VALIDATION_FAILED"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrPreconditionFailed = &Error{Kind: KindPreconditionFailed}
	ErrStoreFailed        = &Error{Kind: KindStoreFailed}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrAlreadyRedeemed    = &Error{Kind: KindAlreadyRedeemed}
	ErrRejected           = &Error{Kind: KindRejected}
	ErrNetworkFailure     = &Error{Kind: KindNetworkFailure}
	ErrServerFault        = &Error{Kind: KindServerFault}
	ErrValidationFailed   = &Error{Kind: KindValidationFailed}
)

// Retryable reports whether the same request may be sent again.
func (k Kind) Retryable() bool {
	return k == KindNetworkFailure || k == KindServerFault
}

// GetMessage returns a human-readable fallback message for a given kind.
func GetMessage(kind Kind) string {
	switch kind {
	case KindPreconditionFailed:
		return "The request is incomplete."
	case KindStoreFailed:
		return "Could not save your sign-in on this device."
	case KindInvalidCredentials:
		return "Email or access code is incorrect."
	case KindAlreadyRedeemed:
		return "This access code has already been used."
	case KindRejected:
		return "The request was rejected."
	case KindNetworkFailure:
		return "Could not reach the exam server. Please try again."
	case KindServerFault:
		return "The exam server had a problem. Please try again."
	case KindValidationFailed:
		return "The exam server sent an unexpected response."
	default:
		return "An unexpected error occurred."
	}
}

// Error is the engine's discriminated failure value.
type Error struct {
	Kind    Kind
	Message string
	// Fields carries per-field messages for local validation failures.
	Fields map[string]string
	// Status is the HTTP status when the failure came from a response.
	Status int
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = GetMessage(e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Retryable reports whether the failed request may be retried unchanged.
func (e *Error) Retryable() bool {
	return e.Kind.Retryable()
}

// UserMessage is the text a consumer should display verbatim.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return GetMessage(e.Kind)
}

// New creates an error with a kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind wrapping an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Precondition creates a local PreconditionFailed error with field details.
func Precondition(message string, fields map[string]string) *Error {
	return &Error{Kind: KindPreconditionFailed, Message: message, Fields: fields}
}

// KindOf extracts the Kind from err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
