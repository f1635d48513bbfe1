package gate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openmailtools/applemail-mcp/internal/applescript"
)

// Class is a stable error classification string. These values are part of
// the tool response contract ({error_type: ...}) and must not change between
// releases. User-visible failures carry a Class and a curated message, never
// raw AppleScript diagnostics or internal paths.
type Class string

const (
	ClassValidation           Class = "validation_error"
	ClassPolicyDenied         Class = "policy_denied"
	ClassConfirmationRequired Class = "confirmation_required"
	ClassBackend              Class = "backend_error"
	ClassEscape               Class = "escape_error"
	ClassTimeout              Class = "timeout"
)

// Error is a classified gate or backend failure.
type Error struct {
	Class     Class
	Message   string
	Retryable bool
	cause     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewValidationError wraps sanitizer violations. Recoverable by the caller
// correcting arguments.
func NewValidationError(violations []string) *Error {
	return &Error{
		Class:   ClassValidation,
		Message: strings.Join(violations, "; "),
	}
}

// NewPolicyDenied reports a rate-limit or whitelist denial. Not retryable
// without waiting or reconfiguration.
func NewPolicyDenied(reason string) *Error {
	return &Error{
		Class:   ClassPolicyDenied,
		Message: reason,
	}
}

// NewConfirmationRequired is the distinct destructive-op outcome: not a
// failure, but a prompt for a follow-up call carrying the confirmation token.
func NewConfirmationRequired() *Error {
	return &Error{
		Class:   ClassConfirmationRequired,
		Message: "confirmation required",
	}
}

// ClassifyBackend converts a mail backend failure into a classified error
// with a stable, non-leaking message. Timeouts are retryable; the not-found
// family is not.
func ClassifyBackend(err error) *Error {
	switch {
	case errors.Is(err, applescript.ErrTimeout):
		return &Error{Class: ClassTimeout, Message: "mail operation timed out", Retryable: true, cause: err}
	case errors.Is(err, applescript.ErrAccountNotFound):
		return &Error{Class: ClassBackend, Message: "mail account not found", cause: err}
	case errors.Is(err, applescript.ErrMailboxNotFound):
		return &Error{Class: ClassBackend, Message: "mailbox not found", cause: err}
	case errors.Is(err, applescript.ErrMessageNotFound):
		return &Error{Class: ClassBackend, Message: "message not found", cause: err}
	case errors.Is(err, applescript.ErrUnrepresentable):
		return &Error{Class: ClassEscape, Message: "input contains characters that cannot be sent to Mail", cause: err}
	default:
		return &Error{Class: ClassBackend, Message: "mail operation failed", cause: err}
	}
}

// ClassOf extracts the classification from any error, defaulting to
// backend_error for unclassified failures.
func ClassOf(err error) Class {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Class
	}
	return ClassBackend
}

// UserMessage returns the user-visible message for any error. Unclassified
// errors get a generic message so internal details never leak.
func UserMessage(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Message
	}
	return fmt.Sprintf("operation failed (%s)", ClassBackend)
}
