package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyTool      = "tool"
	KeyAccount   = "account"
	KeyMailbox   = "mailbox"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyDecision  = "decision"
	KeyError     = "error"
	KeyUserHash  = "user_hash"
)

// Status values for consistent logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusDenied  = "denied"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Account returns a slog attribute for the account name.
func Account(account string) slog.Attr {
	return slog.String(KeyAccount, account)
}

// Mailbox returns a slog attribute for the mailbox name.
func Mailbox(mailbox string) slog.Attr {
	return slog.String(KeyMailbox, mailbox)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Decision returns a slog attribute for a policy decision effect.
func Decision(effect string) slog.Attr {
	return slog.String(KeyDecision, effect)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from
// output. This allows safely passing Err(maybeNilErr) without adding empty
// attributes.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// RedactAddress returns a hashed representation of an email address for
// logging purposes. This allows correlation of log entries without exposing
// PII.
func RedactAddress(address string) string {
	if address == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(address))
	return "addr:" + hex.EncodeToString(hash[:8])
}

// UserHash returns a slog attribute with the redacted address.
func UserHash(address string) slog.Attr {
	return slog.String(KeyUserHash, RedactAddress(address))
}

// SummarizeRecipients reduces a recipient list to a count for audit-safe
// logging. Full recipient lists are never written to logs or audit records.
func SummarizeRecipients(to, cc, bcc []string) string {
	return fmt.Sprintf("to=%d cc=%d bcc=%d", len(to), len(cc), len(bcc))
}

// SummarizeBody reduces message content to a length indicator. Bodies are
// never logged.
func SummarizeBody(body string) string {
	if body == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[body:%d chars]", len(body))
}
