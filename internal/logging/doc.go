// Package logging provides structured logging utilities for the
// applemail-mcp server.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Consistent attribute naming across the codebase
//   - PII redaction (email address hashing, recipient summarization)
//   - Safe error attributes that tolerate nil
//
// # Security Considerations
//
// Email addresses are hashed before logging so entries can be correlated
// without exposing PII. Message bodies and full recipient lists are never
// logged; use SummarizeRecipients to record counts instead.
package logging
