// Package gate is the security layer every tool call passes through before
// any AppleScript reaches Mail.app.
//
// A call flows through three stages:
//
//  1. Sanitizer validates and normalizes raw tool arguments (addresses,
//     message IDs, paths, batch sizes). Pure; returns a ValidationResult.
//  2. Policy classifies the operation's risk, applies the destructive-op
//     rate limit and confirmation requirement, and returns a PolicyDecision.
//  3. Recorder appends exactly one audit record per gated call to a durable
//     JSONL log, regardless of outcome. Message bodies and recipient lists
//     are redacted to counts before recording.
//
// The Gate type wires the stages together and owns the single-record
// invariant: rejected calls are recorded at rejection time, allowed calls
// after the backend reports its outcome.
package gate
