// Package instrumentation provides OpenTelemetry-based observability for the
// applemail-mcp server.
//
// It wires metrics (Prometheus, OTLP, or stdout exporters), optional tracing
// (OTLP or stdout), and an operational audit log stream for tool
// invocations. Configuration is environment-driven via DefaultConfig.
//
// The metrics recorded here are the MCP tool counters/durations, Mail.app
// operation counters/durations, policy decision counters, and script timeout
// counters. The durable security audit trail lives in the gate package; the
// AuditLogger here is the slog-based operational view of the same events.
package instrumentation
