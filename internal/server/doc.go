// Package server provides the MCP server context, health probes, and the
// dedicated Prometheus metrics server for the applemail-mcp application.
//
// # Key Components
//
// ServerContext ties together the long-lived pieces a tool handler needs:
// the Mail.app client, the request gate (validation, policy, audit), and
// the instrumentation provider. It owns the server lifecycle and exposes
// a cancellable context so in-flight osascript executions stop on shutdown.
//
// HealthChecker serves liveness and readiness probes for supervisors such
// as launchd or container runtimes when the server runs over HTTP.
//
// MetricsServer serves Prometheus metrics on a dedicated port, isolated
// from the main MCP traffic so operational metrics are never reachable
// through the tool-facing endpoint.
package server
