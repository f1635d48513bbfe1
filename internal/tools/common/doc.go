// Package common provides shared utilities for MCP tool implementations.
// It contains the response envelope and the gated handler wrapper used by
// every tool package so behavior stays consistent across tools.
package common
