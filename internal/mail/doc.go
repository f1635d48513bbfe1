// Package mail implements the Apple Mail backend: a client that drives
// Mail.app through AppleScript executed by osascript.
//
// Scripts are assembled with the applescript package's two-phase builder, so
// every caller-derived string is escaped before it reaches a template. The
// scripts emit pipe-delimited lines which this package parses back into typed
// results.
//
// All methods take a context and are bounded by the runner's execution
// timeout; a hung Mail.app surfaces as applescript.ErrTimeout rather than a
// blocked caller.
package mail
