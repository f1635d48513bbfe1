// Package applescript provides safe construction and execution of AppleScript.
//
// Scripts are built in two phases: caller-derived values are first converted
// to escaped AppleScript expressions via the typed Value constructors (String,
// Int, Bool, StringList, PosixFile), then interpolated into template lines
// with Script.Linef. Raw input never reaches a template directly, which is the
// primary injection-prevention control for the whole server.
//
// Rendered scripts are executed by a Runner, which feeds the script to
// /usr/bin/osascript over stdin with an enforced timeout and maps well-known
// Mail.app error messages to typed errors.
package applescript
