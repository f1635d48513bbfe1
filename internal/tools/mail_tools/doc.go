// Package mail_tools provides MCP tools for working with Apple Mail.
//
// Every tool runs through the request gate before touching Mail.app:
// arguments are validated and normalized, the operation's risk class is
// checked against policy, and the call is written to the append-only audit
// trail. Destructive tools additionally require a confirmation token.
//
// Tools are grouped by risk:
//   - read tools (list, search, get) are always registered
//   - write tools (send, draft, move, flag, ...) require a writable server
//   - mail_delete_messages is the only destructive tool
package mail_tools
