package gate

import (
	"time"
)

// Operation names the action a tool call wants to perform. The set is closed;
// the policy table rejects anything it does not know.
type Operation string

const (
	OpListAccounts    Operation = "list_accounts"
	OpListMailboxes   Operation = "list_mailboxes"
	OpSearchMessages  Operation = "search_messages"
	OpGetMessage      Operation = "get_message"
	OpListAttachments Operation = "list_attachments"

	OpSendEmail       Operation = "send_email"
	OpCreateDraft     Operation = "create_draft"
	OpReplyToMessage  Operation = "reply_to_message"
	OpForwardMessage  Operation = "forward_message"
	OpMarkAsRead      Operation = "mark_as_read"
	OpMoveMessages    Operation = "move_messages"
	OpFlagMessages    Operation = "flag_messages"
	OpCreateMailbox   Operation = "create_mailbox"
	OpSaveAttachments Operation = "save_attachments"

	OpDeleteMessages Operation = "delete_messages"
)

// ToolRequest is an immutable snapshot of a tool call. Args holds the raw
// arguments as decoded from the MCP request; normalization happens in the
// sanitizer, never in place.
type ToolRequest struct {
	Op   Operation
	Args map[string]any
	At   time.Time
}

// NewToolRequest builds a request stamped with the current time.
func NewToolRequest(op Operation, args map[string]any) ToolRequest {
	if args == nil {
		args = map[string]any{}
	}
	return ToolRequest{Op: op, Args: args, At: time.Now()}
}
