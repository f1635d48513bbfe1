package mail_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/openmailtools/applemail-mcp/internal/gate"
	"github.com/openmailtools/applemail-mcp/internal/mail"
	"github.com/openmailtools/applemail-mcp/internal/server"
	"github.com/openmailtools/applemail-mcp/internal/tools/common"
)

// RegisterReadTools registers the read-only Mail tools with the MCP server
func RegisterReadTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// List accounts tool
	listAccountsTool := mcp.NewTool("mail_list_accounts",
		mcp.WithDescription("List all email accounts configured in Apple Mail"),
	)

	s.AddTool(listAccountsTool, common.GatedToolHandler("mail_list_accounts", gate.OpListAccounts, sc,
		func(ctx context.Context, norm map[string]any) (any, error) {
			accounts, err := sc.MailClient().ListAccounts(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"accounts": accounts}, nil
		}))

	// List mailboxes tool
	listMailboxesTool := mcp.NewTool("mail_list_mailboxes",
		mcp.WithDescription("List all mailboxes for an Apple Mail account"),
		mcp.WithString("account",
			mcp.Required(),
			mcp.Description("Account name as shown in Mail.app (e.g. 'iCloud', 'Work')"),
		),
	)

	s.AddTool(listMailboxesTool, common.GatedToolHandler("mail_list_mailboxes", gate.OpListMailboxes, sc,
		func(ctx context.Context, norm map[string]any) (any, error) {
			mailboxes, err := sc.MailClient().ListMailboxes(ctx, common.NormString(norm, "account"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"mailboxes": mailboxes}, nil
		}))

	// Search messages tool
	searchMessagesTool := mcp.NewTool("mail_search_messages",
		mcp.WithDescription("Search messages in a mailbox by sender, subject, and read status"),
		mcp.WithString("account",
			mcp.Required(),
			mcp.Description("Account name as shown in Mail.app"),
		),
		mcp.WithString("mailbox",
			mcp.Description("Mailbox to search (default: 'INBOX')"),
		),
		mcp.WithString("senderContains",
			mcp.Description("Only return messages whose sender contains this substring"),
		),
		mcp.WithString("subjectContains",
			mcp.Description("Only return messages whose subject contains this substring"),
		),
		mcp.WithBoolean("readStatus",
			mcp.Description("Filter by read state: true for read, false for unread. Omit for all messages."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of messages to return (default: unlimited)"),
		),
	)

	s.AddTool(searchMessagesTool, common.GatedToolHandler("mail_search_messages", gate.OpSearchMessages, sc,
		func(ctx context.Context, norm map[string]any) (any, error) {
			query := mail.SearchQuery{
				SenderContains:  common.NormString(norm, "senderContains"),
				SubjectContains: common.NormString(norm, "subjectContains"),
				ReadStatus:      common.NormBoolPtr(norm, "readStatus"),
				Limit:           common.NormInt(norm, "limit"),
			}
			messages, err := sc.MailClient().SearchMessages(ctx,
				common.NormString(norm, "account"),
				common.NormString(norm, "mailbox"),
				query)
			if err != nil {
				return nil, err
			}
			return map[string]any{"messages": messages, "count": len(messages)}, nil
		}))

	// Get message tool
	getMessageTool := mcp.NewTool("mail_get_message",
		mcp.WithDescription("Get a single message by ID, optionally including its body content"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Numeric message ID as returned by mail_search_messages"),
		),
		mcp.WithBoolean("includeContent",
			mcp.Description("Include the message body (default: true)"),
		),
	)

	s.AddTool(getMessageTool, common.GatedToolHandler("mail_get_message", gate.OpGetMessage, sc,
		func(ctx context.Context, norm map[string]any) (any, error) {
			message, err := sc.MailClient().GetMessage(ctx,
				common.NormMessageID(norm, "id"),
				common.NormBool(norm, "includeContent"))
			if err != nil {
				return nil, err
			}
			return message, nil
		}))

	// List attachments tool
	listAttachmentsTool := mcp.NewTool("mail_list_attachments",
		mcp.WithDescription("List the attachments of a message"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Numeric message ID"),
		),
	)

	s.AddTool(listAttachmentsTool, common.GatedToolHandler("mail_list_attachments", gate.OpListAttachments, sc,
		func(ctx context.Context, norm map[string]any) (any, error) {
			attachments, err := sc.MailClient().ListAttachments(ctx, common.NormMessageID(norm, "id"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"attachments": attachments, "count": len(attachments)}, nil
		}))

	return nil
}
