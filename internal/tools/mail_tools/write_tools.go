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

// draftFromNorm builds an outgoing message from normalized arguments.
func draftFromNorm(norm map[string]any) mail.Draft {
	return mail.Draft{
		Subject: common.NormString(norm, "subject"),
		Body:    common.NormString(norm, "body"),
		To:      common.NormStrings(norm, "to"),
		Cc:      common.NormStrings(norm, "cc"),
		Bcc:     common.NormStrings(norm, "bcc"),
	}
}

// RegisterWriteTools registers the reversible write tools with the MCP server
func RegisterWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Send email tool
	sendEmailTool := mcp.NewTool("mail_send_email",
		mcp.WithDescription("Send an email through Apple Mail, optionally with attachments"),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Plain text email body"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient address or comma-separated list of addresses"),
		),
		mcp.WithString("cc",
			mcp.Description("CC address or comma-separated list of addresses"),
		),
		mcp.WithString("bcc",
			mcp.Description("BCC address or comma-separated list of addresses"),
		),
		mcp.WithArray("attachments",
			mcp.Description("Absolute paths of files to attach. Paths must be inside a whitelisted directory."),
		),
	)

	s.AddTool(sendEmailTool, common.GatedToolHandler("mail_send_email", gate.OpSendEmail, sc,
		func(ctx context.Context, norm map[string]any) (any, error) {
			draft := draftFromNorm(norm)
			attachments := common.NormStrings(norm, "attachments")

			if len(attachments) > 0 {
				// Path shape was validated by the gate; existence and size
				// are filesystem state and checked here, at execution time.
				if err := sc.Gate().Sanitizer().CheckAttachmentFiles(attachments); err != nil {
					return nil, err
				}
				if err := sc.MailClient().SendEmailWithAttachments(ctx, draft, attachments); err != nil {
					return nil, err
				}
			} else {
				if err := sc.MailClient().SendEmail(ctx, draft); err != nil {
					return nil, err
				}
			}
			return map[string]any{"status": "sent", "recipients": len(draft.To) + len(draft.Cc) + len(draft.Bcc)}, nil
		}))

	// Create draft tool
	createDraftTool := mcp.NewTool("mail_create_draft",
		mcp.WithDescription("Create a draft email in Apple Mail without sending it"),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Plain text email body"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient address or comma-separated list of addresses"),
		),
		mcp.WithString("cc",
			mcp.Description("CC address or comma-separated list of addresses"),
		),
		mcp.WithString("bcc",
			mcp.Description("BCC address or comma-separated list of addresses"),
		),
	)

	s.AddTool(createDraftTool, common.GatedToolHandler("mail_create_draft", gate.OpCreateDraft, sc,
		func(ctx context.Context, norm map[string]any) (any, error) {
			draftID, err := sc.MailClient().CreateDraft(ctx, draftFromNorm(norm))
			if err != nil {
				return nil, err
			}
			return map[string]any{"draftId": draftID}, nil
		}))

	// Reply tool
	replyTool := mcp.NewTool("mail_reply_to_message",
		mcp.WithDescription("Create a reply draft for a message"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Numeric message ID to reply to"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Reply body text"),
		),
		mcp.WithBoolean("replyAll",
			mcp.Description("Reply to all recipients instead of only the sender (default: false)"),
		),
	)

	s.AddTool(replyTool, common.GatedToolHandler("mail_reply_to_message", gate.OpReplyToMessage, sc,
		func(ctx context.Context, norm map[string]any) (any, error) {
			draftID, err := sc.MailClient().ReplyToMessage(ctx,
				common.NormMessageID(norm, "id"),
				common.NormString(norm, "body"),
				common.NormBool(norm, "replyAll"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"draftId": draftID}, nil
		}))

	// Forward tool
	forwardTool := mcp.NewTool("mail_forward_message",
		mcp.WithDescription("Create a forward draft for a message"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Numeric message ID to forward"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient address or comma-separated list of addresses"),
		),
		mcp.WithString("body",
			mcp.Description("Text to prepend above the forwarded content"),
		),
		mcp.WithString("cc",
			mcp.Description("CC address or comma-separated list of addresses"),
		),
		mcp.WithString("bcc",
			mcp.Description("BCC address or comma-separated list of addresses"),
		),
	)

	s.AddTool(forwardTool, common.GatedToolHandler("mail_forward_message", gate.OpForwardMessage, sc,
		func(ctx context.Context, norm map[string]any) (any, error) {
			draftID, err := sc.MailClient().ForwardMessage(ctx,
				common.NormMessageID(norm, "id"),
				common.NormStrings(norm, "to"),
				common.NormString(norm, "body"),
				common.NormStrings(norm, "cc"),
				common.NormStrings(norm, "bcc"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"draftId": draftID}, nil
		}))

	// Mark as read tool
	markAsReadTool := mcp.NewTool("mail_mark_as_read",
		mcp.WithDescription("Mark one or more messages as read or unread"),
		mcp.WithString("ids",
			mcp.Required(),
			mcp.Description("Message ID or array of message IDs"),
		),
		mcp.WithBoolean("read",
			mcp.Description("Mark as read (true, default) or unread (false)"),
		),
	)

	s.AddTool(markAsReadTool, common.GatedToolHandler("mail_mark_as_read", gate.OpMarkAsRead, sc,
		func(ctx context.Context, norm map[string]any) (any, error) {
			updated, err := sc.MailClient().MarkRead(ctx,
				common.NormMessageIDs(norm, "ids"),
				common.NormBool(norm, "read"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"updated": updated}, nil
		}))

	// Move messages tool
	moveMessagesTool := mcp.NewTool("mail_move_messages",
		mcp.WithDescription("Move one or more messages to another mailbox"),
		mcp.WithString("ids",
			mcp.Required(),
			mcp.Description("Message ID or array of message IDs"),
		),
		mcp.WithString("mailbox",
			mcp.Required(),
			mcp.Description("Destination mailbox name"),
		),
		mcp.WithString("account",
			mcp.Required(),
			mcp.Description("Account owning the destination mailbox"),
		),
		mcp.WithBoolean("gmailMode",
			mcp.Description("Use copy-then-delete for Gmail accounts, where a plain move duplicates the message (default: false)"),
		),
	)

	s.AddTool(moveMessagesTool, common.GatedToolHandler("mail_move_messages", gate.OpMoveMessages, sc,
		func(ctx context.Context, norm map[string]any) (any, error) {
			moved, err := sc.MailClient().MoveMessages(ctx,
				common.NormMessageIDs(norm, "ids"),
				common.NormString(norm, "mailbox"),
				common.NormString(norm, "account"),
				common.NormBool(norm, "gmailMode"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"moved": moved}, nil
		}))

	// Flag messages tool
	flagMessagesTool := mcp.NewTool("mail_flag_messages",
		mcp.WithDescription("Set or clear the flag color on one or more messages"),
		mcp.WithString("ids",
			mcp.Required(),
			mcp.Description("Message ID or array of message IDs"),
		),
		mcp.WithString("color",
			mcp.Required(),
			mcp.Description("Flag color: none, red, orange, yellow, green, blue, purple, gray. 'none' clears the flag."),
		),
	)

	s.AddTool(flagMessagesTool, common.GatedToolHandler("mail_flag_messages", gate.OpFlagMessages, sc,
		func(ctx context.Context, norm map[string]any) (any, error) {
			flagged, err := sc.MailClient().FlagMessages(ctx,
				common.NormMessageIDs(norm, "ids"),
				mail.FlagColor(common.NormString(norm, "color")))
			if err != nil {
				return nil, err
			}
			return map[string]any{"flagged": flagged}, nil
		}))

	// Create mailbox tool
	createMailboxTool := mcp.NewTool("mail_create_mailbox",
		mcp.WithDescription("Create a new mailbox in an account"),
		mcp.WithString("account",
			mcp.Required(),
			mcp.Description("Account to create the mailbox in"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name of the new mailbox"),
		),
		mcp.WithString("parent",
			mcp.Description("Parent mailbox for nesting (default: top level)"),
		),
	)

	s.AddTool(createMailboxTool, common.GatedToolHandler("mail_create_mailbox", gate.OpCreateMailbox, sc,
		func(ctx context.Context, norm map[string]any) (any, error) {
			name := common.NormString(norm, "name")
			if err := sc.MailClient().CreateMailbox(ctx,
				common.NormString(norm, "account"),
				name,
				common.NormString(norm, "parent")); err != nil {
				return nil, err
			}
			return map[string]any{"created": name}, nil
		}))

	// Save attachments tool
	saveAttachmentsTool := mcp.NewTool("mail_save_attachments",
		mcp.WithDescription("Save a message's attachments to a whitelisted directory"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Numeric message ID"),
		),
		mcp.WithString("dir",
			mcp.Required(),
			mcp.Description("Absolute destination directory. Must be inside a whitelisted directory."),
		),
		mcp.WithArray("indices",
			mcp.Description("Zero-based attachment indices to save (default: all)"),
		),
	)

	s.AddTool(saveAttachmentsTool, common.GatedToolHandler("mail_save_attachments", gate.OpSaveAttachments, sc,
		func(ctx context.Context, norm map[string]any) (any, error) {
			saved, err := sc.MailClient().SaveAttachments(ctx,
				common.NormMessageID(norm, "id"),
				common.NormString(norm, "dir"),
				common.NormInts(norm, "indices"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"saved": saved}, nil
		}))

	return nil
}
