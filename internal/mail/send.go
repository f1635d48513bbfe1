package mail

import (
	"context"
	"fmt"

	"github.com/openmailtools/applemail-mcp/internal/applescript"
)

// recipientLines emits the repeat blocks that attach To/Cc/Bcc recipients to
// the outgoing message under construction.
func recipientLines(s *applescript.Script, draft Draft) {
	s.Linef("repeat with addr in %s", applescript.StringList(draft.To))
	s.Line("make new to recipient with properties {address:addr}")
	s.Line("end repeat")
	if len(draft.Cc) > 0 {
		s.Linef("repeat with addr in %s", applescript.StringList(draft.Cc))
		s.Line("make new cc recipient with properties {address:addr}")
		s.Line("end repeat")
	}
	if len(draft.Bcc) > 0 {
		s.Linef("repeat with addr in %s", applescript.StringList(draft.Bcc))
		s.Line("make new bcc recipient with properties {address:addr}")
		s.Line("end repeat")
	}
}

func outgoingMessageLine(s *applescript.Script, draft Draft) {
	s.Linef("set theMessage to make new outgoing message with properties {subject:%s, content:%s, visible:false}",
		applescript.String(draft.Subject), applescript.String(draft.Body))
}

// SendEmail composes and sends a message.
func (c *Client) SendEmail(ctx context.Context, draft Draft) error {
	script := applescript.TellMail(func(s *applescript.Script) {
		outgoingMessageLine(s, draft)
		s.Line("tell theMessage")
		recipientLines(s, draft)
		s.Line("send")
		s.Line("end tell")
		s.Line(`return "sent"`)
	})

	out, err := c.run(ctx, "send_email", script)
	if err != nil {
		return err
	}
	if out != "sent" {
		return fmt.Errorf("unexpected send result %q", out)
	}
	return nil
}

// SendEmailWithAttachments composes and sends a message with file
// attachments. Paths must already be validated against the configured
// whitelist; this method only turns them into POSIX file references.
func (c *Client) SendEmailWithAttachments(ctx context.Context, draft Draft, attachmentPaths []string) error {
	if len(attachmentPaths) == 0 {
		return c.SendEmail(ctx, draft)
	}

	files := make([]applescript.Value, 0, len(attachmentPaths))
	for _, p := range attachmentPaths {
		files = append(files, applescript.PosixFile(p))
	}

	script := applescript.TellMail(func(s *applescript.Script) {
		outgoingMessageLine(s, draft)
		s.Line("tell theMessage")
		recipientLines(s, draft)
		for _, f := range files {
			s.Linef("make new attachment with properties {file name:%s} at after last paragraph", f)
		}
		s.Line("send")
		s.Line("end tell")
		s.Line(`return "sent"`)
	})

	out, err := c.run(ctx, "send_email_with_attachments", script)
	if err != nil {
		return err
	}
	if out != "sent" {
		return fmt.Errorf("unexpected send result %q", out)
	}
	return nil
}

// CreateDraft composes a message and saves it without sending. It returns
// the draft message ID.
func (c *Client) CreateDraft(ctx context.Context, draft Draft) (string, error) {
	script := applescript.TellMail(func(s *applescript.Script) {
		outgoingMessageLine(s, draft)
		s.Line("tell theMessage")
		recipientLines(s, draft)
		s.Line("save")
		s.Line("end tell")
		s.Line("set msgId to id of theMessage as text")
		s.Line(`return "draft_" & msgId`)
	})

	return c.run(ctx, "create_draft", script)
}

// ReplyToMessage creates and sends a reply to the given message. When
// replyAll is set the reply goes to all original recipients. Mail.app itself
// quotes the original content.
func (c *Client) ReplyToMessage(ctx context.Context, messageID int64, body string, replyAll bool) (string, error) {
	replyVerb := "reply"
	if replyAll {
		replyVerb = "reply to all"
	}

	script := applescript.TellMail(func(s *applescript.Script) {
		s.Line("repeat with acc in accounts")
		s.Line("repeat with mb in mailboxes of acc")
		s.Line("try")
		s.Linef("set origMsg to first message of mb whose id is %s", applescript.Int(int(messageID)))
		s.Line(fmt.Sprintf("set replyMsg to %s origMsg", replyVerb))
		s.Linef("set content of replyMsg to %s", applescript.String(body))
		s.Line("set replyId to id of replyMsg")
		s.Line("send replyMsg")
		s.Line("return replyId")
		s.Line("end try")
		s.Line("end repeat")
		s.Line("end repeat")
		s.Line(`error "Message not found"`)
	})

	return c.run(ctx, "reply_to_message", script)
}

// ForwardMessage forwards the given message, prepending body text before the
// forwarded content if provided. Attachments travel with the forward.
func (c *Client) ForwardMessage(ctx context.Context, messageID int64, to []string, body string, cc, bcc []string) (string, error) {
	script := applescript.TellMail(func(s *applescript.Script) {
		s.Line("repeat with acc in accounts")
		s.Line("repeat with mb in mailboxes of acc")
		s.Line("try")
		s.Linef("set origMsg to first message of mb whose id is %s", applescript.Int(int(messageID)))
		s.Line("set fwdMsg to forward origMsg")
		if body != "" {
			s.Line("set origContent to content of fwdMsg")
			s.Linef("set content of fwdMsg to %s & return & return & origContent", applescript.String(body))
		}
		s.Linef("repeat with recipientAddr in %s", applescript.StringList(to))
		s.Line("make new to recipient at end of to recipients of fwdMsg with properties {address:recipientAddr}")
		s.Line("end repeat")
		if len(cc) > 0 {
			s.Linef("repeat with recipientAddr in %s", applescript.StringList(cc))
			s.Line("make new cc recipient at end of cc recipients of fwdMsg with properties {address:recipientAddr}")
			s.Line("end repeat")
		}
		if len(bcc) > 0 {
			s.Linef("repeat with recipientAddr in %s", applescript.StringList(bcc))
			s.Line("make new bcc recipient at end of bcc recipients of fwdMsg with properties {address:recipientAddr}")
			s.Line("end repeat")
		}
		s.Line("set fwdId to id of fwdMsg")
		s.Line("send fwdMsg")
		s.Line("return fwdId")
		s.Line("end try")
		s.Line("end repeat")
		s.Line("end repeat")
		s.Line(`error "Message not found"`)
	})

	return c.run(ctx, "forward_message", script)
}
