package mail

import (
	"context"
	"fmt"

	"github.com/openmailtools/applemail-mcp/internal/applescript"
)

func idList(ids []int64) applescript.Value {
	ints := make([]int, 0, len(ids))
	for _, id := range ids {
		ints = append(ints, int(id))
	}
	return applescript.IntList(ints)
}

// forEachMessageByID emits the nested account/mailbox scan that locates each
// message in idList and runs the given body against `msg`, counting matches
// in the named counter variable.
func forEachMessageByID(s *applescript.Script, ids []int64, counter string, body func(s *applescript.Script)) {
	s.Linef("set idList to %s", idList(ids))
	s.Line(fmt.Sprintf("set %s to 0", counter))
	s.Line("repeat with msgId in idList")
	s.Line("repeat with acc in accounts")
	s.Line("repeat with mb in mailboxes of acc")
	s.Line("try")
	s.Line("set msg to first message of mb whose id is msgId")
	body(s)
	s.Line(fmt.Sprintf("set %s to %s + 1", counter, counter))
	s.Line("end try")
	s.Line("end repeat")
	s.Line("end repeat")
	s.Line("end repeat")
	s.Line(fmt.Sprintf("return %s", counter))
}

// MarkRead sets the read status of the given messages and returns how many
// were updated. Messages that cannot be found are skipped, not errors.
func (c *Client) MarkRead(ctx context.Context, messageIDs []int64, read bool) (int, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}

	script := applescript.TellMail(func(s *applescript.Script) {
		forEachMessageByID(s, messageIDs, "updateCount", func(s *applescript.Script) {
			s.Linef("set read status of msg to %s", applescript.Bool(read))
		})
	})

	out, err := c.run(ctx, "mark_as_read", script)
	if err != nil {
		return 0, err
	}
	return parseCount(out), nil
}

// MoveMessages moves messages into the destination mailbox of the given
// account and returns the number moved. Gmail accounts need gmailMode, which
// duplicates then deletes so labels end up in a consistent state; plain IMAP
// accounts reassign the mailbox directly.
func (c *Client) MoveMessages(ctx context.Context, messageIDs []int64, destMailbox, account string, gmailMode bool) (int, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}

	script := applescript.TellMail(func(s *applescript.Script) {
		s.Linef("set accountRef to account %s", applescript.String(account))
		s.Linef("set destMailbox to mailbox %s of accountRef", applescript.String(destMailbox))
		forEachMessageByID(s, messageIDs, "moveCount", func(s *applescript.Script) {
			if gmailMode {
				s.Line("duplicate msg to destMailbox")
				s.Line("delete msg")
			} else {
				s.Line("set mailbox of msg to destMailbox")
			}
		})
	})

	out, err := c.run(ctx, "move_messages", script)
	if err != nil {
		return 0, err
	}
	return parseCount(out), nil
}

// FlagMessages sets the flag color on messages and returns the number
// flagged. FlagNone clears the flag.
func (c *Client) FlagMessages(ctx context.Context, messageIDs []int64, color FlagColor) (int, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}
	index, ok := flagIndexes[color]
	if !ok {
		return 0, fmt.Errorf("invalid flag color %q", color)
	}

	script := applescript.TellMail(func(s *applescript.Script) {
		forEachMessageByID(s, messageIDs, "flagCount", func(s *applescript.Script) {
			s.Linef("set flag index of msg to %s", applescript.Int(index))
			s.Linef("set flagged status of msg to %s", applescript.Bool(color != FlagNone))
		})
	})

	out, err := c.run(ctx, "flag_messages", script)
	if err != nil {
		return 0, err
	}
	return parseCount(out), nil
}

// DeleteMessages deletes messages and returns the number deleted. The
// standard path moves messages to the account's trash; permanent expunges
// them from the trash as well, which cannot be undone.
func (c *Client) DeleteMessages(ctx context.Context, messageIDs []int64, permanent bool) (int, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}

	script := applescript.TellMail(func(s *applescript.Script) {
		forEachMessageByID(s, messageIDs, "deleteCount", func(s *applescript.Script) {
			s.Line("delete msg")
			if permanent {
				// Expunge the copy Mail.app leaves in the trash.
				s.Line("try")
				s.Line("set trashBox to mailbox \"Trash\" of acc")
				s.Line("delete (first message of trashBox whose id is msgId)")
				s.Line("end try")
			}
		})
	})

	out, err := c.run(ctx, "delete_messages", script)
	if err != nil {
		return 0, err
	}
	return parseCount(out), nil
}

// CreateMailbox creates a new mailbox in the account, nested under
// parentMailbox when given.
func (c *Client) CreateMailbox(ctx context.Context, account, name, parentMailbox string) error {
	script := applescript.TellMail(func(s *applescript.Script) {
		s.Linef("set accountRef to account %s", applescript.String(account))
		if parentMailbox != "" {
			s.Linef("set parentMailbox to mailbox %s of accountRef", applescript.String(parentMailbox))
			s.Linef("make new mailbox at parentMailbox with properties {name:%s}", applescript.String(name))
		} else {
			s.Linef("make new mailbox at accountRef with properties {name:%s}", applescript.String(name))
		}
		s.Line(`return "success"`)
	})

	out, err := c.run(ctx, "create_mailbox", script)
	if err != nil {
		return err
	}
	if out != "success" {
		return fmt.Errorf("unexpected create result %q", out)
	}
	return nil
}
