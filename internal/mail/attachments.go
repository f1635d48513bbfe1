package mail

import (
	"context"

	"github.com/openmailtools/applemail-mcp/internal/applescript"
)

// ListAttachments returns metadata for the attachments of a message.
func (c *Client) ListAttachments(ctx context.Context, messageID int64) ([]Attachment, error) {
	script := applescript.TellMail(func(s *applescript.Script) {
		s.Line("repeat with acc in accounts")
		s.Line("repeat with mb in mailboxes of acc")
		s.Line("try")
		s.Linef("set msg to first message of mb whose id is %s", applescript.Int(int(messageID)))
		s.Line("set attList to mail attachments of msg")
		s.Line("set resultList to {}")
		s.Line("repeat with att in attList")
		s.Line("set attName to name of att")
		s.Line("set attType to MIME type of att")
		s.Line("set attSize to file size of att")
		s.Line("set attDownloaded to downloaded of att")
		s.Line(`set end of resultList to attName & "|" & attType & "|" & attSize & "|" & attDownloaded`)
		s.Line("end repeat")
		s.JoinLines("resultList")
		s.Line("end try")
		s.Line("end repeat")
		s.Line("end repeat")
		s.Line(`error "Message not found"`)
	})

	out, err := c.run(ctx, "list_attachments", script)
	if err != nil {
		return nil, err
	}
	return parseAttachments(out), nil
}

// SaveAttachments saves attachments of a message into dir and returns the
// number written. A nil indices slice saves all attachments; otherwise only
// the zero-based indices listed. The directory must already have passed the
// sanitizer's whitelist check.
func (c *Client) SaveAttachments(ctx context.Context, messageID int64, dir string, indices []int) (int, error) {
	script := applescript.TellMail(func(s *applescript.Script) {
		s.Line("repeat with acc in accounts")
		s.Line("repeat with mb in mailboxes of acc")
		s.Line("try")
		s.Linef("set msg to first message of mb whose id is %s", applescript.Int(int(messageID)))
		if len(indices) > 0 {
			// AppleScript lists are 1-based.
			oneBased := make([]int, 0, len(indices))
			for _, i := range indices {
				oneBased = append(oneBased, i+1)
			}
			s.Linef("set attList to items %s of mail attachments of msg", applescript.IntList(oneBased))
		} else {
			s.Line("set attList to mail attachments of msg")
		}
		s.Line("set saveCount to 0")
		s.Line("repeat with att in attList")
		s.Line("try")
		s.Line("set attName to name of att")
		s.Linef(`save att in (%s & "/" & attName)`, applescript.String(dir))
		s.Line("set saveCount to saveCount + 1")
		s.Line("end try")
		s.Line("end repeat")
		s.Line("return saveCount")
		s.Line("end try")
		s.Line("end repeat")
		s.Line("end repeat")
		s.Line(`error "Message not found"`)
	})

	out, err := c.run(ctx, "save_attachments", script)
	if err != nil {
		return 0, err
	}
	return parseCount(out), nil
}
