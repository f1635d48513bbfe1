package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openmailtools/applemail-mcp/internal/applescript"
	"github.com/openmailtools/applemail-mcp/internal/logging"
)

// OperationMetrics records per-operation backend timings. Satisfied by
// instrumentation.Metrics; kept as an interface so the client does not
// depend on the telemetry stack.
type OperationMetrics interface {
	RecordMailOperation(ctx context.Context, operation, status string, duration time.Duration)
}

// Client drives Mail.app through a script runner. It is safe for concurrent
// use; all state lives in Mail.app itself.
type Client struct {
	runner  applescript.Runner
	logger  *slog.Logger
	metrics OperationMetrics
}

// NewClient creates a Mail client using the given runner.
func NewClient(runner applescript.Runner, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{runner: runner, logger: logger}
}

// SetMetrics attaches an operation metrics recorder. Call before serving;
// the client does not guard the field with a lock.
func (c *Client) SetMetrics(m OperationMetrics) {
	c.metrics = m
}

func (c *Client) run(ctx context.Context, op string, script *applescript.Script) (string, error) {
	text, err := script.Render()
	if err != nil {
		return "", fmt.Errorf("building %s script: %w", op, err)
	}
	start := time.Now()
	out, err := c.runner.Run(ctx, text)
	if c.metrics != nil {
		status := logging.StatusSuccess
		if err != nil {
			status = logging.StatusError
		}
		c.metrics.RecordMailOperation(ctx, op, status, time.Since(start))
	}
	if err != nil {
		c.logger.Warn("mail operation failed",
			logging.Operation(op),
			logging.Err(err))
		return "", err
	}
	return out, nil
}

// ListAccounts returns all Mail.app accounts with their primary address.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	script := applescript.TellMail(func(s *applescript.Script) {
		s.Line("set resultList to {}")
		s.Line("repeat with acc in accounts")
		s.Line("set accName to name of acc")
		s.Line("set emailAddrs to email addresses of acc")
		s.Line(`set primaryEmail to ""`)
		s.Line("if (count of emailAddrs) > 0 then")
		s.Line("set primaryEmail to item 1 of emailAddrs")
		s.Line("end if")
		s.Line(`set end of resultList to accName & "|" & primaryEmail`)
		s.Line("end repeat")
		s.JoinLines("resultList")
	})

	out, err := c.run(ctx, "list_accounts", script)
	if err != nil {
		return nil, err
	}
	return parseAccounts(out), nil
}

// ListMailboxes returns the mailboxes of the named account together with
// their unread counts.
func (c *Client) ListMailboxes(ctx context.Context, account string) ([]Mailbox, error) {
	script := applescript.TellMail(func(s *applescript.Script) {
		s.Linef("set accountRef to account %s", applescript.String(account))
		s.Line("set resultList to {}")
		s.Line("repeat with mb in mailboxes of accountRef")
		s.Line(`set end of resultList to (name of mb) & "|" & (unread count of mb)`)
		s.Line("end repeat")
		s.JoinLines("resultList")
	})

	out, err := c.run(ctx, "list_mailboxes", script)
	if err != nil {
		return nil, err
	}
	return parseMailboxes(out), nil
}

// messageRecordLine is the script fragment that serializes the current `msg`
// into a pipe-delimited summary line appended to resultList.
func messageRecordLines(s *applescript.Script) {
	s.Line("set msgId to id of msg as text")
	s.Line("set msgSubject to subject of msg")
	s.Line("set msgSender to sender of msg")
	s.Line("set msgDate to date received of msg as text")
	s.Line("set msgRead to read status of msg")
	s.Line(`set end of resultList to msgId & "|" & msgSubject & "|" & msgSender & "|" & msgDate & "|" & msgRead`)
}

// SearchMessages returns message summaries from a mailbox matching the query.
// Four script shapes are used depending on whether a limit or filters are
// present: limited searches iterate with an early exit to avoid loading the
// whole mailbox, unlimited filtered searches defer to a `whose` clause.
func (c *Client) SearchMessages(ctx context.Context, account, mailbox string, query SearchQuery) ([]MessageSummary, error) {
	var inlineChecks, whoseConds []applescript.Value
	appendCond := func(inline, whose applescript.Value) {
		inlineChecks = append(inlineChecks, inline)
		whoseConds = append(whoseConds, whose)
	}

	if query.SenderContains != "" {
		v := applescript.String(query.SenderContains)
		appendCond(
			applescript.Expr("(sender of msg contains %s)", v),
			applescript.Expr("sender contains %s", v),
		)
	}
	if query.SubjectContains != "" {
		v := applescript.String(query.SubjectContains)
		appendCond(
			applescript.Expr("(subject of msg contains %s)", v),
			applescript.Expr("subject contains %s", v),
		)
	}
	if query.ReadStatus != nil {
		v := applescript.Bool(*query.ReadStatus)
		appendCond(
			applescript.Expr("(read status of msg is %s)", v),
			applescript.Expr("read status is %s", v),
		)
	}

	script := applescript.TellMail(func(s *applescript.Script) {
		s.Linef("set accountRef to account %s", applescript.String(account))
		s.Linef("set mailboxRef to mailbox %s of accountRef", applescript.String(mailbox))

		switch {
		case query.Limit > 0 && len(inlineChecks) > 0:
			// Limit with filters: check conditions inline and exit early.
			s.Line("set resultList to {}")
			s.Line("set matchCount to 0")
			s.Line("repeat with msg in (messages of mailboxRef)")
			s.Linef("if %s then", applescript.All(inlineChecks))
			s.Line("set matchCount to matchCount + 1")
			messageRecordLines(s)
			s.Linef("if matchCount >= %s then exit repeat", applescript.Int(query.Limit))
			s.Line("end if")
			s.Line("end repeat")
		case query.Limit > 0:
			// Limit without filters: take the first N messages directly.
			s.Line("set allMessages to messages of mailboxRef")
			s.Line("set msgCount to count of allMessages")
			s.Linef("if msgCount > %s then set msgCount to %s",
				applescript.Int(query.Limit), applescript.Int(query.Limit))
			s.Line("set resultList to {}")
			s.Line("repeat with i from 1 to msgCount")
			s.Line("set msg to item i of allMessages")
			messageRecordLines(s)
			s.Line("end repeat")
		case len(whoseConds) > 0:
			// Filters without limit: a whose clause is cheapest.
			s.Linef("set matchedMessages to (messages of mailboxRef whose %s)", applescript.All(whoseConds))
			s.Line("set resultList to {}")
			s.Line("repeat with msg in matchedMessages")
			messageRecordLines(s)
			s.Line("end repeat")
		default:
			s.Line("set resultList to {}")
			s.Line("repeat with msg in (messages of mailboxRef)")
			messageRecordLines(s)
			s.Line("end repeat")
		}

		s.JoinLines("resultList")
	})

	out, err := c.run(ctx, "search_messages", script)
	if err != nil {
		return nil, err
	}
	return parseMessageSummaries(out), nil
}

// GetMessage looks up a message by ID across all accounts and mailboxes.
// When includeContent is false the body is omitted, which is considerably
// faster for large messages.
func (c *Client) GetMessage(ctx context.Context, messageID int64, includeContent bool) (Message, error) {
	script := applescript.TellMail(func(s *applescript.Script) {
		s.Line("repeat with acc in accounts")
		s.Line("repeat with mb in mailboxes of acc")
		s.Line("try")
		s.Linef("set msg to first message of mb whose id is %s", applescript.Int(int(messageID)))
		s.Line("set msgId to id of msg as text")
		s.Line("set msgSubject to subject of msg")
		s.Line("set msgSender to sender of msg")
		s.Line("set msgDate to date received of msg as text")
		s.Line("set msgRead to read status of msg")
		s.Line("set msgFlagged to flagged status of msg")
		if includeContent {
			s.Line("set msgContent to content of msg")
		} else {
			s.Line(`set msgContent to ""`)
		}
		s.Line(`return msgId & "|" & msgSubject & "|" & msgSender & "|" & msgDate & "|" & msgRead & "|" & msgFlagged & "|" & msgContent`)
		s.Line("end try")
		s.Line("end repeat")
		s.Line("end repeat")
		s.Line(`error "Message not found"`)
	})

	out, err := c.run(ctx, "get_message", script)
	if err != nil {
		return Message{}, err
	}
	msg, ok := parseMessage(out)
	if !ok {
		return Message{}, applescript.ErrMessageNotFound
	}
	return msg, nil
}
