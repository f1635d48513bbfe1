package mail

import (
	"strconv"
	"strings"
)

// The Mail.app scripts emit one record per line with fields separated by "|".
// Subjects and senders can themselves contain "|", so fixed-width records are
// split with a field count and the free-text field placed last where
// possible; parsers here are lenient and skip malformed lines rather than
// failing the whole call.

func parseAccounts(output string) []Account {
	var accounts []Account
	for _, line := range splitLines(output) {
		parts := strings.SplitN(line, "|", 2)
		if len(parts) < 2 {
			continue
		}
		accounts = append(accounts, Account{Name: parts[0], Email: parts[1]})
	}
	return accounts
}

func parseMailboxes(output string) []Mailbox {
	var mailboxes []Mailbox
	for _, line := range splitLines(output) {
		parts := strings.SplitN(line, "|", 2)
		if len(parts) < 2 {
			continue
		}
		unread, _ := strconv.Atoi(parts[1])
		mailboxes = append(mailboxes, Mailbox{Name: parts[0], UnreadCount: unread})
	}
	return mailboxes
}

func parseMessageSummaries(output string) []MessageSummary {
	var messages []MessageSummary
	for _, line := range splitLines(output) {
		parts := strings.SplitN(line, "|", 5)
		if len(parts) < 5 {
			continue
		}
		messages = append(messages, MessageSummary{
			ID:           parts[0],
			Subject:      parts[1],
			Sender:       parts[2],
			DateReceived: parts[3],
			Read:         parseBool(parts[4]),
		})
	}
	return messages
}

func parseMessage(output string) (Message, bool) {
	parts := strings.SplitN(output, "|", 7)
	if len(parts) < 6 {
		return Message{}, false
	}
	msg := Message{
		MessageSummary: MessageSummary{
			ID:           parts[0],
			Subject:      parts[1],
			Sender:       parts[2],
			DateReceived: parts[3],
			Read:         parseBool(parts[4]),
		},
		Flagged: parseBool(parts[5]),
	}
	if len(parts) > 6 {
		msg.Content = parts[6]
	}
	return msg, true
}

func parseAttachments(output string) []Attachment {
	var attachments []Attachment
	for _, line := range splitLines(output) {
		parts := strings.SplitN(line, "|", 4)
		if len(parts) < 4 {
			continue
		}
		size, _ := strconv.ParseInt(parts[2], 10, 64)
		attachments = append(attachments, Attachment{
			Name:       parts[0],
			MIMEType:   parts[1],
			Size:       size,
			Downloaded: parseBool(parts[3]),
		})
	}
	return attachments
}

// parseCount reads the integer counter scripts return after bulk operations.
// Non-numeric output counts as zero.
func parseCount(output string) int {
	n, err := strconv.Atoi(strings.TrimSpace(output))
	if err != nil {
		return 0
	}
	return n
}

func parseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

func splitLines(output string) []string {
	if output == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
