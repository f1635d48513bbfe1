package mail

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmailtools/applemail-mcp/internal/applescript"
)

type fakeRunner struct {
	scripts []string
	output  string
	err     error
}

func (f *fakeRunner) Run(_ context.Context, script string) (string, error) {
	f.scripts = append(f.scripts, script)
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func (f *fakeRunner) lastScript(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.scripts, "expected a script to run")
	return f.scripts[len(f.scripts)-1]
}

func newTestClient(output string) (*Client, *fakeRunner) {
	runner := &fakeRunner{output: output}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(runner, logger), runner
}

func TestListAccounts(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("Work|alice@example.com\nPersonal|alice@home.example")
	accounts, err := client.ListAccounts(context.Background())

	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "Work", accounts[0].Name)
	assert.Contains(t, runner.lastScript(t), `tell application "Mail"`)
}

func TestListMailboxes_EscapesAccountName(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("INBOX|3")
	mailboxes, err := client.ListMailboxes(context.Background(), `Acme "West"`)

	require.NoError(t, err)
	require.Len(t, mailboxes, 1)
	assert.Contains(t, runner.lastScript(t), `set accountRef to account "Acme \"West\""`)
}

func TestSearchMessages_ScriptShapes(t *testing.T) {
	t.Parallel()

	unread := false
	tests := []struct {
		name        string
		query       SearchQuery
		contains    []string
		notContains []string
	}{
		{
			name:  "limit with filters iterates with early exit",
			query: SearchQuery{SenderContains: "bob", Limit: 5},
			contains: []string{
				`if (sender of msg contains "bob") then`,
				"if matchCount >= 5 then exit repeat",
			},
			notContains: []string{"whose"},
		},
		{
			name:  "limit without filters takes first n",
			query: SearchQuery{Limit: 10},
			contains: []string{
				"set allMessages to messages of mailboxRef",
				"if msgCount > 10 then set msgCount to 10",
			},
			notContains: []string{"whose"},
		},
		{
			name:  "filters without limit use whose clause",
			query: SearchQuery{SubjectContains: "invoice", ReadStatus: &unread},
			contains: []string{
				`whose subject contains "invoice" and read status is false`,
			},
			notContains: []string{"exit repeat"},
		},
		{
			name:  "no filters no limit scans everything",
			query: SearchQuery{},
			contains: []string{
				"repeat with msg in (messages of mailboxRef)",
			},
			notContains: []string{"whose", "exit repeat"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client, runner := newTestClient("1|s|a@b.com|Mon|true")
			_, err := client.SearchMessages(context.Background(), "Work", "INBOX", tc.query)
			require.NoError(t, err)

			script := runner.lastScript(t)
			for _, want := range tc.contains {
				assert.Contains(t, script, want)
			}
			for _, unwanted := range tc.notContains {
				assert.NotContains(t, script, unwanted)
			}
		})
	}
}

func TestSearchMessages_FilterValuesEscaped(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("")
	payload := `x" & (do shell script "id") & "`
	_, err := client.SearchMessages(context.Background(), "Work", "INBOX", SearchQuery{
		SenderContains: payload,
	})

	require.NoError(t, err)
	script := runner.lastScript(t)
	assert.NotContains(t, script, payload)
	assert.Contains(t, script, `x\" & (do shell script \"id\") & \"`)
}

func TestSearchMessages_UnescapableFilterFails(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("")
	_, err := client.SearchMessages(context.Background(), "Work", "INBOX", SearchQuery{
		SubjectContains: "bad\x00byte",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, applescript.ErrUnrepresentable)
	assert.Empty(t, runner.scripts)
}

func TestGetMessage(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("7|Lunch?|bob@example.com|Mon, 4 Aug 2025|true|false|See you at noon")
	msg, err := client.GetMessage(context.Background(), 7, true)

	require.NoError(t, err)
	assert.Equal(t, "7", msg.ID)
	assert.Equal(t, "See you at noon", msg.Content)
	assert.Contains(t, runner.lastScript(t), "set msgContent to content of msg")
}

func TestGetMessage_WithoutContent(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("7|Lunch?|bob@example.com|Mon|true|false|")
	msg, err := client.GetMessage(context.Background(), 7, false)

	require.NoError(t, err)
	assert.Empty(t, msg.Content)
	script := runner.lastScript(t)
	assert.Contains(t, script, `set msgContent to ""`)
	assert.NotContains(t, script, "content of msg")
}

func TestGetMessage_MalformedOutput(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient("garbage")
	_, err := client.GetMessage(context.Background(), 7, false)

	assert.ErrorIs(t, err, applescript.ErrMessageNotFound)
}

func TestMarkRead(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("2")
	n, err := client.MarkRead(context.Background(), []int64{101, 102}, true)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	script := runner.lastScript(t)
	assert.Contains(t, script, "set idList to {101, 102}")
	assert.Contains(t, script, "set read status of msg to true")
}

func TestMarkRead_NoIDsSkipsScript(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("0")
	n, err := client.MarkRead(context.Background(), nil, true)

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, runner.scripts)
}

func TestMoveMessages(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("1")
	n, err := client.MoveMessages(context.Background(), []int64{5}, "Archive", "Work", false)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	script := runner.lastScript(t)
	assert.Contains(t, script, `set destMailbox to mailbox "Archive" of accountRef`)
	assert.Contains(t, script, "set mailbox of msg to destMailbox")
	assert.NotContains(t, script, "duplicate msg")
}

func TestMoveMessages_GmailMode(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("1")
	_, err := client.MoveMessages(context.Background(), []int64{5}, "Archive", "Gmail", true)

	require.NoError(t, err)
	script := runner.lastScript(t)
	assert.Contains(t, script, "duplicate msg to destMailbox")
	assert.Contains(t, script, "delete msg")
	assert.NotContains(t, script, "set mailbox of msg to destMailbox")
}

func TestFlagMessages(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("1")
	n, err := client.FlagMessages(context.Background(), []int64{5}, FlagRed)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	script := runner.lastScript(t)
	assert.Contains(t, script, "set flag index of msg to 0")
	assert.Contains(t, script, "set flagged status of msg to true")
}

func TestFlagMessages_NoneClearsFlag(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("1")
	_, err := client.FlagMessages(context.Background(), []int64{5}, FlagNone)

	require.NoError(t, err)
	script := runner.lastScript(t)
	assert.Contains(t, script, "set flag index of msg to -1")
	assert.Contains(t, script, "set flagged status of msg to false")
}

func TestFlagMessages_InvalidColor(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("1")
	_, err := client.FlagMessages(context.Background(), []int64{5}, FlagColor("magenta"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid flag color")
	assert.Empty(t, runner.scripts)
}

func TestDeleteMessages(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("2")
	n, err := client.DeleteMessages(context.Background(), []int64{1, 2}, false)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	script := runner.lastScript(t)
	assert.Contains(t, script, "delete msg")
	assert.NotContains(t, script, "Trash")
}

func TestDeleteMessages_PermanentExpungesTrash(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("2")
	_, err := client.DeleteMessages(context.Background(), []int64{1, 2}, true)

	require.NoError(t, err)
	script := runner.lastScript(t)
	assert.Contains(t, script, `set trashBox to mailbox "Trash" of acc`)
	assert.Contains(t, script, "delete (first message of trashBox whose id is msgId)")
}

func TestCreateMailbox(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("success")
	err := client.CreateMailbox(context.Background(), "Work", "Receipts", "")

	require.NoError(t, err)
	script := runner.lastScript(t)
	assert.Contains(t, script, `make new mailbox at accountRef with properties {name:"Receipts"}`)
	assert.NotContains(t, script, "parentMailbox")
}

func TestCreateMailbox_Nested(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("success")
	err := client.CreateMailbox(context.Background(), "Work", "2025", "Receipts")

	require.NoError(t, err)
	script := runner.lastScript(t)
	assert.Contains(t, script, `set parentMailbox to mailbox "Receipts" of accountRef`)
	assert.Contains(t, script, `make new mailbox at parentMailbox with properties {name:"2025"}`)
}

func TestCreateMailbox_UnexpectedOutput(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient("something else")
	err := client.CreateMailbox(context.Background(), "Work", "Receipts", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected create result")
}

func TestSendEmail(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("sent")
	err := client.SendEmail(context.Background(), Draft{
		Subject: "Status",
		Body:    "All good.",
		To:      []string{"bob@example.com"},
		Cc:      []string{"carol@example.com"},
	})

	require.NoError(t, err)
	script := runner.lastScript(t)
	assert.Contains(t, script, `subject:"Status", content:"All good.", visible:false`)
	assert.Contains(t, script, `repeat with addr in {"bob@example.com"}`)
	assert.Contains(t, script, "make new cc recipient")
	assert.NotContains(t, script, "bcc recipient")
}

func TestSendEmail_UnexpectedOutput(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient("maybe")
	err := client.SendEmail(context.Background(), Draft{
		Subject: "Status",
		To:      []string{"bob@example.com"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected send result")
}

func TestSendEmailWithAttachments(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("sent")
	err := client.SendEmailWithAttachments(context.Background(), Draft{
		Subject: "Report",
		To:      []string{"bob@example.com"},
	}, []string{"/Users/me/Documents/report.pdf"})

	require.NoError(t, err)
	script := runner.lastScript(t)
	assert.Contains(t, script, `make new attachment with properties {file name:POSIX file "/Users/me/Documents/report.pdf"} at after last paragraph`)
}

func TestSendEmailWithAttachments_NoPathsPlainSend(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("sent")
	err := client.SendEmailWithAttachments(context.Background(), Draft{
		Subject: "Report",
		To:      []string{"bob@example.com"},
	}, nil)

	require.NoError(t, err)
	assert.NotContains(t, runner.lastScript(t), "attachment")
}

func TestCreateDraft(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("draft_4711")
	id, err := client.CreateDraft(context.Background(), Draft{
		Subject: "WIP",
		To:      []string{"bob@example.com"},
	})

	require.NoError(t, err)
	assert.Equal(t, "draft_4711", id)
	script := runner.lastScript(t)
	assert.Contains(t, script, "save")
	assert.NotContains(t, script, "\nsend\n")
}

func TestReplyToMessage(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("812")
	id, err := client.ReplyToMessage(context.Background(), 7, "Sounds good.", false)

	require.NoError(t, err)
	assert.Equal(t, "812", id)
	script := runner.lastScript(t)
	assert.Contains(t, script, "set replyMsg to reply origMsg")
	assert.Contains(t, script, `set content of replyMsg to "Sounds good."`)
	assert.NotContains(t, script, "reply to all")
}

func TestReplyToMessage_ReplyAll(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("812")
	_, err := client.ReplyToMessage(context.Background(), 7, "Sounds good.", true)

	require.NoError(t, err)
	assert.Contains(t, runner.lastScript(t), "set replyMsg to reply to all origMsg")
}

func TestForwardMessage(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("913")
	id, err := client.ForwardMessage(context.Background(), 7,
		[]string{"dave@example.com"}, "FYI", []string{"carol@example.com"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "913", id)
	script := runner.lastScript(t)
	assert.Contains(t, script, "set fwdMsg to forward origMsg")
	assert.Contains(t, script, `set content of fwdMsg to "FYI" & return & return & origContent`)
	assert.Contains(t, script, `repeat with recipientAddr in {"dave@example.com"}`)
	assert.Contains(t, script, "make new cc recipient")
	assert.NotContains(t, script, "bcc recipient")
}

func TestForwardMessage_NoBodyKeepsContent(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("913")
	_, err := client.ForwardMessage(context.Background(), 7, []string{"dave@example.com"}, "", nil, nil)

	require.NoError(t, err)
	assert.NotContains(t, runner.lastScript(t), "set content of fwdMsg")
}

func TestListAttachments(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("report.pdf|application/pdf|204800|true")
	attachments, err := client.ListAttachments(context.Background(), 7)

	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Equal(t, "report.pdf", attachments[0].Name)
	assert.Contains(t, runner.lastScript(t), "set attList to mail attachments of msg")
}

func TestSaveAttachments_IndicesAreOneBased(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("2")
	n, err := client.SaveAttachments(context.Background(), 7, "/Users/me/Downloads", []int{0, 2})

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	script := runner.lastScript(t)
	assert.Contains(t, script, "set attList to items {1, 3} of mail attachments of msg")
	assert.Contains(t, script, `save att in ("/Users/me/Downloads" & "/" & attName)`)
}

func TestSaveAttachments_AllWhenNoIndices(t *testing.T) {
	t.Parallel()

	client, runner := newTestClient("3")
	n, err := client.SaveAttachments(context.Background(), 7, "/Users/me/Downloads", nil)

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Contains(t, runner.lastScript(t), "set attList to mail attachments of msg")
}

type opMetricsRecorder struct {
	operations []string
	statuses   []string
}

func (r *opMetricsRecorder) RecordMailOperation(_ context.Context, operation, status string, _ time.Duration) {
	r.operations = append(r.operations, operation)
	r.statuses = append(r.statuses, status)
}

func TestClient_RecordsOperationMetrics(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient("Work|alice@example.com")
	recorder := &opMetricsRecorder{}
	client.SetMetrics(recorder)

	_, err := client.ListAccounts(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{"list_accounts"}, recorder.operations)
	assert.Equal(t, []string{"success"}, recorder.statuses)
}

func TestClient_RecordsFailedOperationMetrics(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("osascript exploded")}
	client := NewClient(runner, slog.New(slog.NewTextHandler(io.Discard, nil)))
	recorder := &opMetricsRecorder{}
	client.SetMetrics(recorder)

	_, err := client.ListAccounts(context.Background())
	require.Error(t, err)

	require.Equal(t, []string{"list_accounts"}, recorder.operations)
	assert.Equal(t, []string{"error"}, recorder.statuses)
}

func TestRunnerErrorPropagates(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("osascript exploded")}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClient(runner, logger)

	_, err := client.ListAccounts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "osascript exploded")
}
