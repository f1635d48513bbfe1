package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErr(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logger.Info("fine", Err(nil))
	assert.NotContains(t, buf.String(), "error=")

	buf.Reset()
	logger.Info("broke", Err(assert.AnError))
	assert.Contains(t, buf.String(), "error=")
	assert.Contains(t, buf.String(), assert.AnError.Error())
}

func TestRedactAddress(t *testing.T) {
	t.Parallel()

	redacted := RedactAddress("alice@example.com")
	assert.NotContains(t, redacted, "alice")
	assert.NotContains(t, redacted, "example.com")
	assert.True(t, len(redacted) > len("addr:"))

	// Stable for correlation, distinct per address.
	assert.Equal(t, redacted, RedactAddress("alice@example.com"))
	assert.NotEqual(t, redacted, RedactAddress("bob@example.com"))

	assert.Empty(t, RedactAddress(""))
}

func TestSummarizeRecipients(t *testing.T) {
	t.Parallel()

	got := SummarizeRecipients(
		[]string{"a@example.com", "b@example.com"},
		[]string{"c@example.com"},
		nil,
	)
	assert.Equal(t, "to=2 cc=1 bcc=0", got)
	assert.NotContains(t, got, "example.com")
}

func TestSummarizeBody(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "<empty>", SummarizeBody(""))
	assert.Equal(t, "[body:11 chars]", SummarizeBody("hello there"))
	assert.NotContains(t, SummarizeBody("secret plans"), "secret")
}
