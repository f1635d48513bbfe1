package applescript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/openmailtools/applemail-mcp/internal/logging"
)

const osascriptPath = "/usr/bin/osascript"

// DefaultTimeout bounds a single osascript invocation. Mail.app can hang
// indefinitely when busy or unresponsive, so every execution carries a
// deadline.
const DefaultTimeout = 60 * time.Second

// Typed failures surfaced by Run. Timeouts are retryable; the not-found
// family is not.
var (
	ErrAccountNotFound = errors.New("mail account not found")
	ErrMailboxNotFound = errors.New("mailbox not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrTimeout         = errors.New("script execution timed out")
)

// ScriptError is an AppleScript execution failure that does not map to one of
// the typed sentinel errors. Stderr is retained for logs but callers should
// not forward it verbatim to users.
type ScriptError struct {
	Stderr string
}

func (e *ScriptError) Error() string {
	return "applescript execution failed"
}

// Runner executes rendered AppleScript. It is an interface so the mail client
// can be exercised in tests without a macOS host.
type Runner interface {
	Run(ctx context.Context, script string) (string, error)
}

// OsascriptRunner runs scripts through /usr/bin/osascript, passing the script
// on stdin. The zero value is not usable; use NewRunner.
type OsascriptRunner struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewRunner creates a runner with the given per-invocation timeout. A zero or
// negative timeout falls back to DefaultTimeout.
func NewRunner(timeout time.Duration, logger *slog.Logger) *OsascriptRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OsascriptRunner{timeout: timeout, logger: logger}
}

// Run executes the script and returns trimmed stdout. Execution is bounded by
// the runner timeout in addition to any deadline already on ctx. Once started
// the invocation is treated as atomic: cancellation kills the osascript
// process but whatever Mail.app already did is not rolled back.
func (r *OsascriptRunner) Run(ctx context.Context, script string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, osascriptPath, "-")
	cmd.Stdin = strings.NewReader(script)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		r.logger.Warn("osascript timed out",
			logging.Operation("run_script"),
			slog.Duration(logging.KeyDuration, duration))
		return "", fmt.Errorf("%w after %s", ErrTimeout, r.timeout)
	}

	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		r.logger.Error("osascript failed",
			logging.Operation("run_script"),
			slog.String("stderr", truncate(msg, 200)))
		return "", classifyError(msg)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// classifyError maps Mail.app error text to typed errors so callers can act
// on the failure class without parsing AppleScript diagnostics themselves.
func classifyError(stderr string) error {
	switch {
	case strings.Contains(stderr, "Can't get account"):
		return ErrAccountNotFound
	case strings.Contains(stderr, "Can't get mailbox"):
		return ErrMailboxNotFound
	case strings.Contains(stderr, "Can't get message"), strings.Contains(stderr, "Message not found"):
		return ErrMessageNotFound
	default:
		return &ScriptError{Stderr: stderr}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
