package gate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/openmailtools/applemail-mcp/internal/logging"
)

// Outcome values recorded in the audit trail.
const (
	OutcomeSuccess              = "success"
	OutcomeFailure              = "failure"
	OutcomeDeniedValidation     = "denied: validation"
	OutcomeDeniedPolicy         = "denied: policy"
	OutcomeConfirmationRequired = "confirmation_required"
)

// AuditRecord is one line of the append-only audit trail. Params is a
// redacted summary: counts and operation identifiers only, never message
// bodies or recipient addresses, so the log reconstructs what happened
// without storing message content.
type AuditRecord struct {
	Time     time.Time         `json:"time"`
	Op       string            `json:"op"`
	Risk     string            `json:"risk,omitempty"`
	Decision string            `json:"decision,omitempty"`
	Outcome  string            `json:"outcome"`
	Params   map[string]string `json:"params,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Recorder appends audit records to a durable JSONL file. Recording failures
// never propagate to the caller's control flow; they are surfaced on the
// operator log stream instead, so the mail operation's result still reaches
// the caller while the failure stays visible.
type Recorder struct {
	mu     sync.Mutex
	file   *os.File
	opslog *slog.Logger
	now    func() time.Time
}

// NewRecorder opens (creating if needed) the append-only audit log at path.
// The file is opened O_APPEND; the recorder exposes no way to rewrite or
// delete existing records.
func NewRecorder(path string, opslog *slog.Logger) (*Recorder, error) {
	if opslog == nil {
		opslog = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating audit log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &Recorder{file: f, opslog: opslog, now: time.Now}, nil
}

// Record appends one audit record. Failures are reported to the operator log
// and otherwise swallowed; see the Recorder contract.
func (r *Recorder) Record(rec AuditRecord) {
	if rec.Time.IsZero() {
		rec.Time = r.now()
	}

	line, err := json.Marshal(rec)
	if err != nil {
		r.opslog.Error("audit record not written",
			logging.Operation(rec.Op),
			logging.Err(err))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.file.Write(append(line, '\n')); err != nil {
		r.opslog.Error("audit record not written",
			logging.Operation(rec.Op),
			logging.Err(err))
	}
}

// Close flushes and closes the underlying file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// summarizeParams builds the redacted parameter summary for an audit record.
// Identifiers (account, mailbox, flags) are kept; free text and recipients
// are reduced to counts or lengths.
func summarizeParams(req ToolRequest, vr ValidationResult) map[string]string {
	src := vr.Normalized
	validated := src != nil
	if !validated {
		// Validation failed; summarize from the raw args so the record still
		// shows what was attempted, with the same redaction rules.
		src = req.Args
	}

	out := map[string]string{}
	for key, val := range src {
		switch key {
		case "body", "subject", "senderContains", "subjectContains":
			if s, ok := val.(string); ok {
				out[key] = logging.SummarizeBody(s)
			}
		case "to", "cc", "bcc":
			switch list := val.(type) {
			case []string:
				out[key] = fmt.Sprintf("%d recipients", len(list))
			case []any:
				out[key] = fmt.Sprintf("%d recipients", len(list))
			case string:
				out[key] = "1 recipients"
			}
		case "ids":
			switch list := val.(type) {
			case []int64:
				out[key] = fmt.Sprintf("%d messages", len(list))
			case []any:
				out[key] = fmt.Sprintf("%d messages", len(list))
			}
		case "confirm":
			// The token itself stays out of the log.
			out[key] = "present"
		case "attachments":
			switch list := val.(type) {
			case []string:
				out[key] = fmt.Sprintf("%d files", len(list))
			case []any:
				out[key] = fmt.Sprintf("%d files", len(list))
			}
		case "dir":
			// A whitelisted directory is worth recording; an arbitrary path
			// from a rejected call is not.
			if s, ok := val.(string); ok {
				if validated {
					out[key] = s
				} else {
					out[key] = fmt.Sprintf("[path:%d chars]", len(s))
				}
			}
		default:
			out[key] = fmt.Sprintf("%v", val)
		}
	}
	return out
}
