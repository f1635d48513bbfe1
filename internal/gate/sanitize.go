package gate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/openmailtools/applemail-mcp/internal/mail"
)

// Limits configures the sanitizer's caps. Zero values fall back to the
// defaults from DefaultLimits.
type Limits struct {
	// MaxStringLen caps each string argument. The ceiling exists because the
	// rendered script travels through osascript and very large literals run
	// into command and AppleEvent size limits.
	MaxStringLen int

	// MaxBatch caps the number of message IDs in a single bulk operation.
	// Oversized batches fail validation outright; they are never truncated,
	// because a silently shortened "success" would be misread as complete.
	MaxBatch int

	// MaxAttachmentSize caps each outgoing attachment in bytes.
	MaxAttachmentSize int64

	// SaveDirs is the whitelist of directories attachments may be read from
	// or saved into. Empty means no filesystem paths are accepted at all.
	SaveDirs []string
}

// DefaultLimits returns the documented default caps.
func DefaultLimits() Limits {
	return Limits{
		MaxStringLen:      4096,
		MaxBatch:          100,
		MaxAttachmentSize: 25 * 1024 * 1024,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxStringLen <= 0 {
		l.MaxStringLen = d.MaxStringLen
	}
	if l.MaxBatch <= 0 {
		l.MaxBatch = d.MaxBatch
	}
	if l.MaxAttachmentSize <= 0 {
		l.MaxAttachmentSize = d.MaxAttachmentSize
	}
	return l
}

// ValidationResult is the sanitizer's verdict. On pass, Normalized holds the
// typed, cleaned arguments the rest of the pipeline works with; the raw
// request is never consulted again after validation.
type ValidationResult struct {
	OK         bool
	Normalized map[string]any
	Violations []string
}

// Sanitizer validates and normalizes raw tool arguments. Validate is a pure
// function of its input; filesystem-touching checks live in
// CheckAttachmentFiles and run separately.
type Sanitizer struct {
	limits Limits
}

// NewSanitizer creates a sanitizer with the given limits.
func NewSanitizer(limits Limits) *Sanitizer {
	return &Sanitizer{limits: limits.withDefaults()}
}

// Limits returns the active caps.
func (sn *Sanitizer) Limits() Limits {
	return sn.limits
}

// addressPattern is a deliberately permissive RFC-5322-lite check:
// local-part@domain with at least one dot in the domain. Exhaustive RFC
// validation is Mail.app's job; this only rejects obvious garbage before it
// reaches a script template.
var addressPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// messageIDPattern matches Mail.app numeric message IDs.
var messageIDPattern = regexp.MustCompile(`^[0-9]+$`)

// Validate checks the request against the per-operation rules and returns
// the normalized arguments on success.
func (sn *Sanitizer) Validate(req ToolRequest) ValidationResult {
	v := &validation{limits: sn.limits, args: req.Args, norm: map[string]any{}}

	switch req.Op {
	case OpListAccounts:
		// No arguments.
	case OpListMailboxes:
		v.requireString("account")
	case OpSearchMessages:
		v.requireString("account")
		v.optionalString("mailbox", "INBOX")
		v.optionalString("senderContains", "")
		v.optionalString("subjectContains", "")
		v.optionalBoolPtr("readStatus")
		v.optionalLimit("limit")
	case OpGetMessage:
		v.requireMessageID("id")
		v.optionalBool("includeContent", true)
	case OpListAttachments:
		v.requireMessageID("id")
	case OpSendEmail, OpCreateDraft:
		v.requireString("subject")
		v.requireString("body")
		v.requireAddressList("to")
		v.optionalAddressList("cc")
		v.optionalAddressList("bcc")
		v.optionalPathList("attachments")
	case OpReplyToMessage:
		v.requireMessageID("id")
		v.requireString("body")
		v.optionalBool("replyAll", false)
	case OpForwardMessage:
		v.requireMessageID("id")
		v.requireAddressList("to")
		v.optionalString("body", "")
		v.optionalAddressList("cc")
		v.optionalAddressList("bcc")
	case OpMarkAsRead:
		v.requireMessageIDList("ids")
		v.optionalBool("read", true)
	case OpMoveMessages:
		v.requireMessageIDList("ids")
		v.requireString("mailbox")
		v.requireString("account")
		v.optionalBool("gmailMode", false)
	case OpFlagMessages:
		v.requireMessageIDList("ids")
		v.requireFlagColor("color")
	case OpCreateMailbox:
		v.requireString("account")
		v.requireMailboxName("name")
		v.optionalString("parent", "")
	case OpSaveAttachments:
		v.requireMessageID("id")
		v.requireWhitelistedDir("dir")
		v.optionalIndexList("indices")
	case OpDeleteMessages:
		v.requireMessageIDList("ids")
		v.optionalBool("permanent", false)
	default:
		v.fail(fmt.Sprintf("unknown operation %q", req.Op))
	}

	if len(v.violations) > 0 {
		return ValidationResult{OK: false, Violations: v.violations}
	}
	return ValidationResult{OK: true, Normalized: v.norm}
}

// CheckAttachmentFiles verifies that outgoing attachment paths exist, are
// regular files, and fit the size cap. This touches the filesystem and is
// therefore not part of Validate; callers run it after the gate allows the
// operation and before the backend call.
func (sn *Sanitizer) CheckAttachmentFiles(paths []string) error {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return NewValidationError([]string{fmt.Sprintf("attachment not found: %s", filepath.Base(p))})
		}
		if !info.Mode().IsRegular() {
			return NewValidationError([]string{fmt.Sprintf("attachment is not a regular file: %s", filepath.Base(p))})
		}
		if info.Size() > sn.limits.MaxAttachmentSize {
			return NewValidationError([]string{fmt.Sprintf(
				"attachment %s exceeds size limit (%d bytes > %d bytes)",
				filepath.Base(p), info.Size(), sn.limits.MaxAttachmentSize)})
		}
	}
	return nil
}

// validation accumulates violations and normalized values for one request.
type validation struct {
	limits     Limits
	args       map[string]any
	norm       map[string]any
	violations []string
}

func (v *validation) fail(msg string) {
	v.violations = append(v.violations, msg)
}

func (v *validation) stringArg(key string) (string, bool) {
	raw, ok := v.args[key]
	if !ok || raw == nil {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

func (v *validation) checkLen(key, s string) bool {
	if len(s) > v.limits.MaxStringLen {
		v.fail(fmt.Sprintf("%s exceeds maximum length %d", key, v.limits.MaxStringLen))
		return false
	}
	return true
}

func (v *validation) requireString(key string) {
	s, ok := v.stringArg(key)
	if !ok || strings.TrimSpace(s) == "" {
		v.fail(fmt.Sprintf("%s is required", key))
		return
	}
	if v.checkLen(key, s) {
		v.norm[key] = s
	}
}

func (v *validation) optionalString(key, def string) {
	s, ok := v.stringArg(key)
	if !ok || s == "" {
		v.norm[key] = def
		return
	}
	if v.checkLen(key, s) {
		v.norm[key] = s
	}
}

func (v *validation) optionalBool(key string, def bool) {
	raw, ok := v.args[key]
	if !ok || raw == nil {
		v.norm[key] = def
		return
	}
	b, ok := raw.(bool)
	if !ok {
		v.fail(fmt.Sprintf("%s must be a boolean", key))
		return
	}
	v.norm[key] = b
}

// optionalBoolPtr normalizes a tri-state boolean: absent means nil.
func (v *validation) optionalBoolPtr(key string) {
	raw, ok := v.args[key]
	if !ok || raw == nil {
		v.norm[key] = (*bool)(nil)
		return
	}
	b, ok := raw.(bool)
	if !ok {
		v.fail(fmt.Sprintf("%s must be a boolean", key))
		return
	}
	v.norm[key] = &b
}

// optionalLimit validates a result-count cap. Values over MaxBatch fail; the
// caller must be told rather than silently receiving fewer results than
// requested.
func (v *validation) optionalLimit(key string) {
	n, ok, err := v.intArg(key)
	if err != nil {
		v.fail(err.Error())
		return
	}
	if !ok {
		v.norm[key] = 0
		return
	}
	if n < 0 {
		v.fail(fmt.Sprintf("%s must be non-negative", key))
		return
	}
	if n > v.limits.MaxBatch {
		v.fail(fmt.Sprintf("batch size %d exceeds maximum %d", n, v.limits.MaxBatch))
		return
	}
	v.norm[key] = n
}

func (v *validation) intArg(key string) (int, bool, error) {
	raw, ok := v.args[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch n := raw.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false, fmt.Errorf("%s must be an integer", key)
		}
		return int(n), true, nil
	case int:
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("%s must be an integer", key)
	}
}

func parseMessageID(raw any) (int64, error) {
	switch id := raw.(type) {
	case string:
		if !messageIDPattern.MatchString(id) {
			return 0, fmt.Errorf("message IDs must be numeric")
		}
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("message ID out of range")
		}
		return n, nil
	case float64:
		if id < 0 || id != float64(int64(id)) {
			return 0, fmt.Errorf("message IDs must be non-negative integers")
		}
		return int64(id), nil
	default:
		return 0, fmt.Errorf("message ID must be a number or numeric string")
	}
}

func (v *validation) requireMessageID(key string) {
	raw, ok := v.args[key]
	if !ok || raw == nil {
		v.fail(fmt.Sprintf("%s is required", key))
		return
	}
	id, err := parseMessageID(raw)
	if err != nil {
		v.fail(fmt.Sprintf("%s: %v", key, err))
		return
	}
	v.norm[key] = id
}

func (v *validation) requireMessageIDList(key string) {
	raw, ok := v.args[key]
	if !ok || raw == nil {
		v.fail(fmt.Sprintf("%s is required", key))
		return
	}

	var items []any
	switch list := raw.(type) {
	case []any:
		items = list
	case string, float64:
		items = []any{list}
	default:
		v.fail(fmt.Sprintf("%s must be a list of message IDs", key))
		return
	}

	if len(items) == 0 {
		v.fail(fmt.Sprintf("%s is required", key))
		return
	}
	if len(items) > v.limits.MaxBatch {
		v.fail(fmt.Sprintf("batch size %d exceeds maximum %d", len(items), v.limits.MaxBatch))
		return
	}

	ids := make([]int64, 0, len(items))
	for i, item := range items {
		id, err := parseMessageID(item)
		if err != nil {
			v.fail(fmt.Sprintf("%s[%d]: %v", key, i, err))
			return
		}
		ids = append(ids, id)
	}
	v.norm[key] = ids
}

func (v *validation) addressList(key string, required bool) {
	raw, ok := v.args[key]
	if !ok || raw == nil {
		if required {
			v.fail(fmt.Sprintf("%s is required", key))
		} else {
			v.norm[key] = []string(nil)
		}
		return
	}

	var values []string
	switch list := raw.(type) {
	case string:
		// Comma-separated shorthand, same as the Gmail tools accept.
		for _, part := range strings.Split(list, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				values = append(values, trimmed)
			}
		}
	case []any:
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				v.fail(fmt.Sprintf("%s[%d] must be a string", key, i))
				return
			}
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				values = append(values, trimmed)
			}
		}
	default:
		v.fail(fmt.Sprintf("%s must be a string or list of strings", key))
		return
	}

	if required && len(values) == 0 {
		v.fail(fmt.Sprintf("%s is required", key))
		return
	}
	for _, addr := range values {
		if !v.checkLen(key, addr) {
			return
		}
		if !addressPattern.MatchString(addr) {
			v.fail(fmt.Sprintf("%s contains an invalid email address", key))
			return
		}
	}
	v.norm[key] = values
}

func (v *validation) requireAddressList(key string)  { v.addressList(key, true) }
func (v *validation) optionalAddressList(key string) { v.addressList(key, false) }

func (v *validation) requireFlagColor(key string) {
	s, ok := v.stringArg(key)
	if !ok || s == "" {
		v.fail(fmt.Sprintf("%s is required", key))
		return
	}
	color := strings.ToLower(strings.TrimSpace(s))
	if !mail.ValidFlagColor(color) {
		v.fail(fmt.Sprintf("invalid flag color %q (valid: %s)", s, strings.Join(mail.FlagColors(), ", ")))
		return
	}
	v.norm[key] = color
}

// mailboxNamePattern rejects characters that confuse Mail.app or smell like
// path or script injection in a mailbox name.
var mailboxNamePattern = regexp.MustCompile(`^[^/\\:"]+$`)

func (v *validation) requireMailboxName(key string) {
	s, ok := v.stringArg(key)
	name := strings.TrimSpace(s)
	if !ok || name == "" {
		v.fail(fmt.Sprintf("%s is required", key))
		return
	}
	if !v.checkLen(key, name) {
		return
	}
	if !mailboxNamePattern.MatchString(name) {
		v.fail(fmt.Sprintf("invalid mailbox name %q", s))
		return
	}
	v.norm[key] = name
}

// checkPath enforces the path rules: absolute, traversal-free, and inside a
// whitelisted directory.
func (v *validation) checkPath(key, p string) (string, bool) {
	if !v.checkLen(key, p) {
		return "", false
	}
	if strings.Contains(p, "..") {
		v.fail(fmt.Sprintf("%s contains a path traversal sequence", key))
		return "", false
	}
	if !filepath.IsAbs(p) {
		v.fail(fmt.Sprintf("%s must be an absolute path", key))
		return "", false
	}
	clean := filepath.Clean(p)
	for _, dir := range v.limits.SaveDirs {
		dir = filepath.Clean(dir)
		if clean == dir || strings.HasPrefix(clean, dir+string(filepath.Separator)) {
			return clean, true
		}
	}
	v.fail(fmt.Sprintf("%s is outside the configured directory whitelist", key))
	return "", false
}

func (v *validation) requireWhitelistedDir(key string) {
	s, ok := v.stringArg(key)
	if !ok || s == "" {
		v.fail(fmt.Sprintf("%s is required", key))
		return
	}
	clean, ok := v.checkPath(key, s)
	if ok {
		v.norm[key] = clean
	}
}

func (v *validation) optionalPathList(key string) {
	raw, ok := v.args[key]
	if !ok || raw == nil {
		v.norm[key] = []string(nil)
		return
	}
	list, ok := raw.([]any)
	if !ok {
		v.fail(fmt.Sprintf("%s must be a list of paths", key))
		return
	}
	paths := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			v.fail(fmt.Sprintf("%s[%d] must be a string", key, i))
			return
		}
		clean, ok := v.checkPath(key, s)
		if !ok {
			return
		}
		paths = append(paths, clean)
	}
	v.norm[key] = paths
}

func (v *validation) optionalIndexList(key string) {
	raw, ok := v.args[key]
	if !ok || raw == nil {
		v.norm[key] = []int(nil)
		return
	}
	list, ok := raw.([]any)
	if !ok {
		v.fail(fmt.Sprintf("%s must be a list of indices", key))
		return
	}
	indices := make([]int, 0, len(list))
	for i, item := range list {
		n, ok := item.(float64)
		if !ok || n < 0 || n != float64(int(n)) {
			v.fail(fmt.Sprintf("%s[%d] must be a non-negative integer", key, i))
			return
		}
		indices = append(indices, int(n))
	}
	v.norm[key] = indices
}
