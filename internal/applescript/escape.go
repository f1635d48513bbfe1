package applescript

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnrepresentable indicates input that cannot be expressed as an
// AppleScript string literal (e.g. NUL bytes). It is the only failure mode of
// Escape; everything else escapes cleanly.
var ErrUnrepresentable = errors.New("input not representable as AppleScript literal")

// Escape converts raw text into a fragment that is safe to embed inside a
// double-quoted AppleScript string literal. Backslashes and double quotes are
// escaped so the fragment can neither terminate the enclosing literal nor
// introduce additional statements. Line breaks are normalized to the \n
// escape so multi-line content stays inside one literal.
func Escape(raw string) (string, error) {
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c == 0x00 {
			return "", fmt.Errorf("%w: NUL byte at offset %d", ErrUnrepresentable, i)
		}
		// Other C0 controls (besides tab/newline/carriage return) have no
		// printable AppleScript escape and usually indicate binary input.
		if c < 0x20 && c != '\t' && c != '\n' && c != '\r' {
			return "", fmt.Errorf("%w: control byte 0x%02x at offset %d", ErrUnrepresentable, c, i)
		}
	}

	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		switch c := raw[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			// Normalize CRLF and bare CR to a single \n.
			if i+1 < len(raw) && raw[i+1] == '\n' {
				continue
			}
			b.WriteString(`\n`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
