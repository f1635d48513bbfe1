package applescript

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a rendered AppleScript expression. Values are only produced by the
// typed constructors in this package, which escape caller-derived text at
// construction time. A Value carrying an error poisons any script it is
// interpolated into.
type Value struct {
	text string
	err  error
}

// String returns a quoted, escaped AppleScript string literal.
func String(v string) Value {
	escaped, err := Escape(v)
	if err != nil {
		return Value{err: err}
	}
	return Value{text: `"` + escaped + `"`}
}

// Int returns an AppleScript integer literal.
func Int(v int) Value {
	return Value{text: strconv.Itoa(v)}
}

// Bool returns an AppleScript boolean literal.
func Bool(v bool) Value {
	if v {
		return Value{text: "true"}
	}
	return Value{text: "false"}
}

// StringList returns an AppleScript list of quoted string literals,
// e.g. {"a", "b"}.
func StringList(vs []string) Value {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		sv := String(v)
		if sv.err != nil {
			return Value{err: sv.err}
		}
		parts = append(parts, sv.text)
	}
	return Value{text: "{" + strings.Join(parts, ", ") + "}"}
}

// IntList returns an AppleScript list of integer literals, e.g. {1, 2}.
func IntList(vs []int) Value {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		parts = append(parts, strconv.Itoa(v))
	}
	return Value{text: "{" + strings.Join(parts, ", ") + "}"}
}

// Expr builds a composite expression from a template with %s verbs and the
// rendered Values, e.g. Expr("sender contains %s", String(v)). An errored
// Value propagates its error.
func Expr(format string, vals ...Value) Value {
	args := make([]any, len(vals))
	for i, v := range vals {
		if v.err != nil {
			return Value{err: v.err}
		}
		args[i] = v.text
	}
	return Value{text: fmt.Sprintf(format, args...)}
}

// All joins boolean expressions with the `and` operator.
func All(conds []Value) Value {
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		if c.err != nil {
			return Value{err: c.err}
		}
		parts = append(parts, c.text)
	}
	return Value{text: strings.Join(parts, " and ")}
}

// PosixFile returns a POSIX file reference expression for the given path.
func PosixFile(path string) Value {
	sv := String(path)
	if sv.err != nil {
		return Value{err: sv.err}
	}
	return Value{text: "POSIX file " + sv.text}
}

// Script accumulates AppleScript source line by line. Template text is
// written with Line; anything derived from caller input must come in as a
// Value through Linef. The first Value error encountered sticks and is
// reported by Render.
type Script struct {
	lines []string
	err   error
}

// NewScript returns an empty script builder.
func NewScript() *Script {
	return &Script{}
}

// Line appends a literal template line. The text must not contain
// caller-derived content; use Linef with Values for that.
func (s *Script) Line(text string) *Script {
	s.lines = append(s.lines, text)
	return s
}

// Linef appends a template line with Value placeholders. The format string
// uses %s verbs which are substituted with the rendered Values.
func (s *Script) Linef(format string, vals ...Value) *Script {
	args := make([]any, len(vals))
	for i, v := range vals {
		if v.err != nil && s.err == nil {
			s.err = v.err
		}
		args[i] = v.text
	}
	s.lines = append(s.lines, fmt.Sprintf(format, args...))
	return s
}

// Render produces the final script text, or the first escape error raised by
// any interpolated Value.
func (s *Script) Render() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return strings.Join(s.lines, "\n"), nil
}

// TellMail wraps a builder callback in a `tell application "Mail"` block.
// It is the common entry point for every Mail.app script in this repository.
func TellMail(body func(s *Script)) *Script {
	s := NewScript()
	s.Line(`tell application "Mail"`)
	body(s)
	s.Line("end tell")
	return s
}

// JoinLines appends the standard output idiom used by list-returning scripts:
// join resultList with linefeeds and return it.
func (s *Script) JoinLines(listVar string) *Script {
	s.Line("set AppleScript's text item delimiters to linefeed")
	s.Line(fmt.Sprintf("set output to %s as text", listVar))
	s.Line(`set AppleScript's text item delimiters to ""`)
	s.Line("return output")
	return s
}
