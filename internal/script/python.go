// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package script

import (
	"encoding/json"
	"fmt"
	"strings"
)

// pyString renders s as a Python string literal. Multiline content embeds
// verbatim in a triple-quoted literal when that cannot change its meaning;
// everything else becomes an escaped double-quoted literal.
func pyString(s string) string {
	if strings.Contains(s, "\n") && tripleSafe(s) {
		return `"""` + s + `"""`
	}
	return pyEscape(s)
}

// tripleSafe reports whether s can sit inside """...""" untouched: no
// backslashes (they would become escape sequences), no triple quote, no
// leading or trailing quote to merge with the delimiters, and no control
// characters other than newline.
func tripleSafe(s string) bool {
	if strings.ContainsRune(s, '\\') || strings.Contains(s, `"""`) {
		return false
	}
	if strings.HasPrefix(s, `"`) || strings.HasSuffix(s, `"`) {
		return false
	}
	for _, r := range s {
		if r < 0x20 && r != '\n' {
			return false
		}
		if r == 0x7f {
			return false
		}
	}
	return true
}

// pyEscape renders s as a single-line double-quoted Python literal.
func pyEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// pyJSON renders raw JSON as a json.loads(...) expression, preserving the
// notebook's figure and spec payloads byte for byte.
func pyJSON(raw json.RawMessage) string {
	return "json.loads(" + pyString(string(raw)) + ")"
}

// writer accumulates generated Python with four-space indentation levels.
type writer struct {
	b      strings.Builder
	indent int
}

// line writes one statement at the current indent; a blank argument writes an
// empty line. Statements may span physical lines through multi-line string
// literals, whose continuation lines must stay unindented to keep their
// content intact, so only the statement start is indented.
func (w *writer) line(s string) {
	if s != "" {
		w.b.WriteString(strings.Repeat("    ", w.indent))
		w.b.WriteString(s)
	}
	w.b.WriteByte('\n')
}

func (w *writer) linef(format string, args ...any) {
	w.line(fmt.Sprintf(format, args...))
}

// in and out shift the indentation level for with-blocks.
func (w *writer) in()  { w.indent++ }
func (w *writer) out() { w.indent-- }

// splice copies a block pre-rendered by a writer that was already set to the
// matching indent.
func (w *writer) splice(inner *writer) {
	w.b.WriteString(inner.String())
}

func (w *writer) String() string { return w.b.String() }
