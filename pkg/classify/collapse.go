package classify

import (
	"strings"
	"unicode/utf8"
)

// Prepare readies raw output for the style machine: non-SGR escapes are
// dropped, then carriage returns and backspaces are collapsed.
func Prepare(s string) string {
	return Collapse(StripControl(s))
}

// Collapse applies carriage-return and backspace semantics line by line, the
// way a terminal would leave the screen. Within a line the last segment
// after a carriage return that has visible text wins; SGR escapes from the
// overwritten segments are kept, in order, so style state still flows.
// A backspace erases the previous visible character.
func Collapse(s string) string {
	if !HasOverwrite(s) {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = collapseLine(line)
	}
	return strings.Join(lines, "\n")
}

func collapseLine(line string) string {
	if !HasOverwrite(line) {
		return line
	}
	segments := strings.Split(line, "\r")
	chosen := -1
	for i, seg := range segments {
		segments[i] = applyBackspace(seg)
		if StripANSI(segments[i]) != "" {
			chosen = i
		}
	}

	var sb strings.Builder
	for i, seg := range segments {
		if i == chosen {
			sb.WriteString(seg)
			continue
		}
		sb.WriteString(SGREscapes(seg))
	}
	return sb.String()
}

// OverwriteText returns what the segments after the first carriage return
// leave on screen, with all escapes removed. ok is false when those segments
// show nothing, in which case the line's existing content stays visible.
func OverwriteText(line string) (text string, ok bool) {
	idx := strings.IndexByte(line, '\r')
	if idx < 0 {
		return "", false
	}
	s := StripANSI(collapseLine(line[idx:]))
	if s == "" {
		return "", false
	}
	return s, true
}

// EndsWithCarriageReturn reports whether s leaves the cursor at the start of
// its last line: a carriage return followed by nothing visible.
func EndsWithCarriageReturn(s string) bool {
	last := s[strings.LastIndexByte(s, '\n')+1:]
	idx := strings.LastIndexByte(last, '\r')
	return idx >= 0 && StripANSI(last[idx+1:]) == ""
}

// applyBackspace removes the visible character before each backspace.
// Escape sequences are never split.
func applyBackspace(s string) string {
	if strings.IndexByte(s, '\b') < 0 {
		return s
	}
	type token struct {
		text    string
		visible bool
	}
	var tokens []token
	for i := 0; i < len(s); {
		switch c := s[i]; {
		case c == esc:
			n, _, _ := escapeLen(s[i:])
			tokens = append(tokens, token{text: s[i : i+n]})
			i += n
		case c == '\b':
			for j := len(tokens) - 1; j >= 0; j-- {
				if tokens[j].visible {
					tokens = append(tokens[:j], tokens[j+1:]...)
					break
				}
			}
			i++
		default:
			_, size := utf8.DecodeRuneInString(s[i:])
			tokens = append(tokens, token{text: s[i : i+size], visible: true})
			i += size
		}
	}
	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteString(tok.text)
	}
	return sb.String()
}
