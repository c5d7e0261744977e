// Package classify inspects raw terminal output before it is rendered: which
// block kind it belongs to, which escapes survive into styling, how carriage
// returns and backspaces collapse, and which lines look like headings.
package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
)

const esc = 0x1b

// escapeLen measures the escape sequence at the start of s (s[0] is ESC).
// It reports the sequence length, its final byte (0 if none), and whether it
// is a CSI sequence.
//
// CSI:  ESC [ (0x30-0x3F)* (0x20-0x2F)* (0x40-0x7E)
// OSC and other string sequences: ESC [PX]^_] text (BEL | ESC \)
// Charset selection: ESC ( c, ESC ) c. Anything else is two bytes.
func escapeLen(s string) (n int, final byte, csi bool) {
	if len(s) < 2 {
		return len(s), 0, false
	}
	switch s[1] {
	case '[':
		i := 2
		for i < len(s) && s[i] >= 0x30 && s[i] <= 0x3f {
			i++
		}
		for i < len(s) && s[i] >= 0x20 && s[i] <= 0x2f {
			i++
		}
		if i < len(s) && s[i] >= 0x40 && s[i] <= 0x7e {
			return i + 1, s[i], true
		}
		// Unterminated, or broken by a byte that cannot appear in CSI.
		return i, 0, true
	case ']', 'P', 'X', '^', '_':
		for i := 2; i < len(s); i++ {
			if s[i] == 0x07 {
				return i + 1, s[i], false
			}
			if s[i] == esc && i+1 < len(s) && s[i+1] == '\\' {
				return i + 2, '\\', false
			}
		}
		return len(s), 0, false
	case '(', ')':
		return min(3, len(s)), 0, false
	}
	return 2, s[1], false
}

// isSGR reports whether seq is a complete SGR sequence the style machine
// understands: ESC [ digits-and-semicolons m.
func isSGR(seq string) bool {
	if len(seq) < 3 || seq[len(seq)-1] != 'm' {
		return false
	}
	for i := 2; i < len(seq)-1; i++ {
		if (seq[i] < '0' || seq[i] > '9') && seq[i] != ';' {
			return false
		}
	}
	return true
}

// HasCursorControl reports whether s holds a CSI sequence whose final byte
// is not 'm': cursor movement, erase, mode switches and the like.
func HasCursorControl(s string) bool {
	for i := strings.IndexByte(s, esc); i >= 0 && i < len(s); {
		n, final, csi := escapeLen(s[i:])
		if csi && final != 0 && final != 'm' {
			return true
		}
		next := strings.IndexByte(s[i+n:], esc)
		if next < 0 {
			break
		}
		i += n + next
	}
	return false
}

// HasOverwrite reports whether s holds carriage returns or backspaces.
func HasOverwrite(s string) bool {
	return strings.ContainsAny(s, "\r\b")
}

// StripControl removes every escape sequence except complete SGR ones, and
// drops C0 control bytes other than newline, tab, carriage return and
// backspace. What remains is safe to hand to the style machine.
func StripControl(s string) string {
	if !hasControl(s) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == esc:
			n, _, _ := escapeLen(s[i:])
			if seq := s[i : i+n]; isSGR(seq) {
				sb.WriteString(seq)
			}
			i += n
		case c < 0x20 && c != '\n' && c != '\t' && c != '\r' && c != '\b', c == 0x7f:
			i++
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}

func hasControl(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 0x20 && c != '\n' && c != '\t' && c != '\r' && c != '\b') || c == 0x7f {
			return true
		}
	}
	return false
}

// StripANSI removes all escape sequences.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// SGREscapes returns the SGR sequences in s, in order, concatenated.
func SGREscapes(s string) string {
	var sb strings.Builder
	for i := strings.IndexByte(s, esc); i >= 0 && i < len(s); {
		n, _, _ := escapeLen(s[i:])
		if seq := s[i : i+n]; isSGR(seq) {
			sb.WriteString(seq)
		}
		next := strings.IndexByte(s[i+n:], esc)
		if next < 0 {
			break
		}
		i += n + next
	}
	return sb.String()
}

// maxHeldEscape bounds how much of an unterminated escape is held back.
const maxHeldEscape = 256

// IncompleteTail returns the offset of a trailing escape sequence or UTF-8
// rune that was cut off mid-way, or len(s) when s ends cleanly. Writers that
// receive output in arbitrary chunks hold the tail back until more arrives.
func IncompleteTail(s string) int {
	if i := strings.LastIndexByte(s, esc); i >= 0 && len(s)-i <= maxHeldEscape {
		n, final, csi := escapeLen(s[i:])
		if i+n == len(s) && final == 0 && (csi || n < 2 || isStringIntro(s[i+1])) {
			return i
		}
	}
	// A rune is at most 4 bytes, so only the last 3 can start a partial one.
	for i := len(s) - 1; i >= 0 && i >= len(s)-3; i-- {
		c := s[i]
		if c < 0x80 {
			break
		}
		if c >= 0xc0 {
			if !utf8.FullRuneInString(s[i:]) {
				return i
			}
			break
		}
	}
	return len(s)
}

func isStringIntro(c byte) bool {
	switch c {
	case ']', 'P', 'X', '^', '_', '(', ')':
		return true
	}
	return false
}
