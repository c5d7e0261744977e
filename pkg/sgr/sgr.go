// Package sgr turns ANSI Select Graphic Rendition sequences into HTML spans.
//
// A Renderer keeps its style and whether a span is open between calls, so
// output that arrives in arbitrarily small pieces keeps its styling: a call
// that ends inside a coloured run leaves the span open and the next call
// continues it.
package sgr

import (
	"regexp"
	"strconv"
	"strings"
)

// Pattern matches one SGR escape: ESC [ params m.
var Pattern = regexp.MustCompile(`\x1b\[([0-9;]*)m`)

// State is the set of active style attributes.
type State struct {
	Bold       bool
	Dim        bool
	Underline  bool
	Foreground string
	Background string
}

// Active reports whether any attribute is set.
func (s State) Active() bool {
	return s.Bold || s.Dim || s.Underline || s.Foreground != "" || s.Background != ""
}

// CSS renders the active attributes as an inline style value in a fixed order.
func (s State) CSS() string {
	var props []string
	if s.Bold {
		props = append(props, "font-weight:700")
	}
	if s.Dim {
		props = append(props, "opacity:0.7")
	}
	if s.Underline {
		props = append(props, "text-decoration:underline")
	}
	if s.Foreground != "" {
		props = append(props, "color:"+s.Foreground)
	}
	if s.Background != "" {
		props = append(props, "background-color:"+s.Background)
	}
	return strings.Join(props, ";")
}

const closeSpan = "</span>"

// Renderer converts text with embedded SGR escapes to escaped HTML.
// The zero value is ready to use. It is not safe for concurrent use.
type Renderer struct {
	state State
	open  bool   // a span is open in already-emitted output
	css   string // style of the open span
}

// Render converts s, carrying style across calls.
func (r *Renderer) Render(s string) string {
	if s == "" {
		return ""
	}
	var sb strings.Builder
	last := 0
	for _, loc := range Pattern.FindAllStringSubmatchIndex(s, -1) {
		sb.WriteString(EscapeHTML(s[last:loc[0]]))
		r.apply(parseParams(s[loc[2]:loc[3]]), &sb)
		last = loc[1]
	}
	sb.WriteString(EscapeHTML(s[last:]))
	return sb.String()
}

// Close returns the markup that closes an open span and clears all state.
// It returns "" when nothing is open.
func (r *Renderer) Close() string {
	out := ""
	if r.open {
		out = closeSpan
	}
	r.Reset()
	return out
}

// Reset clears state without emitting anything. Use it when the open span
// has been dropped from the output by other means.
func (r *Renderer) Reset() {
	r.state = State{}
	r.open = false
	r.css = ""
}

// IsOpen reports whether emitted output has an unclosed span.
func (r *Renderer) IsOpen() bool {
	return r.open
}

// OpenTag returns the markup that opens the current span again, or "" when
// no span is open.
func (r *Renderer) OpenTag() string {
	if !r.open {
		return ""
	}
	return `<span style="` + r.css + `">`
}

// State returns the current style attributes.
func (r *Renderer) State() State {
	return r.state
}

// apply mutates state for one escape's codes, then reconciles the open span.
func (r *Renderer) apply(codes []int, sb *strings.Builder) {
	for i := 0; i < len(codes); i++ {
		code := codes[i]
		switch {
		case code == 0:
			r.state = State{}
		case code == 1:
			r.state.Bold = true
		case code == 2:
			r.state.Dim = true
		case code == 4:
			r.state.Underline = true
		case code == 38 || code == 48:
			// Extended colours are not rendered, but their sub-parameters
			// must not be read as codes of their own.
			i += extendedLen(codes[i+1:])
		default:
			if c, ok := foreground(code); ok {
				r.state.Foreground = c
			} else if c, ok := background(code); ok {
				r.state.Background = c
			}
		}
	}

	css := r.state.CSS()
	if r.open && css == r.css {
		return
	}
	if r.open {
		sb.WriteString(closeSpan)
		r.open = false
		r.css = ""
	}
	if r.state.Active() {
		r.open = true
		r.css = css
		sb.WriteString(r.OpenTag())
	}
}

// extendedLen returns how many parameters follow a 38/48 introducer:
// "5;n" or "2;r;g;b".
func extendedLen(rest []int) int {
	if len(rest) == 0 {
		return 0
	}
	switch rest[0] {
	case 5:
		return min(2, len(rest))
	case 2:
		return min(4, len(rest))
	}
	return 0
}

// parseParams splits "1;31" into codes. An empty list means reset.
func parseParams(p string) []int {
	var codes []int
	for _, field := range strings.Split(p, ";") {
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		codes = append(codes, n)
	}
	if len(codes) == 0 {
		return []int{0}
	}
	return codes
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML escapes &, < and > for element content.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
