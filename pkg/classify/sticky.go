package classify

import (
	"strings"

	"github.com/dkoosis/logtee/pkg/document"
)

// Sticky decides a chunk's block kind and remembers cursor-control mode.
//
// Progress bars and spinners redraw with cursor movement, so once a chunk
// carries a non-SGR control sequence the writer stays in cursor-control mode
// until a chunk ends a line cleanly: it ends with a newline and has no
// control sequences, carriage returns or backspaces. That chunk already
// belongs to the plain stream again. The zero value is ready to use.
type Sticky struct {
	active bool
}

// Kind classifies text arriving on stream.
func (s *Sticky) Kind(text string, stream document.Kind) document.Kind {
	if HasCursorControl(text) {
		s.active = true
		return document.CursorControl
	}
	if !s.active {
		return stream
	}
	if strings.HasSuffix(text, "\n") && !HasOverwrite(text) {
		s.active = false
		return stream
	}
	return document.CursorControl
}

// Active reports whether cursor-control mode is on.
func (s *Sticky) Active() bool {
	return s.active
}

// Reset leaves cursor-control mode.
func (s *Sticky) Reset() {
	s.active = false
}
