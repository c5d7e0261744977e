package logtee

import (
	"io"
	"strings"
	"sync"

	"github.com/dkoosis/logtee/pkg/classify"
	"github.com/dkoosis/logtee/pkg/render"
)

// TeeWriter copies writes to an original writer and prints them into the
// session as one stream.
type TeeWriter struct {
	mu      sync.Mutex
	session *Session
	stream  Stream
	orig    io.Writer
	pending string // cut-off escape or rune held for the next write
}

// Tee returns a writer that passes output through to orig (which may be
// nil) and records it as stream. Anchor link echoes are not recorded.
func (s *Session) Tee(stream Stream, orig io.Writer) *TeeWriter {
	return &TeeWriter{session: s, stream: stream, orig: orig}
}

// Write forwards p to the original writer, then prints it. Failures of the
// original writer are ignored; document failures are returned.
func (w *TeeWriter) Write(p []byte) (int, error) {
	if w.orig != nil {
		_, _ = w.orig.Write(p)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	text := w.pending + string(p)
	cut := classify.IncompleteTail(text)
	text, w.pending = text[:cut], text[cut:]
	if err := w.session.Print(dropLinkEchoes(text), w.stream); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Flush prints output held back because it ended mid-sequence.
func (w *TeeWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == "" {
		return nil
	}
	text := w.pending
	w.pending = ""
	return w.session.Print(text, w.stream)
}

// dropLinkEchoes removes complete lines that are anchor link echoes.
func dropLinkEchoes(text string) string {
	if !strings.Contains(text, render.LinkIcon) {
		return text
	}
	lines := strings.SplitAfter(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasSuffix(line, "\n") && render.IsLinkEcho(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "")
}
