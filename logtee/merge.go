package logtee

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/dkoosis/logtee/internal/logging"
	"github.com/dkoosis/logtee/internal/splice"
	"github.com/dkoosis/logtee/pkg/classify"
	"github.com/dkoosis/logtee/pkg/document"
)

// Print renders text as output of the given stream.
//
// Output of the same kind as the open block extends it. A carriage return on
// the first line overwrites the block's last line. Anything else opens a new
// block. Cursor-control redraws are grouped into a cursor-control block
// until a clean line ends them.
func (s *Session) Print(text string, stream Stream) error {
	if !stream.Mergeable() {
		return fmt.Errorf("%w: %q", ErrInvalidStream, stream)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	return s.failLocked(s.printLocked(text, stream))
}

// Stdout prints text as standard output.
func (s *Session) Stdout(text string) error {
	return s.Print(text, Stdout)
}

// Stderr prints text as standard error.
func (s *Session) Stderr(text string) error {
	return s.Print(text, Stderr)
}

// printLocked splits text around lines that look like headings, anchoring
// each one before it is written.
func (s *Session) printLocked(text string, stream Stream) error {
	for s.autoAnchors {
		title, start, end, ok := s.findAutoAnchor(text)
		if !ok {
			break
		}
		if start > 0 {
			if err := s.writeLocked(text[:start], stream); err != nil {
				return err
			}
		}
		if _, err := s.anchorLocked(title, ""); err != nil {
			return err
		}
		if err := s.writeLocked(text[start:end], stream); err != nil {
			return err
		}
		text = text[end:]
	}
	if text == "" {
		return nil
	}
	return s.writeLocked(text, stream)
}

// findAutoAnchor returns the first complete line in text that starts at a
// line start and is recognised as a panel title or heading.
func (s *Session) findAutoAnchor(text string) (title string, start, end int, ok bool) {
	lineStart := s.atLineStart
	for pos := 0; pos < len(text); {
		nl := strings.IndexByte(text[pos:], '\n')
		if nl < 0 {
			return "", 0, 0, false
		}
		lineEnd := pos + nl + 1
		if lineStart && nl <= 4*classify.MaxAnchorLine {
			line := strings.TrimSuffix(text[pos:lineEnd-1], "\r")
			if t, found := classify.DetectAnchor(classify.Prepare(line)); found {
				return t, pos, lineEnd, true
			}
		}
		lineStart = true
		pos = lineEnd
	}
	return "", 0, 0, false
}

// writeLocked applies the merge policy to one chunk.
func (s *Session) writeLocked(text string, stream Stream) error {
	kind := s.sticky.Kind(text, stream)
	clean := classify.StripControl(text)
	if s.pendingCR && kind == s.lastKind {
		// The cursor was left at column 0 of the last line.
		clean = "\r" + clean
	}

	if err := s.placeLocked(kind, clean); err != nil {
		return err
	}
	s.atLineStart = strings.HasSuffix(text, "\n")
	s.pendingCR = classify.EndsWithCarriageReturn(clean)
	return nil
}

func (s *Session) placeLocked(kind document.Kind, clean string) error {
	if kind != s.lastKind {
		return s.newBlockLocked(kind, clean)
	}
	if first, _, _ := strings.Cut(clean, "\n"); strings.IndexByte(first, '\r') >= 0 {
		done, err := s.overwriteLocked(kind, clean)
		if done || err != nil {
			return err
		}
	}
	err := s.mergeLocked(clean)
	if errors.Is(err, splice.ErrCloserNotFound) {
		logging.For("session").Warn("open block has no closer, starting a new one",
			"path", s.doc.Path(), "kind", kind)
		s.lastKind = ""
		return s.newBlockLocked(kind, clean)
	}
	return err
}

// newBlockLocked ends the open block and wraps the styled text in a fresh
// block of kind.
func (s *Session) newBlockLocked(kind document.Kind, clean string) error {
	if err := s.terminateOpenBlockLocked(); err != nil {
		return err
	}
	body := s.renderer.Render(classify.Collapse(clean))
	if err := s.doc.InsertBeforeMarker([]byte(document.TextBlock(kind, body))); err != nil {
		return err
	}
	s.lastKind = kind
	return nil
}

// mergeLocked styles the text and splices it in before the open block's
// closer.
func (s *Session) mergeLocked(clean string) error {
	pos, err := s.doc.LastIndexBeforeMarker([]byte(document.Closer))
	if err != nil {
		return err
	}
	if pos < 0 {
		return splice.ErrCloserNotFound
	}
	body := s.renderer.Render(classify.Collapse(clean))
	if body == "" {
		return nil
	}
	return s.doc.Replace(pos, pos, []byte(body))
}

// overwriteLocked replaces the open block's last line with what the first
// line of text leaves after its carriage returns, then appends the rest of
// text. It reports false when the overwrite shows nothing, in which case the
// caller merges instead.
func (s *Session) overwriteLocked(kind document.Kind, clean string) (bool, error) {
	first, rest, hasRest := strings.Cut(clean, "\n")
	idx := strings.IndexByte(first, '\r')
	replacement, ok := classify.OverwriteText(first[idx:])
	if !ok {
		return false, nil
	}

	lineStart, closerPos, removed, err := s.locateLastLineLocked(kind)
	if errors.Is(err, ErrUnparseableBlock) {
		logging.For("session").Warn("carriage return could not be applied, keeping raw output",
			"path", s.doc.Path(), "kind", kind, "err", err)
		return true, s.insertBlockLocked(document.RawFallback(classify.StripANSI(classify.Collapse(clean))))
	}
	if err != nil {
		return false, err
	}

	// The replacement continues in the style in effect at the end of the
	// removed line. When the removed markup changed spans, close the one open
	// at its start and reopen the current one.
	var sb strings.Builder
	opens := bytes.Count(removed, []byte("<span"))
	closes := bytes.Count(removed, []byte("</span>"))
	if opens+closes > 0 {
		openAtEnd := 0
		if s.renderer.IsOpen() {
			openAtEnd = 1
		}
		if openAtEnd-opens+closes > 0 {
			sb.WriteString("</span>")
		}
		sb.WriteString(s.renderer.OpenTag())
	}

	sb.WriteString(document.EscapeHTML(replacement))
	tail := classify.SGREscapes(first)
	if hasRest {
		tail += "\n" + classify.Collapse(rest)
	}
	sb.WriteString(s.renderer.Render(tail))

	if err := s.doc.Replace(lineStart, closerPos, []byte(sb.String())); err != nil {
		return false, err
	}
	return true, nil
}

// locateLastLineLocked finds the open block of kind and returns the offset
// where its last line starts, the offset of its closer, and the line's
// current markup.
func (s *Session) locateLastLineLocked(kind document.Kind) (lineStart, closerPos int64, removed []byte, err error) {
	closer := []byte(document.Closer)
	closerPos, err = s.doc.LastIndexBeforeMarker(closer)
	if err != nil {
		return 0, 0, nil, err
	}
	if closerPos < 0 {
		return 0, 0, nil, fmt.Errorf("%w: no closer", ErrUnparseableBlock)
	}
	openPos, err := s.doc.LastIndex([]byte(kind.OpenTag()), closerPos)
	if err != nil {
		return 0, 0, nil, err
	}
	if openPos < 0 {
		return 0, 0, nil, fmt.Errorf("%w: no %s block", ErrUnparseableBlock, kind)
	}
	region, err := s.doc.ReadRange(openPos, closerPos)
	if err != nil {
		return 0, 0, nil, err
	}
	pre := bytes.Index(region, []byte(document.PreOpen))
	if pre < 0 || bytes.Contains(region, closer) {
		return 0, 0, nil, fmt.Errorf("%w: malformed %s block", ErrUnparseableBlock, kind)
	}
	content := region[pre+len(document.PreOpen):]
	nl := bytes.LastIndexByte(content, '\n')
	offset := int64(pre+len(document.PreOpen)) + int64(nl+1)
	return openPos + offset, closerPos, content[nl+1:], nil
}
