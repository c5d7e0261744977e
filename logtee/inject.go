package logtee

import (
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/dkoosis/logtee/internal/logging"
	"github.com/dkoosis/logtee/pkg/document"
)

// tablePreviewRows bounds the rows echoed for an injected table.
const tablePreviewRows = 10

// StartSection writes a top-level heading. Anchors written after it are
// tagged with its id.
func (s *Session) StartSection(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	id := document.Slugify(name)
	if err := s.insertBlockLocked(document.SectionHeader(id, name)); err != nil {
		return s.failLocked(err)
	}
	s.section = id
	return nil
}

// Anchor writes a linkable heading and returns its id. Without an explicit
// id one is derived from text with a random suffix. The link is echoed to
// the terminal.
func (s *Session) Anchor(text string, id ...string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return "", err
	}
	explicit := ""
	if len(id) > 0 {
		explicit = id[0]
	}
	got, err := s.anchorLocked(text, explicit)
	return got, s.failLocked(err)
}

func (s *Session) anchorLocked(text, id string) (string, error) {
	if id == "" {
		id = document.Slugify(text) + "-" + shortID()
	}
	section := s.section
	if section == "" {
		section = id
	}
	if err := s.insertBlockLocked(document.AnchorHeader(id, section, s.now(), text)); err != nil {
		return "", err
	}
	s.echoLinkLocked(text, id)
	return id, nil
}

// shortID returns six random hex characters.
func shortID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:3])
}

// InjectFragment writes trusted markup as its own block, preceded by an
// anchor when anchorText is set.
func (s *Session) InjectFragment(html, anchorText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	return s.failLocked(s.injectLocked(html, anchorText, ""))
}

func (s *Session) injectLocked(html, anchorText, id string) error {
	if err := s.terminateOpenBlockLocked(); err != nil {
		return err
	}
	if anchorText != "" {
		if _, err := s.anchorLocked(anchorText, id); err != nil {
			return err
		}
	}
	return s.insertBlockLocked(document.Fragment(html))
}

// InjectTable writes t as an HTML table. With preview set the first rows
// are echoed to the terminal as well.
func (s *Session) InjectTable(t *document.Table, anchorText string, preview bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	if err := s.failLocked(s.injectLocked(t.HTML(), anchorText, "")); err != nil {
		return err
	}
	if preview && s.echo != nil {
		_, _ = io.WriteString(s.echo, s.terminal.TablePreview(t, tablePreviewRows))
	}
	return nil
}

// InjectJSON writes v as indented JSON, optionally with line numbers.
func (s *Session) InjectJSON(v any, anchorText string, lineNumbers bool) error {
	markup, err := document.JSON(v, lineNumbers)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	return s.failLocked(s.injectLocked(markup, anchorText, ""))
}

// InjectImage embeds img as a PNG. id, when set, is the anchor id used for
// anchorText.
func (s *Session) InjectImage(img image.Image, anchorText, id string) error {
	markup, err := document.Image(img, anchorText)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	return s.failLocked(s.injectLocked(markup, anchorText, id))
}

// Recover records an in-flight panic in the document as stderr output, then
// panics again with the same value. Defer it directly:
//
//	defer session.Recover()
//
// Recording is best effort and never raises errors of its own.
func (s *Session) Recover() {
	r := recover()
	if r == nil {
		return
	}
	s.recordPanic(r, debug.Stack())
	panic(r)
}

func (s *Session) recordPanic(r any, stack []byte) {
	defer func() {
		if again := recover(); again != nil {
			logging.For("session").Debug("recording panic failed", "panic", again)
		}
	}()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usableLocked() != nil {
		return
	}
	if err := s.terminateOpenBlockLocked(); err != nil {
		logging.For("session").Debug("recording panic failed", "err", err)
		return
	}
	s.sticky.Reset()
	if err := s.printLocked(fmt.Sprintf("panic: %v\n\n%s", r, stack), Stderr); err != nil {
		logging.For("session").Debug("recording panic failed", "err", err)
		return
	}
	if err := s.terminateOpenBlockLocked(); err != nil {
		logging.For("session").Debug("recording panic failed", "err", err)
	}
}
