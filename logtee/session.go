// Package logtee writes a program's terminal output into a live HTML
// document that is complete and valid after every write.
//
// A Session owns one document. Output arrives through Print (or a Tee
// wrapping a stream) in arbitrarily small chunks; consecutive output of the
// same kind extends one block, style carries across chunks, carriage
// returns overwrite the current line, and cursor-control redraws collapse
// into their own block. Sections, anchors and injected fragments always
// start fresh blocks.
package logtee

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dkoosis/logtee/internal/logging"
	"github.com/dkoosis/logtee/internal/splice"
	"github.com/dkoosis/logtee/pkg/classify"
	"github.com/dkoosis/logtee/pkg/document"
	"github.com/dkoosis/logtee/pkg/render"
	"github.com/dkoosis/logtee/pkg/sgr"
)

// Stream is the kind of output a chunk belongs to.
type Stream = document.Kind

// Streams accepted by Print.
const (
	Stdout        = document.Stdout
	Stderr        = document.Stderr
	CursorControl = document.CursorControl
)

var (
	// ErrMarkerMissing means the document was corrupted externally. It is
	// fatal for the session.
	ErrMarkerMissing = splice.ErrMarkerMissing

	// ErrUnparseableBlock means the open block could not be located for a
	// carriage-return overwrite. The output is kept in a raw fallback block.
	ErrUnparseableBlock = errors.New("logtee: open block could not be parsed")

	// ErrSessionFailed is returned by every call after a fatal error.
	ErrSessionFailed = errors.New("logtee: session failed")

	// ErrClosed is returned by calls on a closed session.
	ErrClosed = errors.New("logtee: session closed")

	// ErrInvalidStream is returned for a stream that is not a block kind.
	ErrInvalidStream = errors.New("logtee: stream must be stdout, stderr or cursor-control")
)

// Options adjust a session. The zero value uses DefaultConfig.
type Options struct {
	// Config supplies defaults. Nil means DefaultConfig(); use LoadConfig
	// to honour .logtee.yaml.
	Config *Config

	// Title is the document title. Create defaults it to the name.
	Title string

	// Terminal receives anchor link echoes. Nil means os.Stdout.
	Terminal io.Writer

	// NoAutoAnchors turns off anchors derived from panel titles and
	// headings in the output.
	NoAutoAnchors bool

	// Locker replaces the platform advisory file lock.
	Locker splice.Locker

	// Clock stamps anchors. Nil means time.Now.
	Clock func() time.Time

	// Debug raises diagnostic logging to debug level.
	Debug bool
}

// Session is one open document. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	doc      *splice.Document
	renderer sgr.Renderer
	sticky   classify.Sticky

	lastKind    document.Kind // "" when no mergeable block is open
	section     string
	atLineStart bool
	pendingCR   bool // the open block's last line ended in a carriage return

	err    error // latched fatal error
	closed bool

	url         string
	now         func() time.Time
	echo        io.Writer
	echoLinks   bool
	terminal    *render.Terminal
	autoAnchors bool
}

// Create starts a new document named after name in the configured
// directory: {dir}/{slug}{suffix}.html, where suffix is the configured time
// layout applied to the current time.
func Create(name string, opts Options) (*Session, error) {
	cfg := opts.config()
	if opts.Title == "" {
		opts.Title = name
	}
	file := document.Slugify(name)
	if cfg.Suffix != "" {
		file += opts.clock()().Format(cfg.Suffix)
	}
	return New(filepath.Join(cfg.Dir, file+".html"), opts)
}

// New starts a new document at path, overwriting any file there.
func New(path string, opts Options) (*Session, error) {
	cfg := opts.config()
	if opts.Title == "" {
		opts.Title = filepath.Base(path)
	}
	tmpl, err := document.LoadTemplate(cfg.Template, opts.Title)
	if err != nil {
		return nil, err
	}
	doc, err := splice.Create(path, tmpl, spliceOptions(cfg, opts)...)
	if err != nil {
		return nil, fmt.Errorf("creating document %s: %w", path, err)
	}
	return newSession(doc, cfg, opts), nil
}

// Open resumes writing to an existing document. Output starts a new block.
func Open(path string, opts Options) (*Session, error) {
	cfg := opts.config()
	doc, err := splice.Open(path, spliceOptions(cfg, opts)...)
	if err != nil {
		return nil, fmt.Errorf("opening document %s: %w", path, err)
	}
	return newSession(doc, cfg, opts), nil
}

func newSession(doc *splice.Document, cfg *Config, opts Options) *Session {
	if opts.Debug {
		logging.SetDebug(true)
	}
	echo := opts.Terminal
	if echo == nil {
		echo = os.Stdout
	}
	s := &Session{
		doc:         doc,
		atLineStart: true,
		now:         opts.clock(),
		echo:        echo,
		echoLinks:   cfg.EchoLinks,
		terminal:    render.ForWriter(echo, cfg.Theme),
		autoAnchors: !opts.NoAutoAnchors,
	}
	s.url = documentURL(doc.Path(), cfg.LinkPrefix)
	logging.For("session").Debug("document opened", "path", doc.Path())
	return s
}

func (o Options) config() *Config {
	if o.Config != nil {
		return o.Config
	}
	return DefaultConfig()
}

func (o Options) clock() func() time.Time {
	if o.Clock != nil {
		return o.Clock
	}
	return time.Now
}

func spliceOptions(cfg *Config, opts Options) []splice.Option {
	return []splice.Option{
		splice.WithMarker([]byte(document.Marker)),
		splice.WithScanWindow(cfg.ScanWindow),
		splice.WithMarkerWindow(cfg.MarkerWindow),
		splice.WithLocker(opts.Locker),
	}
}

// documentURL is the link target for the document: file:// plus the
// absolute path, or prefix plus the file name when a prefix is configured.
func documentURL(path, prefix string) string {
	if prefix != "" {
		return prefix + filepath.Base(path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return "file://" + filepath.ToSlash(path)
}

// Path returns the document's file path.
func (s *Session) Path() string {
	return s.doc.Path()
}

// URL returns the document's link target without a fragment.
func (s *Session) URL() string {
	return s.url
}

// Err returns the latched fatal error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// usableLocked refuses mutation after Close or a fatal error.
func (s *Session) usableLocked() error {
	if s.closed {
		return ErrClosed
	}
	if s.err != nil {
		return fmt.Errorf("%w: %w", ErrSessionFailed, s.err)
	}
	return nil
}

// failLocked latches marker and I/O errors; later calls return
// ErrSessionFailed.
func (s *Session) failLocked(err error) error {
	if err == nil {
		return nil
	}
	var ioErr *splice.IOError
	if errors.Is(err, splice.ErrMarkerMissing) || errors.As(err, &ioErr) {
		s.err = err
		logging.For("session").Error("document write failed, session stopped",
			"path", s.doc.Path(), "err", err)
	}
	return err
}

// EndOpenBlock closes any open style span and ends the open block, so the
// next output starts a new one. Calling it again has no effect.
func (s *Session) EndOpenBlock() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	return s.failLocked(s.terminateOpenBlockLocked())
}

// Close ends the open block and releases the file. The document on disk is
// already complete. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	var endErr error
	if s.err == nil {
		endErr = s.terminateOpenBlockLocked()
	}
	s.closed = true
	closeErr := s.doc.Close()
	logging.For("session").Debug("document closed", "path", s.doc.Path())
	return errors.Join(endErr, closeErr)
}

// terminateOpenBlockLocked closes the open span inside the open block and
// forgets the block. Style state is cleared either way.
func (s *Session) terminateOpenBlockLocked() error {
	closing := s.renderer.Close()
	s.pendingCR = false
	if s.lastKind == "" {
		return nil
	}
	s.lastKind = ""
	if closing == "" {
		return nil
	}
	err := s.doc.InsertBeforeLastCloser([]byte(document.Closer), []byte(closing))
	if errors.Is(err, splice.ErrCloserNotFound) {
		logging.For("session").Warn("open block has no closer, span left open", "path", s.doc.Path())
		return nil
	}
	return err
}

// insertBlockLocked ends the open block, then appends markup before the
// marker.
func (s *Session) insertBlockLocked(markup string) error {
	if err := s.terminateOpenBlockLocked(); err != nil {
		return err
	}
	if err := s.doc.InsertBeforeMarker([]byte(markup)); err != nil {
		return err
	}
	s.atLineStart = true
	return nil
}

// echoLinkLocked tells the terminal where an anchor landed. Write failures
// are ignored.
func (s *Session) echoLinkLocked(text, id string) {
	if !s.echoLinks || s.echo == nil {
		return
	}
	_, _ = io.WriteString(s.echo, s.terminal.Link(text, s.url+"#"+id)+"\n")
}
