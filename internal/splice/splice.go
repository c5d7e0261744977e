// Package splice keeps an on-disk document well formed while it grows.
//
// A document is header bytes, a body, one marker, and a footer tail. Every
// mutation rewrites only the region from the splice point to the end of the
// file: the new bytes, then whatever followed the splice point (which always
// includes the marker and the footer tail). The marker therefore stays
// present exactly once between mutations.
//
// Each rewrite holds an exclusive advisory lock on the file for the duration
// of write, truncate and sync, so cooperating processes never interleave
// bytes. A rewrite is not crash-atomic: a process killed mid-write can leave
// a truncated tail behind. Changing that would mean a different on-disk
// strategy (write-ahead plus rename) and is intentionally not done here.
package splice

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dkoosis/logtee/internal/logging"
)

const (
	// DefaultMarker is the marker used when none is configured.
	DefaultMarker = "<!-- LOGTEEHTML_FOOTER -->"

	// DefaultScanWindow bounds backward scans for closers and block openers.
	DefaultScanWindow = 512 * 1024

	// DefaultMarkerWindow bounds the tail read used to re-find the marker.
	DefaultMarkerWindow = 32 * 1024
)

var (
	// ErrMarkerMissing means the document is not in the expected state.
	// It is fatal: no further writes should be attempted.
	ErrMarkerMissing = errors.New("splice: marker not found in document")

	// ErrDuplicateMarker means the template or file holds the marker twice.
	ErrDuplicateMarker = errors.New("splice: marker occurs more than once")

	// ErrCloserNotFound is returned when no closing sequence precedes the marker.
	ErrCloserNotFound = errors.New("splice: closing sequence not found before marker")

	// ErrOutOfRange is returned for a replacement range that reaches past the marker.
	ErrOutOfRange = errors.New("splice: range outside document body")

	// ErrClosed is returned for operations on a closed document.
	ErrClosed = errors.New("splice: document closed")
)

// IOError wraps a failed file operation. It is fatal for the call that hit it.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("splice: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Locker serializes rewrites across processes sharing the file.
type Locker interface {
	Lock(f *os.File) error
	Unlock(f *os.File) error
}

// NopLocker does no locking. Callers using it must guarantee a single writer.
type NopLocker struct{}

func (NopLocker) Lock(*os.File) error   { return nil }
func (NopLocker) Unlock(*os.File) error { return nil }

// Option configures a Document.
type Option func(*Document)

// WithMarker overrides the marker byte sequence.
func WithMarker(marker []byte) Option {
	return func(d *Document) {
		if len(marker) > 0 {
			d.marker = append([]byte(nil), marker...)
		}
	}
}

// WithScanWindow sets how far back closer and block scans look before
// falling back to a whole-file scan.
func WithScanWindow(n int64) Option {
	return func(d *Document) {
		if n > 0 {
			d.scanWindow = n
		}
	}
}

// WithMarkerWindow sets the tail size read when the cached marker offset is stale.
func WithMarkerWindow(n int64) Option {
	return func(d *Document) {
		if n > 0 {
			d.markerWindow = n
		}
	}
}

// WithLocker replaces the platform advisory lock.
func WithLocker(l Locker) Option {
	return func(d *Document) {
		if l != nil {
			d.locker = l
		}
	}
}

// Document is an open, marker-anchored file.
// It is not safe for concurrent use; callers serialize access.
type Document struct {
	path         string
	f            *os.File
	marker       []byte
	scanWindow   int64
	markerWindow int64
	locker       Locker
	markerPos    int64 // -1 when unknown
}

func newDocument(path string, opts []Option) *Document {
	d := &Document{
		path:         path,
		marker:       []byte(DefaultMarker),
		scanWindow:   DefaultScanWindow,
		markerWindow: DefaultMarkerWindow,
		locker:       defaultLocker(),
		markerPos:    -1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Create writes template to path (creating parent directories) and opens it
// for in-place mutation. The template must contain the marker exactly once.
func Create(path string, template []byte, opts ...Option) (*Document, error) {
	d := newDocument(path, opts)
	if err := checkMarkerCount(template, d.marker); err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &IOError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	if err := os.WriteFile(path, template, 0o644); err != nil { // #nosec G306 - log output is meant to be shared
		return nil, &IOError{Op: "create", Path: path, Err: err}
	}
	return d.open()
}

// Open attaches to an existing document so more output can be appended.
func Open(path string, opts ...Option) (*Document, error) {
	return newDocument(path, opts).open()
}

func (d *Document) open() (*Document, error) {
	f, err := os.OpenFile(d.path, os.O_RDWR, 0)
	if err != nil {
		return nil, &IOError{Op: "open", Path: d.path, Err: err}
	}
	data, err := io.ReadAll(f)
	if err != nil {
		_ = f.Close()
		return nil, &IOError{Op: "read", Path: d.path, Err: err}
	}
	if err := checkMarkerCount(data, d.marker); err != nil {
		_ = f.Close()
		return nil, err
	}
	d.f = f
	d.markerPos = int64(bytes.Index(data, d.marker))
	return d, nil
}

func checkMarkerCount(data, marker []byte) error {
	switch n := bytes.Count(data, marker); {
	case n == 0:
		return ErrMarkerMissing
	case n > 1:
		return ErrDuplicateMarker
	}
	return nil
}

// Path returns the file path.
func (d *Document) Path() string {
	return d.path
}

// Marker returns the marker bytes.
func (d *Document) Marker() []byte {
	return d.marker
}

// Close releases the file handle. The bytes on disk are already complete.
func (d *Document) Close() error {
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	d.markerPos = -1
	if err != nil {
		return &IOError{Op: "close", Path: d.path, Err: err}
	}
	return nil
}

// Size returns the current file size.
func (d *Document) Size() (int64, error) {
	if d.f == nil {
		return 0, ErrClosed
	}
	info, err := d.f.Stat()
	if err != nil {
		return 0, &IOError{Op: "stat", Path: d.path, Err: err}
	}
	return info.Size(), nil
}

// InsertBeforeMarker splices b immediately before the marker.
func (d *Document) InsertBeforeMarker(b []byte) error {
	pos, err := d.MarkerOffset()
	if err != nil {
		return err
	}
	return d.Replace(pos, pos, b)
}

// InsertBeforeLastCloser splices b immediately before the last occurrence of
// closer that precedes the marker.
func (d *Document) InsertBeforeLastCloser(closer, b []byte) error {
	pos, err := d.LastIndexBeforeMarker(closer)
	if err != nil {
		return err
	}
	if pos < 0 {
		return ErrCloserNotFound
	}
	return d.Replace(pos, pos, b)
}

// LastIndexBeforeMarker returns the offset of the last pattern occurrence
// ending at or before the marker, or -1.
func (d *Document) LastIndexBeforeMarker(pattern []byte) (int64, error) {
	pos, err := d.MarkerOffset()
	if err != nil {
		return -1, err
	}
	return d.LastIndex(pattern, pos)
}

// LastIndex returns the offset of the last occurrence of pattern lying
// entirely before offset before, or -1. The trailing scan window is searched
// first; the rest of the file only when the window misses.
func (d *Document) LastIndex(pattern []byte, before int64) (int64, error) {
	return d.lastIndex(pattern, before, d.scanWindow)
}

func (d *Document) lastIndex(pattern []byte, before, window int64) (int64, error) {
	plen := int64(len(pattern))
	if plen == 0 || before < plen {
		return -1, nil
	}
	start := before - window
	if start < 0 {
		start = 0
	}
	buf, err := d.ReadRange(start, before)
	if err != nil {
		return -1, err
	}
	if idx := bytes.LastIndex(buf, pattern); idx >= 0 {
		return start + int64(idx), nil
	}
	if start == 0 {
		return -1, nil
	}

	// An occurrence may straddle the window start, so the fallback range
	// overlaps the window by len(pattern)-1 bytes.
	end := start + plen - 1
	if end > before {
		end = before
	}
	logging.For("splice").Debug("scan window missed, scanning whole file",
		"path", d.path, "window", window, "before", before)
	buf, err = d.ReadRange(0, end)
	if err != nil {
		return -1, err
	}
	if idx := bytes.LastIndex(buf, pattern); idx >= 0 {
		return int64(idx), nil
	}
	return -1, nil
}

// ReadRange returns the bytes in [start, end).
func (d *Document) ReadRange(start, end int64) ([]byte, error) {
	if d.f == nil {
		return nil, ErrClosed
	}
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrOutOfRange, start, end)
	}
	buf := make([]byte, end-start)
	n, err := d.f.ReadAt(buf, start)
	if err != nil && !(errors.Is(err, io.EOF) && n == len(buf)) {
		return nil, &IOError{Op: "read", Path: d.path, Err: err}
	}
	return buf, nil
}

// Replace substitutes b for the bytes in [start, end). The range must end at
// or before the marker, so the marker and footer tail always survive.
func (d *Document) Replace(start, end int64, b []byte) error {
	marker, err := d.MarkerOffset()
	if err != nil {
		return err
	}
	if start < 0 || start > end || end > marker {
		return fmt.Errorf("%w: [%d, %d) with marker at %d", ErrOutOfRange, start, end, marker)
	}
	size, err := d.Size()
	if err != nil {
		return err
	}
	tail, err := d.ReadRange(end, size)
	if err != nil {
		return err
	}

	out := make([]byte, 0, len(b)+len(tail))
	out = append(out, b...)
	out = append(out, tail...)
	if err := d.rewriteAt(start, out); err != nil {
		d.markerPos = -1
		return err
	}
	d.markerPos = marker + int64(len(b)) - (end - start)
	return nil
}

// rewriteAt overwrites the file from pos with b and truncates what remains,
// holding the advisory lock throughout.
func (d *Document) rewriteAt(pos int64, b []byte) (err error) {
	if err := d.locker.Lock(d.f); err != nil {
		return &IOError{Op: "lock", Path: d.path, Err: err}
	}
	defer func() {
		if uerr := d.locker.Unlock(d.f); uerr != nil && err == nil {
			err = &IOError{Op: "unlock", Path: d.path, Err: uerr}
		}
	}()

	if _, err := d.f.WriteAt(b, pos); err != nil {
		return &IOError{Op: "write", Path: d.path, Err: err}
	}
	if err := d.f.Truncate(pos + int64(len(b))); err != nil {
		return &IOError{Op: "truncate", Path: d.path, Err: err}
	}
	if err := d.f.Sync(); err != nil {
		return &IOError{Op: "sync", Path: d.path, Err: err}
	}
	return nil
}
