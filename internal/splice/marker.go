package splice

import (
	"bytes"

	"github.com/dkoosis/logtee/internal/logging"
)

// MarkerOffset returns the marker's byte offset.
//
// Every mutation moves the marker, and another process may have mutated the
// file since, so the cached offset is trusted only if the bytes there still
// spell the marker. Otherwise the tail window is re-scanned, then the whole
// file. ErrMarkerMissing means the document was corrupted externally.
func (d *Document) MarkerOffset() (int64, error) {
	if d.f == nil {
		return -1, ErrClosed
	}
	if d.markerPos >= 0 {
		probe := make([]byte, len(d.marker))
		n, err := d.f.ReadAt(probe, d.markerPos)
		if n == len(probe) && bytes.Equal(probe, d.marker) {
			return d.markerPos, nil
		}
		logging.For("splice").Debug("cached marker offset is stale",
			"path", d.path, "offset", d.markerPos, "err", err)
	}

	size, err := d.Size()
	if err != nil {
		return -1, err
	}
	pos, err := d.lastIndex(d.marker, size, d.markerWindow)
	if err != nil {
		return -1, err
	}
	if pos < 0 {
		d.markerPos = -1
		return -1, ErrMarkerMissing
	}
	d.markerPos = pos
	return pos, nil
}
