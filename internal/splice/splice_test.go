package splice

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testHeader = "<html><body>\n"
	testFooter = "\n</body></html>\n"
	testCloser = "</pre></div>\n"
)

func testTemplate() []byte {
	return []byte(testHeader + DefaultMarker + testFooter)
}

func newTestDocument(t *testing.T, opts ...Option) *Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "log.html")
	d, err := Create(path, testTemplate(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func readFile(t *testing.T, d *Document) string {
	t.Helper()
	data, err := os.ReadFile(d.Path())
	require.NoError(t, err)
	return string(data)
}

// assertWellFormed checks the marker occurs once, right before the footer.
func assertWellFormed(t *testing.T, content string) {
	t.Helper()
	assert.Equal(t, 1, strings.Count(content, DefaultMarker), "marker count")
	assert.True(t, strings.HasPrefix(content, testHeader), "header intact")
	assert.True(t, strings.HasSuffix(content, DefaultMarker+testFooter), "marker followed by footer")
}

// countingLocker records lock traffic.
type countingLocker struct {
	locks, unlocks int
	held           bool
}

func (c *countingLocker) Lock(*os.File) error {
	c.locks++
	c.held = true
	return nil
}

func (c *countingLocker) Unlock(*os.File) error {
	c.unlocks++
	c.held = false
	return nil
}

func TestCreate_WritesTemplate_When_MarkerPresent(t *testing.T) {
	t.Parallel()

	d := newTestDocument(t)

	content := readFile(t, d)
	assert.Equal(t, string(testTemplate()), content)
	pos, err := d.MarkerOffset()
	require.NoError(t, err)
	assert.Equal(t, int64(len(testHeader)), pos)
}

func TestCreate_Fails_When_TemplateLacksMarker(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log.html")
	_, err := Create(path, []byte("<html></html>"))
	require.ErrorIs(t, err, ErrMarkerMissing)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "nothing written for an invalid template")
}

func TestCreate_Fails_When_TemplateHasTwoMarkers(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log.html")
	_, err := Create(path, []byte(DefaultMarker+DefaultMarker))
	require.ErrorIs(t, err, ErrDuplicateMarker)
}

func TestInsertBeforeMarker_AppendsInOrder(t *testing.T) {
	t.Parallel()

	d := newTestDocument(t)
	require.NoError(t, d.InsertBeforeMarker([]byte("<p>one</p>\n")))
	require.NoError(t, d.InsertBeforeMarker([]byte("<p>two</p>\n")))

	content := readFile(t, d)
	assertWellFormed(t, content)
	assert.Equal(t, testHeader+"<p>one</p>\n<p>two</p>\n"+DefaultMarker+testFooter, content)
}

func TestInsertBeforeMarker_UpdatesCachedOffset(t *testing.T) {
	t.Parallel()

	d := newTestDocument(t)
	before, err := d.MarkerOffset()
	require.NoError(t, err)

	require.NoError(t, d.InsertBeforeMarker([]byte("12345")))

	assert.Equal(t, before+5, d.markerPos)
	after, err := d.MarkerOffset()
	require.NoError(t, err)
	assert.Equal(t, before+5, after)
}

func TestInsertBeforeLastCloser_ExtendsOpenBlock(t *testing.T) {
	t.Parallel()

	d := newTestDocument(t)
	require.NoError(t, d.InsertBeforeMarker([]byte(`<div class="stdout"><pre>a`+testCloser)))
	require.NoError(t, d.InsertBeforeLastCloser([]byte(testCloser), []byte("b")))

	content := readFile(t, d)
	assertWellFormed(t, content)
	assert.Contains(t, content, `<div class="stdout"><pre>ab`+testCloser+DefaultMarker)
}

func TestInsertBeforeLastCloser_Fails_When_NoCloser(t *testing.T) {
	t.Parallel()

	d := newTestDocument(t)
	err := d.InsertBeforeLastCloser([]byte(testCloser), []byte("b"))
	require.ErrorIs(t, err, ErrCloserNotFound)
	assert.Equal(t, string(testTemplate()), readFile(t, d))
}

func TestLastIndex_FallsBackToWholeFile_When_OutsideWindow(t *testing.T) {
	t.Parallel()

	d := newTestDocument(t, WithScanWindow(16))
	require.NoError(t, d.InsertBeforeMarker([]byte(`<div class="stdout"><pre>x`+testCloser)))
	require.NoError(t, d.InsertBeforeMarker([]byte(strings.Repeat("y", 200))))

	pos, err := d.LastIndexBeforeMarker([]byte(`<div class="stdout"`))
	require.NoError(t, err)
	assert.Equal(t, int64(len(testHeader)), pos)
}

func TestLastIndex_FindsPattern_When_StraddlingWindowStart(t *testing.T) {
	t.Parallel()

	d := newTestDocument(t, WithScanWindow(4))
	require.NoError(t, d.InsertBeforeMarker([]byte("NEEDLE--")))

	marker, err := d.MarkerOffset()
	require.NoError(t, err)
	pos, err := d.LastIndex([]byte("NEEDLE"), marker)
	require.NoError(t, err)
	assert.Equal(t, int64(len(testHeader)), pos)
}

func TestLastIndex_ReturnsMinusOne_When_Absent(t *testing.T) {
	t.Parallel()

	d := newTestDocument(t)
	pos, err := d.LastIndexBeforeMarker([]byte("nope"))
	require.NoError(t, err)
	assert.Equal(t, int64(-1), pos)
}

func TestMarkerOffset_Rescans_When_FileChangedExternally(t *testing.T) {
	t.Parallel()

	d := newTestDocument(t)
	_, err := d.MarkerOffset()
	require.NoError(t, err)

	// Another writer inserts bytes ahead of the marker.
	shifted := testHeader + "<p>foreign</p>\n" + DefaultMarker + testFooter
	require.NoError(t, os.WriteFile(d.Path(), []byte(shifted), 0o644))

	pos, err := d.MarkerOffset()
	require.NoError(t, err)
	assert.Equal(t, int64(strings.Index(shifted, DefaultMarker)), pos)

	require.NoError(t, d.InsertBeforeMarker([]byte("<p>mine</p>\n")))
	content := readFile(t, d)
	assertWellFormed(t, content)
	assert.Contains(t, content, "<p>foreign</p>\n<p>mine</p>\n"+DefaultMarker)
}

func TestMarkerOffset_Fails_When_MarkerRemoved(t *testing.T) {
	t.Parallel()

	d := newTestDocument(t)
	require.NoError(t, os.WriteFile(d.Path(), []byte("<html>corrupt</html>"), 0o644))

	_, err := d.MarkerOffset()
	require.ErrorIs(t, err, ErrMarkerMissing)
	require.ErrorIs(t, d.InsertBeforeMarker([]byte("x")), ErrMarkerMissing)
}

func TestMarkerOffset_FindsMarker_When_BeyondMarkerWindow(t *testing.T) {
	t.Parallel()

	d := newTestDocument(t, WithMarkerWindow(8))
	bigFooterDoc := testHeader + DefaultMarker + strings.Repeat("f", 64)
	require.NoError(t, os.WriteFile(d.Path(), []byte(bigFooterDoc), 0o644))
	d.markerPos = -1

	pos, err := d.MarkerOffset()
	require.NoError(t, err)
	assert.Equal(t, int64(len(testHeader)), pos)
}

func TestReplace_SubstitutesRange(t *testing.T) {
	t.Parallel()

	d := newTestDocument(t)
	require.NoError(t, d.InsertBeforeMarker([]byte("line1\nline2"+testCloser)))
	start := int64(len(testHeader + "line1\n"))
	end := start + int64(len("line2"))

	require.NoError(t, d.Replace(start, end, []byte("LINE-TWO")))

	content := readFile(t, d)
	assertWellFormed(t, content)
	assert.Equal(t, testHeader+"line1\nLINE-TWO"+testCloser+DefaultMarker+testFooter, content)
}

func TestReplace_ShrinksFile_When_ReplacementShorter(t *testing.T) {
	t.Parallel()

	d := newTestDocument(t)
	require.NoError(t, d.InsertBeforeMarker([]byte(strings.Repeat("z", 100))))
	start := int64(len(testHeader))

	require.NoError(t, d.Replace(start, start+100, []byte("z")))

	content := readFile(t, d)
	assertWellFormed(t, content)
	assert.Equal(t, testHeader+"z"+DefaultMarker+testFooter, content)
}

func TestReplace_Fails_When_RangeCrossesMarker(t *testing.T) {
	t.Parallel()

	d := newTestDocument(t)
	marker, err := d.MarkerOffset()
	require.NoError(t, err)

	err = d.Replace(marker, marker+4, []byte("x"))
	require.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, string(testTemplate()), readFile(t, d))
}

func TestRewrite_HoldsLockPerMutation(t *testing.T) {
	t.Parallel()

	locker := &countingLocker{}
	d := newTestDocument(t, WithLocker(locker))

	require.NoError(t, d.InsertBeforeMarker([]byte("a")))
	require.NoError(t, d.InsertBeforeMarker([]byte("b")))

	assert.Equal(t, 2, locker.locks)
	assert.Equal(t, 2, locker.unlocks)
	assert.False(t, locker.held)
}

func TestWithMarker_UsesCustomMarker(t *testing.T) {
	t.Parallel()

	marker := []byte("<!-- END -->")
	path := filepath.Join(t.TempDir(), "log.html")
	d, err := Create(path, []byte("<body>"+string(marker)+"</body>"), WithMarker(marker))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	require.NoError(t, d.InsertBeforeMarker([]byte("hi")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<body>hi<!-- END --></body>", string(data))
}

func TestOpen_ResumesExistingDocument(t *testing.T) {
	t.Parallel()

	d := newTestDocument(t)
	require.NoError(t, d.InsertBeforeMarker([]byte("first\n")))
	require.NoError(t, d.Close())

	reopened, err := Open(d.Path())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	require.NoError(t, reopened.InsertBeforeMarker([]byte("second\n")))

	data, err := os.ReadFile(d.Path())
	require.NoError(t, err)
	assert.True(t, bytes.Contains(data, []byte("first\nsecond\n"+DefaultMarker)))
}

func TestClose_IsIdempotent(t *testing.T) {
	t.Parallel()

	d := newTestDocument(t)
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	_, err := d.MarkerOffset()
	require.ErrorIs(t, err, ErrClosed)
}

func TestIOError_UnwrapsCause(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "missing.html"))
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "open", ioErr.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
