package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Not parallel: the logger is shared.
func TestFor_TagsComponent_When_DebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetDebug(true)
	t.Cleanup(func() {
		SetDebug(false)
		SetOutput(nil)
	})

	For("splice").Debug("rescan", "offset", 42)

	assert.Contains(t, buf.String(), "logtee/splice")
	assert.Contains(t, buf.String(), "rescan")
	assert.Contains(t, buf.String(), "offset=42")
}

func TestSetDebug_HidesDebug_When_Off(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetDebug(false)
	t.Cleanup(func() { SetOutput(nil) })

	For("session").Debug("hidden")
	For("session").Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
