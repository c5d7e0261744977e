// Package logging holds the diagnostic logger shared by the writer packages.
//
// Diagnostics go to the real stderr, never into the document being written.
// Set LOGTEE_DEBUG to any non-empty value to see marker re-scans, merge
// decisions and fallbacks.
package logging

import (
	"io"
	"os"

	clog "github.com/charmbracelet/log"
)

// DebugEnv is the environment variable that switches debug output on.
const DebugEnv = "LOGTEE_DEBUG"

// Logger is the shared diagnostic logger.
var Logger = newLogger(os.Stderr)

func newLogger(w io.Writer) *clog.Logger {
	l := clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		Prefix:          "logtee",
	})
	if os.Getenv(DebugEnv) != "" {
		l.SetLevel(clog.DebugLevel)
	} else {
		l.SetLevel(clog.WarnLevel)
	}
	return l
}

// For returns a child logger tagged with the component name.
func For(component string) *clog.Logger {
	return Logger.WithPrefix("logtee/" + component)
}

// SetDebug raises or lowers the shared logger's level.
func SetDebug(on bool) {
	if on {
		Logger.SetLevel(clog.DebugLevel)
		return
	}
	Logger.SetLevel(clog.WarnLevel)
}

// SetOutput redirects diagnostics, mainly for tests. Nil restores stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	Logger.SetOutput(w)
}
