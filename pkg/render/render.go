// Package render formats what a session echoes to the terminal while it
// writes a document: jump links to anchors and previews of injected tables.
package render

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// LinkIcon opens every anchor link echoed to the terminal.
const LinkIcon = "🔗"

// IsLinkEcho reports whether line is an anchor link echo. Output captured
// back from the terminal drops these so the document does not link to itself.
func IsLinkEcho(line string) bool {
	plain := strings.TrimSpace(ansi.Strip(line))
	return strings.HasPrefix(plain, "["+LinkIcon) && strings.Contains(plain, "](")
}
