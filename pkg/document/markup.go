// Package document renders the markup that makes up a live log document:
// text blocks, section and anchor headers, injected fragments, and the
// template that frames them.
//
// The byte formats here are an interop contract with existing documents.
// The splice engine finds blocks by searching for OpenTag and Closer, so
// neither may change.
package document

import (
	"html"
	"strings"
	"time"

	"github.com/dkoosis/logtee/pkg/sgr"
)

const (
	// Marker anchors every rewrite. It must occur exactly once in a document.
	Marker = "<!-- LOGTEEHTML_FOOTER -->"

	// Closer ends every mergeable text block.
	Closer = "</pre></div>\n"

	// PreOpen starts a text block's content.
	PreOpen = "<pre>"

	// TimestampLayout formats anchor timestamps (ISO 8601).
	TimestampLayout = time.RFC3339
)

// TextBlock wraps already-escaped content in a block of the given kind.
func TextBlock(kind Kind, content string) string {
	return kind.OpenTag() + ">" + PreOpen + content + Closer
}

// SectionHeader renders a top-level section heading.
func SectionHeader(id, text string) string {
	return `<h1 id="` + EscapeAttr(id) + `">` + EscapeHTML(text) + "</h1>\n"
}

// AnchorHeader renders an anchor heading tagged with its section and time.
func AnchorHeader(id, section string, at time.Time, text string) string {
	ts := at.Format(TimestampLayout)
	var sb strings.Builder
	sb.WriteString(`<h2 id="`)
	sb.WriteString(EscapeAttr(id))
	sb.WriteString(`" data-section="`)
	sb.WriteString(EscapeAttr(section))
	sb.WriteString(`" data-timestamp="`)
	sb.WriteString(ts)
	sb.WriteString(`" title="`)
	sb.WriteString(ts)
	sb.WriteString(`">`)
	sb.WriteString(EscapeHTML(text))
	sb.WriteString("</h2>\n")
	return sb.String()
}

// embeddedMarker stands in for a Marker found inside injected markup.
const embeddedMarker = "<!-- LOGTEEHTML_FOOTER (embedded) -->"

// Fragment wraps raw markup injected by the caller. The markup is trusted,
// except that copies of Marker are rewritten so the document keeps exactly
// one.
func Fragment(rawHTML string) string {
	rawHTML = strings.ReplaceAll(rawHTML, Marker, embeddedMarker)
	return `<div class="html-injection">` + rawHTML + "</div>\n"
}

// RawFallback renders text that could not be merged into its block as a
// collapsible raw region, so nothing is lost.
func RawFallback(text string) string {
	return "<details><summary>ANSI cursor</summary><pre>" + EscapeHTML(text) + "</pre></details>\n"
}

// EscapeHTML escapes &, < and > for element content.
func EscapeHTML(s string) string {
	return sgr.EscapeHTML(s)
}

// EscapeAttr escapes a value for use inside a double-quoted attribute.
func EscapeAttr(s string) string {
	return html.EscapeString(s)
}
