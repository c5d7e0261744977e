package document

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PlaceholderID replaces identifiers that slugify to nothing.
const PlaceholderID = "anchor"

var (
	nonSlug  = regexp.MustCompile(`[^a-z0-9_-]+`)
	dashRuns = regexp.MustCompile(`-+`)
)

// Slugify derives an element id: lowercase, runs of anything outside
// [a-z0-9_-] become "-", dashes collapse and are trimmed from both ends.
func Slugify(s string) string {
	// A Caser is stateful, so each call gets its own.
	s = cases.Lower(language.Und).String(s)
	s = nonSlug.ReplaceAllString(s, "-")
	s = dashRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return PlaceholderID
	}
	return s
}
