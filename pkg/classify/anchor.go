package classify

import (
	"regexp"
	"unicode/utf8"
)

// MaxAnchorLine bounds the lines inspected for auto-anchors.
const MaxAnchorLine = 160

var (
	// ╭──── Title ────╮ and friends, including ASCII +--- Title ---+.
	panelTop = regexp.MustCompile(`^\s*[╭┌╔┏+][─━═-]+\s*(.*?)\s*[─━═-]+[╮┐╗┓+]\s*$`)
	// ### Title, #### Title ####
	deepHeading = regexp.MustCompile(`^\s*#{3,}\s+(.+?)(?:\s+#+)?\s*$`)
	hasWord     = regexp.MustCompile(`[\p{L}\p{N}]`)
	boxChars    = regexp.MustCompile(`[│┃║─━═╭╮╯╰┌┐└┘╔╗╚╝┏┓┗┛]`)
	// Column joints of a table border: "Name ---+--- Age".
	tableJoint = regexp.MustCompile(`-{2,}\s*\+|\+\s*-{2,}`)
)

// DetectAnchor reports whether a complete output line looks like a framed
// panel title or a level-3+ heading, and returns its title. Lines that are
// long, untitled or otherwise ambiguous are not anchors.
func DetectAnchor(line string) (string, bool) {
	plain := StripANSI(line)
	if utf8.RuneCountInString(plain) > MaxAnchorLine {
		return "", false
	}
	if m := panelTop.FindStringSubmatch(plain); m != nil {
		if tableJoint.MatchString(m[1]) {
			return "", false
		}
		return acceptTitle(m[1])
	}
	if m := deepHeading.FindStringSubmatch(plain); m != nil {
		return acceptTitle(m[1])
	}
	return "", false
}

func acceptTitle(title string) (string, bool) {
	if title == "" || !hasWord.MatchString(title) || boxChars.MatchString(title) {
		return "", false
	}
	return title, true
}
