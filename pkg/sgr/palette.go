package sgr

// palette is the fixed 16-colour table: indices 0-7 are the base colours
// (SGR 30-37 / 40-47), 8-15 the bright ones (SGR 90-97 / 100-107).
var palette = [16]string{
	"#000000", // black
	"#aa0000", // red
	"#00aa00", // green
	"#aa5500", // yellow
	"#0000aa", // blue
	"#aa00aa", // magenta
	"#00aaaa", // cyan
	"#aaaaaa", // white
	"#555555", // bright black
	"#ff5555", // bright red
	"#55ff55", // bright green
	"#ffff55", // bright yellow
	"#5555ff", // bright blue
	"#ff55ff", // bright magenta
	"#55ffff", // bright cyan
	"#ffffff", // bright white
}

// Color returns the palette entry for index i (0-15), or "" when out of range.
func Color(i int) string {
	if i < 0 || i >= len(palette) {
		return ""
	}
	return palette[i]
}

// foreground maps an SGR code to a foreground colour.
func foreground(code int) (string, bool) {
	switch {
	case code >= 30 && code <= 37:
		return palette[code-30], true
	case code >= 90 && code <= 97:
		return palette[code-90+8], true
	}
	return "", false
}

// background maps an SGR code to a background colour.
func background(code int) (string, bool) {
	switch {
	case code >= 40 && code <= 47:
		return palette[code-40], true
	case code >= 100 && code <= 107:
		return palette[code-100+8], true
	}
	return "", false
}
