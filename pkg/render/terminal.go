package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/dkoosis/logtee/pkg/document"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	defaultWidth = 80
	maxCellWidth = 24
	ellipsis     = "…"
)

// Terminal renders echoes for one output stream.
type Terminal struct {
	theme Theme
	width int
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(theme Theme, width int) *Terminal {
	if width <= 0 {
		width = defaultWidth
	}
	return &Terminal{theme: theme, width: width}
}

// ForWriter returns a renderer suited to w: the named theme at the
// terminal's width when w is a terminal, plain text otherwise.
func ForWriter(w io.Writer, themeName string) *Terminal {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return NewTerminal(MonoTheme(), 0)
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		width = 0
	}
	return NewTerminal(ThemeByName(themeName), width)
}

// Theme returns the active theme.
func (t *Terminal) Theme() Theme {
	return t.theme
}

// Link formats a markdown-style jump link to an anchor: [🔗text](url).
func (t *Terminal) Link(text, url string) string {
	return t.theme.Link.Render("[" + LinkIcon + text + "](" + url + ")")
}

// TablePreview renders the first maxRows rows of tbl as aligned columns.
// Cells wider than a fixed limit are truncated; lines never exceed the
// terminal width.
func (t *Terminal) TablePreview(tbl *document.Table, maxRows int) string {
	if tbl == nil || len(tbl.Columns) == 0 {
		return ""
	}
	widths := make([]int, len(tbl.Columns))
	for i, c := range tbl.Columns {
		widths[i] = min(runewidth.StringWidth(c), maxCellWidth)
	}
	shown := tbl.Rows
	if maxRows > 0 && len(shown) > maxRows {
		shown = shown[:maxRows]
	}
	for _, row := range shown {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], min(runewidth.StringWidth(cell), maxCellWidth))
			}
		}
	}

	var lines []string
	lines = append(lines, t.theme.Header.Render(joinCells(tbl.Columns, widths)))
	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("─", w)
	}
	lines = append(lines, t.theme.Border.Render(strings.Join(rule, "  ")))
	for _, row := range shown {
		lines = append(lines, joinCells(row, widths))
	}
	if hidden := len(tbl.Rows) - len(shown); hidden > 0 {
		lines = append(lines, t.theme.Muted.Render(fmt.Sprintf("%s %d more rows", ellipsis, hidden)))
	}

	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(ansi.Truncate(line, t.width, ellipsis))
		sb.WriteString("\n")
	}
	return sb.String()
}

func joinCells(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		cell = runewidth.Truncate(cell, w, ellipsis)
		parts[i] = runewidth.FillRight(cell, w)
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}
