package document

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"sort"
	"strings"
)

// Table is tabular data rendered as an HTML table.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable returns an empty table with the given column headers.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// AddRow appends a row, formatting each value with fmt.Sprint. Short rows
// are padded, long rows truncated to the column count.
func (t *Table) AddRow(values ...any) *Table {
	row := make([]string, len(t.Columns))
	for i := range row {
		if i < len(values) {
			row[i] = fmt.Sprint(values[i])
		}
	}
	t.Rows = append(t.Rows, row)
	return t
}

// TableFromRecords builds a table from maps. Columns are the first record's
// keys in sorted order; missing values render empty.
func TableFromRecords(records []map[string]any) *Table {
	if len(records) == 0 {
		return NewTable()
	}
	columns := make([]string, 0, len(records[0]))
	for k := range records[0] {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	t := NewTable(columns...)
	for _, rec := range records {
		values := make([]any, len(columns))
		for i, col := range columns {
			if v, ok := rec[col]; ok {
				values[i] = v
			} else {
				values[i] = ""
			}
		}
		t.AddRow(values...)
	}
	return t
}

// HTML renders the table. A table without rows renders a placeholder.
func (t *Table) HTML() string {
	if t == nil || len(t.Rows) == 0 {
		return "<div><em>empty table</em></div>\n"
	}
	var sb strings.Builder
	sb.WriteString(`<table border="1"><thead><tr>`)
	for _, col := range t.Columns {
		sb.WriteString("<th>" + EscapeHTML(col) + "</th>")
	}
	sb.WriteString("</tr></thead><tbody>")
	for i, row := range t.Rows {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("<tr>")
		for _, cell := range row {
			sb.WriteString("<td>" + EscapeHTML(cell) + "</td>")
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</tbody></table>\n")
	return sb.String()
}

// JSON renders v indented by two spaces inside a pre element, optionally
// with right-aligned line numbers.
func JSON(v any, lineNumbers bool) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding JSON fragment: %w", err)
	}
	text := string(data)
	if lineNumbers {
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			lines[i] = fmt.Sprintf("%4d: %s", i+1, line)
		}
		text = strings.Join(lines, "\n")
	}
	return "<pre>" + EscapeHTML(text) + "</pre>\n", nil
}

// Image renders img as an inline PNG data URI.
func Image(img image.Image, alt string) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encoding PNG fragment: %w", err)
	}
	b64 := base64.StdEncoding.EncodeToString(buf.Bytes())
	return `<img src="data:image/png;base64,` + b64 + `" alt="` + EscapeAttr(alt) + `"/>` + "\n", nil
}
