package document

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

// TitlePlaceholder is replaced with the escaped document title.
const TitlePlaceholder = "{title}"

//go:embed template.html
var defaultTemplate string

// DefaultTemplate returns the built-in template with title filled in.
func DefaultTemplate(title string) []byte {
	return []byte(strings.ReplaceAll(defaultTemplate, TitlePlaceholder, EscapeHTML(title)))
}

// LoadTemplate reads a template file and fills in the title. An empty path
// selects the built-in template.
func LoadTemplate(path, title string) ([]byte, error) {
	if path == "" {
		return DefaultTemplate(title), nil
	}
	data, err := os.ReadFile(path) // #nosec G304 - template path comes from the caller's config
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", path, err)
	}
	return []byte(strings.ReplaceAll(string(data), TitlePlaceholder, EscapeHTML(title))), nil
}
