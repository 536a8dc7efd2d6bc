package chatexport

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"wa_listings/models"
)

const (
	FormatText = "txt"
	FormatHTML = "html"
)

// Parse dispatches on format.
func Parse(r io.Reader, format string, sel Selectors, opts Options) ([]models.IncomingMessage, error) {
	switch format {
	case FormatText:
		return ParseText(r, opts)
	case FormatHTML:
		return ParseHTML(r, sel, opts)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// FormatFromName guesses the export format from a file extension.
func FormatFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatText
	}
}

// Matches reports whether a file name belongs to format.
func Matches(name, format string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	switch format {
	case FormatHTML:
		return ext == ".html" || ext == ".htm"
	case FormatText:
		return ext == ".txt"
	}
	return false
}
