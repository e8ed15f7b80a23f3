package textutil

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var separatorRun = regexp.MustCompile(`[._\s]+`)

// TitleFromFileName derives a display title from a file name by dropping the
// extension, turning dots and underscores into spaces, and title-casing the
// result when the name is entirely lower case.
func TitleFromFileName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	title := strings.TrimSpace(separatorRun.ReplaceAllString(base, " "))
	if title == "" {
		return base
	}
	if title == strings.ToLower(title) {
		return cases.Title(language.Und).String(title)
	}
	return title
}
