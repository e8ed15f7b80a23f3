package textutil

import (
	"strings"
	"unicode"
)

// SanitizeFileName turns a display name into a single path element. Path
// separators and colons become dashes, other reserved and control characters
// are dropped, and leading dots are removed so the result is never hidden or
// relative.
func SanitizeFileName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':':
			return '-'
		case strings.ContainsRune(`*?"<>|`, r), unicode.IsControl(r):
			return -1
		}
		return r
	}, name)
	return strings.TrimLeft(strings.TrimSpace(mapped), ". ")
}
