package registry

import (
	"strconv"
	"strings"
)

// Separator introduces free-form disambiguation text after a wire identifier.
const Separator = "$"

// ParseID converts an externally supplied identifier to a registry id. Text
// after Separator is ignored. Unparseable or negative ids report false.
func ParseID(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, Separator); idx >= 0 {
		raw = raw[:idx]
	}
	if raw == "" {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// FormatID renders id for the wire, appending suffix after Separator when set.
func FormatID(id int, suffix string) string {
	s := strconv.Itoa(id)
	if suffix = strings.TrimSpace(suffix); suffix != "" {
		s += Separator + suffix
	}
	return s
}
