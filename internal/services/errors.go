package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrProbe         = errors.New("probe failure")
	ErrCache         = errors.New("cache error")
	ErrExtraction    = errors.New("extraction failure")
	ErrStructural    = errors.New("structural inconsistency")
	ErrConfiguration = errors.New("configuration error")
	ErrTransient     = errors.New("transient failure")
	ErrCanceled      = errors.New("canceled")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsPerNode reports whether err belongs to the per-node failure classes that a
// container logs and skips instead of aborting its own discovery.
func IsPerNode(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrCanceled):
		return false
	case errors.Is(err, ErrProbe), errors.Is(err, ErrCache), errors.Is(err, ErrExtraction),
		errors.Is(err, ErrNotFound), errors.Is(err, ErrStructural):
		return true
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "tree failure"
	}
	return strings.Join(parts, ": ")
}
