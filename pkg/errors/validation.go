package errors

import (
	"strings"
	"unicode"
)

// ValidateFixtureName validates a fixture name received from a request.
// Fixture names are file stems inside the fixtures directory, so anything that
// could escape that directory is rejected:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateFixtureName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "fixture name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "fixture name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "fixture name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",
		"/",
		"\\",
		"\x00",
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "fixture name contains invalid characters: %q", pattern)
		}
	}

	return nil
}
