package utils

import (
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}._\s-]`)

// SanitizeFilename reduces a path to a safe upload filename. Directory parts
// and parent references are dropped, leading/trailing spaces and dots are
// trimmed, and anything other than letters, digits and safe punctuation is
// removed. The result is capped at 255 bytes.
func SanitizeFilename(filename string) string {
	sanitized := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	sanitized = strings.ReplaceAll(sanitized, "..", "")
	sanitized = unsafeFilenameChars.ReplaceAllString(sanitized, "")
	sanitized = strings.Trim(sanitized, " .")
	if len(sanitized) > 255 {
		sanitized = truncateUTF8(sanitized, 255)
	}
	return sanitized
}

func truncateUTF8(s string, max int) string {
	for max > 0 && max < len(s) && !isRuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// NewID creates a unique record identifier using UUID v4.
func NewID() string {
	return uuid.New().String()
}
