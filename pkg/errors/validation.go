package errors

import (
	"strings"
	"unicode"
)

// ValidateNodeID validates a graph node identifier.
// Node IDs come from external map data and end up in cache keys, snapshot
// documents, and log lines, so the rules are intentionally conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidGraph, "node ID cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidGraph, "node ID too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidGraph, "node ID contains invalid control characters")
		}
	}

	return nil
}

// ValidateViewID validates a map view identifier used to scope layout
// snapshots and supersede tracking. View IDs become storage keys, so path
// separators and traversal sequences are rejected.
func ValidateViewID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidViewID, "view ID cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidViewID, "view ID too long (max 128 characters)")
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidViewID, "view ID contains invalid characters: %q", pattern)
		}
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidViewID, "view ID contains invalid control characters")
		}
	}

	return nil
}
