package utils

import "strings"

// NewNullString is a helper for string pointers, returning nil if the
// trimmed string is empty. Useful for optional fields that should be
// NULL in the database if not provided.
func NewNullString(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
