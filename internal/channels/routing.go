package channels

import (
	"strings"
	"unicode"
)

// SanitizeKey derives a routing key from a user or chat identifier by
// stripping every rune that is not a letter or digit. Channel names must be
// alphanumeric, and chat identifiers carry uuid separators.
func SanitizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
