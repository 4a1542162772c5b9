package values

import (
	"strings"
	"unicode"
)

// CamelKey converts a snake_case, kebab-case or space separated field key to
// its camelCase mirror: "date_of_birth" -> "dateOfBirth". Keys already in
// camelCase are returned unchanged.
func CamelKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	upperNext := false
	for i, r := range key {
		if r == '_' || r == '-' || r == ' ' {
			upperNext = b.Len() > 0
			continue
		}
		if upperNext {
			b.WriteRune(unicode.ToUpper(r))
			upperNext = false
			continue
		}
		if i == 0 {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SnakeKey converts a camelCase key to snake_case: "dateOfBirth" -> "date_of_birth"
func SnakeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	for i, r := range key {
		switch {
		case r == ' ' || r == '-':
			b.WriteRune('_')
		case unicode.IsUpper(r):
			if i > 0 {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
