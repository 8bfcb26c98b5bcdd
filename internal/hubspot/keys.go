package hubspot

import (
	"strings"
	"unicode"
)

// NormalizeKey maps a trait name onto HubSpot's property naming: lower case,
// each run of whitespace replaced by a single '_' and each '.' by '_'.
func NormalizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	inSpace := false
	for _, r := range key {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		if r == '.' {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// snakeKey is NormalizeKey with an '_' inserted at each lower-to-upper case
// boundary, so "signupDate" becomes "signup_date".
func snakeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	prev := rune(0)
	for _, r := range key {
		if unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			b.WriteRune('_')
		}
		b.WriteRune(r)
		prev = r
	}
	return NormalizeKey(b.String())
}
