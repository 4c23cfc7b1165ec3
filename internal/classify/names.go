package classify

import (
	"strings"
	"unicode"
)

// MaxNameLength bounds generated machine names
const MaxNameLength = 50

// FieldName derives a machine identifier from a display label: lower-cased,
// punctuation stripped, whitespace runs joined by single underscores, and
// truncated. "Site Name" and "site_name" both become site_name; the builder
// resolves such collisions within a page.
func FieldName(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	name := strings.Join(strings.Fields(b.String()), "_")
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	name = strings.Trim(name, "_")

	if runes := []rune(name); len(runes) > MaxNameLength {
		name = strings.TrimRight(string(runes[:MaxNameLength]), "_")
	}
	return name
}
