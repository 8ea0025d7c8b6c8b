package ormcache

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// tableFor derives a table name from an entity name: "UserProfile" becomes
// "user_profiles" and "*pkg.Order" becomes "pkg_orders".
func tableFor(entity string) string {
	snake := toSnake(entity)
	if snake == "" {
		return ""
	}
	i := strings.LastIndexByte(snake, '_')
	return snake[:i+1] + inflection.Plural(snake[i+1:])
}

// toSnake converts s to snake_case. Punctuation from reflected type names
// (pointers, package qualifiers, generic brackets) collapses into single
// underscores so the result is safe inside cache keys.
func toSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	pending := false
	sep := func() {
		if b.Len() > 0 {
			pending = true
		}
	}

	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					sep()
				}
			}
			r = unicode.ToLower(r)
		case unicode.IsLower(r):
		case unicode.IsDigit(r):
			if i > 0 && !unicode.IsDigit(runes[i-1]) {
				sep()
			}
		default:
			sep()
			continue
		}

		if pending {
			b.WriteByte('_')
			pending = false
		}
		b.WriteRune(r)
	}

	return b.String()
}
