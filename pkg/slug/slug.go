// Package slug turns location names into path segments for materialized
// paths. Shelf names arrive from spreadsheet imports in mixed case and with
// Turkish characters, so the mapping is explicit rather than locale-driven.
package slug

import (
	"strings"
	"unicode"
)

var translit = map[rune]string{
	'ç': "c", 'ğ': "g", 'ı': "i", 'ö': "o", 'ş': "s", 'ü': "u",
	'Ç': "c", 'Ğ': "g", 'İ': "i", 'I': "i", 'Ö': "o", 'Ş': "s", 'Ü': "u",
}

// Make lowercases a name and reduces it to [a-z0-9-]. Runs of other
// characters collapse into a single hyphen; leading and trailing hyphens are
// trimmed.
func Make(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range name {
		if repl, ok := translit[r]; ok {
			b.WriteString(repl)
			lastHyphen = false
			continue
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
