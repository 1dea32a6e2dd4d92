package utils

import (
	"strings"
	"unicode"
)

var asciiFold = map[rune]string{
	'à': "a", 'á': "a", 'â': "a", 'ã': "a", 'ä': "a", 'å': "a",
	'è': "e", 'é': "e", 'ê': "e", 'ë': "e",
	'ì': "i", 'í': "i", 'î': "i", 'ï': "i",
	'ò': "o", 'ó': "o", 'ô': "o", 'õ': "o", 'ö': "o",
	'ù': "u", 'ú': "u", 'û': "u", 'ü': "u",
	'ñ': "n", 'ç': "c", 'ß': "ss", 'æ': "ae", 'ø': "o",
}

// Slugify turns a display name into a URL slug: lowercase, ASCII-folded,
// anything else collapsed into single hyphens, no leading/trailing hyphen.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if folded, ok := asciiFold[r]; ok {
			b.WriteString(folded)
			lastHyphen = false
			continue
		}
		if (r >= 'a' && r <= 'z') || unicode.IsDigit(r) && r < 128 {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
