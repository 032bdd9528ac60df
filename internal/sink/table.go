package sink

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

const (
	tablePrefix    = "occupancy_"
	untitledSuffix = "untitled"
)

// TableName derives the per-title table from the initials of each word of
// the transliterated, lower-cased title. "Pushpa 2: The Rule" becomes
// "occupancy_p2tr".
func TableName(title string) string {
	ascii := strings.ToLower(unidecode.Unidecode(title))

	var b strings.Builder
	for _, word := range strings.FieldsFunc(ascii, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		r := []rune(word)[0]
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return tablePrefix + untitledSuffix
	}
	return tablePrefix + b.String()
}
