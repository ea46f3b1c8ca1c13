package validators

import (
	"strings"
	"unicode"
)

// CleanText prepares free text typed at a till (names, stock notes) for
// storage: control characters are dropped, whitespace runs collapse to one
// space and the result is cut to maxRunes. maxRunes <= 0 means no limit.
func CleanText(input string, maxRunes int) string {
	var b strings.Builder
	b.Grow(len(input))
	runes, pendingSpace := 0, false
	for _, r := range input {
		if unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if maxRunes > 0 && runes+boolInt(pendingSpace)+1 > maxRunes {
			break
		}
		if pendingSpace {
			b.WriteByte(' ')
			runes++
			pendingSpace = false
		}
		b.WriteRune(r)
		runes++
	}
	return b.String()
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
