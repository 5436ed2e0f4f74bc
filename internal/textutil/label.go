package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// LabelToken folds a destination name into a metric label value: lowercase
// ASCII letters and digits, accents dropped, and every other run of
// characters collapsed to a single underscore. Empty results become
// "unknown".
func LabelToken(value string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range norm.NFKD.String(strings.ToLower(value)) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
