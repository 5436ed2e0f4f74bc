package textutil

import (
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName returns the canonical lookup key for a resource name: the
// base name with surrounding whitespace removed, in Unicode NFC form.
// Backslash separators are treated like forward slashes.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimRight(name, "/")
	if name == "" {
		return ""
	}
	return norm.NFC.String(path.Base(name))
}
