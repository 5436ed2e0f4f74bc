// Package rewrite replaces resource placeholders in the transformed record
// with published links.
//
// A placeholder is a <fulltext-url> element whose text is the name of a file
// from the submission archive. An empty element, including the self-closing
// form, is a placeholder with no name and never resolves. Each one is replaced by the direct link the
// publisher recorded for that file. If any placeholder cannot be resolved no
// output is produced.
package rewrite

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	"etdbridge/internal/publish"
	"etdbridge/internal/services"
	"etdbridge/internal/textutil"
)

const stage = "rewriting"

var (
	placeholderPattern = regexp.MustCompile(`<fulltext-url(?:\s*/>|>(.*?)</fulltext-url>)`)
	linkEscaper        = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// UnresolvedError lists placeholder names with no published link.
type UnresolvedError struct {
	Names []string
}

func (e *UnresolvedError) Error() string {
	return "no published file for " + strings.Join(quoted(e.Names), ", ")
}

func quoted(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = fmt.Sprintf("%q", name)
	}
	return out
}

// placeholderName converts placeholder text into a publication lookup key.
// The self-closing form has no text and yields "".
func placeholderName(inner []byte) string {
	return textutil.NormalizeName(html.UnescapeString(string(inner)))
}

// Placeholders returns the distinct names referenced by placeholders, in
// document order.
func Placeholders(doc []byte) []string {
	var names []string
	seen := map[string]bool{}
	for _, match := range placeholderPattern.FindAllSubmatch(doc, -1) {
		name := placeholderName(match[1])
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Unreferenced returns the names in published that no placeholder in doc
// refers to, sorted. These files must be attached to the repository record
// by hand.
func Unreferenced(doc []byte, published []string) []string {
	referenced := map[string]bool{}
	for _, name := range Placeholders(doc) {
		referenced[name] = true
	}
	var out []string
	for _, name := range published {
		if !referenced[textutil.NormalizeName(name)] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Rewrite resolves every placeholder in doc against pub. When any name is
// missing it returns an UnresolvedReference error naming all of them.
func Rewrite(doc []byte, pub *publish.Publication) ([]byte, error) {
	var missing []string
	seenMissing := map[string]bool{}
	for _, name := range Placeholders(doc) {
		if _, ok := pub.Link(name); ok && name != "" {
			continue
		}
		if !seenMissing[name] {
			seenMissing[name] = true
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, services.Fail(services.ErrUnresolvedReference, stage, "Rewrite",
			fmt.Sprintf("%d placeholder(s) unresolved", len(missing)),
			&UnresolvedError{Names: missing}).
			WithHint("the metadata references files that are not in the archive")
	}

	out := placeholderPattern.ReplaceAllFunc(doc, func(match []byte) []byte {
		inner := placeholderPattern.FindSubmatch(match)[1]
		link, _ := pub.Link(placeholderName(inner))
		return []byte("<fulltext-url>" + linkEscaper.Replace(link) + "</fulltext-url>")
	})
	return out, nil
}
