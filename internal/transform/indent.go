package transform

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const indentUnit = "  "

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#xD;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;")
)

type frame struct {
	name     string
	children bool
	text     bool
}

// Indent re-serializes an XML document with two-space indentation. Elements
// holding only text stay on one line; whitespace-only text between elements
// is dropped. Prefixes are written as found, so namespace declarations are
// preserved verbatim. The same input always produces the same output.
func Indent(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true

	var (
		out     bytes.Buffer
		stack   []*frame
		open    bool
		started bool
		roots   int
	)
	closeOpen := func() {
		if open {
			out.WriteByte('>')
			open = false
		}
	}
	newline := func() {
		if started {
			out.WriteByte('\n')
		}
		started = true
		out.WriteString(strings.Repeat(indentUnit, len(stack)))
	}
	inlineParent := func() bool {
		return len(stack) > 0 && stack[len(stack)-1].text
	}

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.ProcInst:
			closeOpen()
			if !inlineParent() {
				newline()
			}
			out.WriteString("<?")
			out.WriteString(t.Target)
			if inst := strings.TrimSpace(string(t.Inst)); inst != "" {
				out.WriteByte(' ')
				out.WriteString(inst)
			}
			out.WriteString("?>")
		case xml.Directive:
			closeOpen()
			newline()
			out.WriteString("<!")
			out.Write(t)
			out.WriteByte('>')
		case xml.Comment:
			closeOpen()
			if !inlineParent() {
				newline()
			}
			out.WriteString("<!--")
			out.Write(t)
			out.WriteString("-->")
		case xml.StartElement:
			closeOpen()
			if len(stack) == 0 {
				roots++
				if roots > 1 {
					return nil, errors.New("multiple root elements")
				}
			} else {
				stack[len(stack)-1].children = true
			}
			if !inlineParent() {
				newline()
			}
			name := qualified(t.Name)
			out.WriteByte('<')
			out.WriteString(name)
			for _, attr := range t.Attr {
				out.WriteByte(' ')
				out.WriteString(qualified(attr.Name))
				out.WriteString(`="`)
				out.WriteString(attrEscaper.Replace(attr.Value))
				out.WriteByte('"')
			}
			open = true
			stack = append(stack, &frame{name: name})
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected end element </%s>", qualified(t.Name))
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if name := qualified(t.Name); name != top.name {
				return nil, fmt.Errorf("element <%s> closed by </%s>", top.name, name)
			}
			if open {
				out.WriteString("/>")
				open = false
				continue
			}
			if top.children && !top.text {
				newline()
			}
			out.WriteString("</")
			out.WriteString(top.name)
			out.WriteByte('>')
		case xml.CharData:
			if len(stack) == 0 || len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			closeOpen()
			stack[len(stack)-1].text = true
			out.WriteString(textEscaper.Replace(string(t)))
		}
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("unclosed element <%s>", stack[len(stack)-1].name)
	}
	if roots == 0 {
		return nil, errors.New("document has no root element")
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}
