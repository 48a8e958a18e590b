// Package sdmxml reads SDMX 2.1 structure messages into flat rows.
package sdmxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// SDMX 2.1 namespaces
const (
	NSMessage   = "http://www.sdmx.org/resources/sdmxml/schemas/v2_1/message"
	NSStructure = "http://www.sdmx.org/resources/sdmxml/schemas/v2_1/structure"
	NSCommon    = "http://www.sdmx.org/resources/sdmxml/schemas/v2_1/common"
	NSXML       = "http://www.w3.org/XML/1998/namespace"
)

// AnyNS matches an element in any namespace, unqualified included
const AnyNS = "*"

// Element is a decoded XML element with its attributes and children in
// document order.
type Element struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Children []*Element
	Text     string
}

// Decode reads a whole XML document and returns its root element.
// Documents declaring a non UTF-8 charset are transcoded.
func Decode(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var stack []*Element
	var root *Element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name, Attrs: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			} else if root == nil {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("decode xml: empty document")
	}
	return root, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

func (e *Element) is(space, local string) bool {
	return e.Name.Local == local && (space == AnyNS || e.Name.Space == space)
}

// Attr returns the value of the unqualified attribute name, or ""
func (e *Element) Attr(name string) string {
	if e == nil {
		return ""
	}
	for _, a := range e.Attrs {
		if a.Name.Local == name && a.Name.Space == "" {
			return a.Value
		}
	}
	return ""
}

// Lang returns the xml:lang attribute
func (e *Element) Lang() string {
	if e == nil {
		return ""
	}
	for _, a := range e.Attrs {
		if a.Name.Local == "lang" && (a.Name.Space == NSXML || a.Name.Space == "xml") {
			return a.Value
		}
	}
	return ""
}

// Value returns the trimmed text content, or "" for a nil element
func (e *Element) Value() string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.Text)
}

// Child returns the first direct child with the given name, or nil
func (e *Element) Child(space, local string) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.Children {
		if c.is(space, local) {
			return c
		}
	}
	return nil
}

// Path follows a chain of direct children, each step a namespace and local
// name pair. A missing step yields nil.
func (e *Element) Path(steps ...[2]string) *Element {
	current := e
	for _, s := range steps {
		current = current.Child(s[0], s[1])
		if current == nil {
			return nil
		}
	}
	return current
}

// ChildElements returns every direct child element
func (e *Element) ChildElements() []*Element {
	if e == nil {
		return nil
	}
	return e.Children
}

// Descendants returns every element below e with the given name, in
// document order. e itself is not included.
func (e *Element) Descendants(space, local string) []*Element {
	var out []*Element
	e.walk(func(el *Element) {
		if el.is(space, local) {
			out = append(out, el)
		}
	})
	return out
}

// First returns the first descendant with the given name, or nil
func (e *Element) First(space, local string) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.Children {
		if c.is(space, local) {
			return c
		}
		if found := c.First(space, local); found != nil {
			return found
		}
	}
	return nil
}

func (e *Element) walk(fn func(*Element)) {
	if e == nil {
		return
	}
	for _, c := range e.Children {
		fn(c)
		c.walk(fn)
	}
}

// LocalizedName returns the text of the first common:Name descendant in the given
// language, or "".
func (e *Element) LocalizedName(lang string) string {
	for _, n := range e.Descendants(NSCommon, "Name") {
		if n.Lang() == lang {
			return n.Value()
		}
	}
	return ""
}
