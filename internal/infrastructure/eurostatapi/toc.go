// Package eurostatapi reads the Eurostat dissemination API: the table of
// contents, dataset TSV files and dimension codelists.
package eurostatapi

import (
	"io"

	"github.com/statload/backend/internal/domain/eurostat"
	"github.com/statload/backend/internal/domain/shared"
	"github.com/statload/backend/internal/infrastructure/sdmxml"
)

// NSNavTree is the namespace of the table of contents
const NSNavTree = "urn:eu.europa.ec.eurostat.navtree"

// ParseTOC builds the navigation tree from the first branch of the table
// of contents. A document without branches yields ErrEmptyCatalogue.
func ParseTOC(r io.Reader) (*eurostat.Node, error) {
	root, err := sdmxml.Decode(r)
	if err != nil {
		return nil, err
	}
	first := root.First(NSNavTree, "branch")
	if first == nil {
		return nil, shared.ErrEmptyCatalogue
	}
	return parseBranch(first, nil), nil
}

func parseBranch(el *sdmxml.Element, parentPath []string) *eurostat.Node {
	node := eurostat.NewBranch(code(el), title(el), parentPath)
	for _, child := range el.Child(NSNavTree, "children").ChildElements() {
		switch child.Name.Local {
		case "branch":
			_ = node.AddChild(parseBranch(child, node.Path))
		case "leaf":
			_ = node.AddChild(eurostat.NewLeaf(code(child), title(child), node.Path))
		}
	}
	return node
}

func code(el *sdmxml.Element) string {
	return el.Child(NSNavTree, "code").Value()
}

func title(el *sdmxml.Element) string {
	for _, t := range el.ChildElements() {
		if t.Name.Space == NSNavTree && t.Name.Local == "title" && t.Attr("language") == "en" {
			return t.Value()
		}
	}
	return ""
}
