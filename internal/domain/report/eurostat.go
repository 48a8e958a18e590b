package report

import (
	"strings"

	"github.com/statload/backend/internal/domain/eurostat"
)

// EurostatTitle heads the Eurostat report
const EurostatTitle = "Struttura gerarchica Eurostat (TOC) - generata da XML"

// EurostatStructure lists the table of contents, two spaces of indent per
// level: "* name (codice: code)" for branches and "- name (codice: code)"
// for datasets.
func EurostatStructure(root *eurostat.Node) *Structure {
	s := &Structure{Title: EurostatTitle}
	if root == nil {
		s.note(0, "(Nessuna struttura trovata)")
		return s
	}
	var walk func(n *eurostat.Node, depth int)
	walk = func(n *eurostat.Node, depth int) {
		marker, kind := "*", KindBranch
		if n.IsLeaf() {
			marker, kind = "-", KindLeaf
		}
		s.add(Line{
			Text:  strings.Repeat("  ", depth) + marker + " " + n.Name + " (codice: " + n.Code + ")",
			Depth: depth,
			Kind:  kind,
			Code:  n.Code,
			Name:  n.Name,
			Path:  n.PathString(),
		})
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
	return s
}
