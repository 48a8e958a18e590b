package eurostat

import (
	"strings"

	"github.com/statload/backend/internal/domain/shared"
)

// NodeKind distinguishes folders from datasets in the navigation tree
type NodeKind string

const (
	NodeBranch NodeKind = "branch"
	NodeLeaf   NodeKind = "leaf"
)

// Node is one entry of the Eurostat table of contents.
// Branches group other nodes; leaves are downloadable datasets.
type Node struct {
	Kind     NodeKind `json:"type" yaml:"type"`
	Code     string   `json:"code" yaml:"code"`
	Name     string   `json:"name" yaml:"name"`
	Path     []string `json:"path" yaml:"path"`
	Children []*Node  `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewBranch creates a branch below parentPath. An empty title falls back to the code.
func NewBranch(code, title string, parentPath []string) *Node {
	return newNode(NodeBranch, code, title, parentPath)
}

// NewLeaf creates a dataset leaf below parentPath. An empty title falls back to the code.
func NewLeaf(code, title string, parentPath []string) *Node {
	return newNode(NodeLeaf, code, title, parentPath)
}

func newNode(kind NodeKind, code, title string, parentPath []string) *Node {
	name := title
	if name == "" {
		name = code
	}
	path := make([]string, 0, len(parentPath)+1)
	path = append(path, parentPath...)
	path = append(path, name)
	return &Node{Kind: kind, Code: code, Name: name, Path: path}
}

// IsLeaf reports whether the node is a dataset
func (n *Node) IsLeaf() bool {
	return n.Kind == NodeLeaf
}

// AddChild appends a child node. Leaves cannot have children.
func (n *Node) AddChild(child *Node) error {
	if n.IsLeaf() {
		return shared.ErrInvalidInput.WithMessage("dataset " + n.Code + " cannot have children")
	}
	if child == nil {
		return nil
	}
	n.Children = append(n.Children, child)
	return nil
}

// PathString renders the path as "a > b > c"
func (n *Node) PathString() string {
	return strings.Join(n.Path, " > ")
}

// Depth is the number of ancestors of the node (0 for the root)
func (n *Node) Depth() int {
	if len(n.Path) == 0 {
		return 0
	}
	return len(n.Path) - 1
}

// Walk visits n and its descendants depth-first in document order.
// Returning false from fn skips the children of the visited node.
func (n *Node) Walk(fn func(node *Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the first node with the given code, or nil.
// Codes are compared case-insensitively.
func (n *Node) Find(code string) *Node {
	var found *Node
	n.Walk(func(node *Node) bool {
		if found != nil {
			return false
		}
		if strings.EqualFold(node.Code, code) {
			found = node
			return false
		}
		return true
	})
	return found
}

// Child returns the direct child with the given code, or nil
func (n *Node) Child(code string) *Node {
	for _, c := range n.Children {
		if strings.EqualFold(c.Code, code) {
			return c
		}
	}
	return nil
}

// Leaves returns every dataset below n
func (n *Node) Leaves() []*Node {
	var out []*Node
	n.Walk(func(node *Node) bool {
		if node.IsLeaf() {
			out = append(out, node)
		}
		return true
	})
	return out
}

// Branches returns every branch below n, n included when it is a branch
func (n *Node) Branches() []*Node {
	var out []*Node
	n.Walk(func(node *Node) bool {
		if !node.IsLeaf() {
			out = append(out, node)
		}
		return true
	})
	return out
}

// Resolve follows a path of codes from n's children downwards and returns
// the nodes visited, in order. An unknown code yields ErrNotFound.
func (n *Node) Resolve(codes []string) ([]*Node, error) {
	trail := make([]*Node, 0, len(codes))
	current := n
	for _, code := range codes {
		next := current.Child(code)
		if next == nil {
			return nil, shared.ErrNotFound.WithMessage("catalogue entry " + code + " not found")
		}
		trail = append(trail, next)
		current = next
	}
	return trail, nil
}
