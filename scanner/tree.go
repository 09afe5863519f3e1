package scanner

import (
	"iter"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"
)

// Tree is a parsed syntax tree together with the bytes it was parsed from.
type Tree struct {
	tree *sitter.Tree
	root *sitter.Node
	src  []byte
}

// Root returns the root node.
func (t *Tree) Root() *sitter.Node { return t.root }

// Text returns the source text spanned by n.
func (t *Tree) Text(n *sitter.Node) string { return n.Content(t.src) }

// Position returns the 1-based line and column where n starts.
func (t *Tree) Position(n *sitter.Node) (line, col int) { return nodePosition(n) }

// Span returns the number of lines n covers, counting both its first and
// last line.
func (t *Tree) Span(n *sitter.Node) int {
	start, err := safecast.Conv[int](n.StartPoint().Row)
	if err != nil {
		return 0
	}
	end, err := safecast.Conv[int](n.EndPoint().Row)
	if err != nil {
		return 0
	}
	return end - start + 1
}

// Walk visits every node in document order. Returning false from fn skips
// the node's children.
func (t *Tree) Walk(fn func(n *sitter.Node) bool) {
	walk(t.root, fn)
}

// Find returns every node whose type is one of types, in document order.
func (t *Tree) Find(types ...string) []*sitter.Node {
	want := make(map[string]bool, len(types))
	for _, typ := range types {
		want[typ] = true
	}
	var out []*sitter.Node
	t.Walk(func(n *sitter.Node) bool {
		if want[n.Type()] {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Children yields the children of n in order.
func Children(n *sitter.Node) iter.Seq[*sitter.Node] {
	return nodes(n.ChildCount(), n.Child)
}

// NamedChildren yields the named children of n in order.
func NamedChildren(n *sitter.Node) iter.Seq[*sitter.Node] {
	return nodes(n.NamedChildCount(), n.NamedChild)
}

func nodes(count uint32, at func(int) *sitter.Node) iter.Seq[*sitter.Node] {
	return func(yield func(*sitter.Node) bool) {
		total, err := safecast.Conv[int](count)
		if err != nil {
			return
		}
		for i := range total {
			if !yield(at(i)) {
				return
			}
		}
	}
}

func (t *Tree) close() { t.tree.Close() }

func walk(n *sitter.Node, fn func(n *sitter.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for child := range Children(n) {
		walk(child, fn)
	}
}

func nodePosition(n *sitter.Node) (line, col int) {
	p := n.StartPoint()
	row, err := safecast.Conv[int](p.Row)
	if err != nil {
		return 0, 0
	}
	column, err := safecast.Conv[int](p.Column)
	if err != nil {
		return row + 1, 0
	}
	return row + 1, column + 1
}
