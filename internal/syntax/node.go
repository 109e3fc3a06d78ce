package syntax

import sitter "github.com/smacker/go-tree-sitter"

// Node is a syntax tree node bound to the source it was parsed from. The
// zero Node is null; every accessor on a null node returns a zero value.
type Node struct {
	n   *sitter.Node
	src []byte
}

func (n Node) wrap(c *sitter.Node) Node {
	if c == nil || c.IsNull() {
		return Node{}
	}
	return Node{n: c, src: n.src}
}

// IsNull reports whether n refers to no node.
func (n Node) IsNull() bool {
	return n.n == nil || n.n.IsNull()
}

// Type returns the grammar type tag.
func (n Node) Type() string {
	if n.IsNull() {
		return ""
	}
	return n.n.Type()
}

// IsNamed reports whether n is a named node.
func (n Node) IsNamed() bool {
	return !n.IsNull() && n.n.IsNamed()
}

// StartRow returns the 0-based first row.
func (n Node) StartRow() int {
	if n.IsNull() {
		return 0
	}
	return int(n.n.StartPoint().Row)
}

// EndRow returns the 0-based last row.
func (n Node) EndRow() int {
	if n.IsNull() {
		return 0
	}
	return int(n.n.EndPoint().Row)
}

// ChildCount returns the number of children, anonymous ones included.
func (n Node) ChildCount() int {
	if n.IsNull() {
		return 0
	}
	return int(n.n.ChildCount())
}

// Child returns the i-th child.
func (n Node) Child(i int) Node {
	if n.IsNull() {
		return Node{}
	}
	return n.wrap(n.n.Child(i))
}

// Children returns every child in order.
func (n Node) Children() []Node {
	count := n.ChildCount()
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.Child(i); !c.IsNull() {
			out = append(out, c)
		}
	}
	return out
}

// NamedChildCount returns the number of named children.
func (n Node) NamedChildCount() int {
	if n.IsNull() {
		return 0
	}
	return int(n.n.NamedChildCount())
}

// NamedChild returns the i-th named child.
func (n Node) NamedChild(i int) Node {
	if n.IsNull() {
		return Node{}
	}
	return n.wrap(n.n.NamedChild(i))
}

// NamedChildren returns the named children in order.
func (n Node) NamedChildren() []Node {
	count := n.NamedChildCount()
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.NamedChild(i); !c.IsNull() {
			out = append(out, c)
		}
	}
	return out
}

// ChildByField returns the child stored under a grammar field name.
func (n Node) ChildByField(name string) Node {
	if n.IsNull() {
		return Node{}
	}
	return n.wrap(n.n.ChildByFieldName(name))
}

// Text returns the source text spanned by n.
func (n Node) Text() string {
	if n.IsNull() {
		return ""
	}
	return n.n.Content(n.src)
}

// PrevSibling returns the previous sibling, anonymous ones included.
func (n Node) PrevSibling() Node {
	if n.IsNull() {
		return Node{}
	}
	return n.wrap(n.n.PrevSibling())
}

// PrevNamedSibling returns the previous named sibling.
func (n Node) PrevNamedSibling() Node {
	if n.IsNull() {
		return Node{}
	}
	return n.wrap(n.n.PrevNamedSibling())
}

// Parent returns the parent node.
func (n Node) Parent() Node {
	if n.IsNull() {
		return Node{}
	}
	return n.wrap(n.n.Parent())
}
