package extract

import "github.com/jward/codemap/internal/syntax"

// Walk visits n and its descendants depth-first in pre-order. The scope
// returned for a node is passed to its children only; siblings all start
// from the scope their parent handed down.
func Walk(x Extractor, n syntax.Node, filePath, scope string) {
	if n.IsNull() {
		return
	}
	inner := x.Handle(n, filePath, scope)
	for i, count := 0, n.ChildCount(); i < count; i++ {
		Walk(x, n.Child(i), filePath, inner)
	}
}
