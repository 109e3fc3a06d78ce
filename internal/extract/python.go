package extract

import (
	"github.com/jward/codemap/internal/graph"
	"github.com/jward/codemap/internal/syntax"
)

var (
	pyLeaves = map[string]bool{"identifier": true}
	pyFields = map[string]string{"attribute": "attribute"}
)

// Python extracts functions, classes, module-level variables, calls and
// imports from Python syntax trees. Defaults: flat ids, global lookup.
type Python struct {
	base
}

// NewPython returns a Python extractor writing to g.
func NewPython(g Graph, opts ...Option) *Python {
	return &Python{base: newBase(g, settings{naming: Flat}, opts)}
}

// Handle implements Extractor.
func (p *Python) Handle(n syntax.Node, filePath, scope string) string {
	switch n.Type() {
	case "function_definition":
		return p.function(n, filePath, scope)
	case "class_definition":
		return p.class(n, filePath, scope)
	case "call":
		p.call(filePath, scope, rightmostName(n.ChildByField("function"), pyLeaves, pyFields))
	case "import_statement":
		for _, c := range n.NamedChildren() {
			switch c.Type() {
			case "dotted_name":
				p.importModule(filePath, c.Text())
			case "aliased_import":
				p.importModule(filePath, c.ChildByField("name").Text())
			}
		}
	case "import_from_statement":
		p.importModule(filePath, n.ChildByField("module_name").Text())
	case "assignment":
		p.assignment(n, filePath, scope)
	}
	return scope
}

func (p *Python) function(n syntax.Node, filePath, scope string) string {
	name := n.ChildByField("name")
	if name.IsNull() {
		return scope
	}
	kind := graph.KindFunction
	if pyInClassBody(n) {
		kind = graph.KindMethod
	}
	return p.declare(filePath, scope, decl{
		node: n,
		name: name.Text(),
		kind: kind,
		doc:  pyDocstring(n),
	})
}

func (p *Python) class(n syntax.Node, filePath, scope string) string {
	name := n.ChildByField("name")
	if name.IsNull() {
		return scope
	}
	id := p.declare(filePath, scope, decl{
		node: n,
		name: name.Text(),
		kind: graph.KindClass,
		doc:  pyDocstring(n),
	})
	for _, sup := range n.ChildByField("superclasses").NamedChildren() {
		switch sup.Type() {
		case "identifier":
			p.relate(filePath, id, sup.Text(), graph.RelationInherits)
		case "attribute":
			p.relate(filePath, id, sup.ChildByField("attribute").Text(), graph.RelationInherits)
		}
	}
	return id
}

// assignment records module-level bindings of a plain name.
func (p *Python) assignment(n syntax.Node, filePath, scope string) {
	stmt := n.Parent()
	if stmt.Type() != "expression_statement" || stmt.Parent().Type() != "module" {
		return
	}
	left := n.ChildByField("left")
	if left.Type() != "identifier" {
		return
	}
	p.declare(filePath, scope, decl{
		node: n,
		name: left.Text(),
		kind: graph.KindVariable,
	})
}

// pyInClassBody reports whether a def sits directly in a class body,
// looking through decorators.
func pyInClassBody(n syntax.Node) bool {
	parent := n.Parent()
	if parent.Type() == "decorated_definition" {
		parent = parent.Parent()
	}
	return parent.Type() == "block" && parent.Parent().Type() == "class_definition"
}

// pyDocstring returns the string literal opening a def or class body.
func pyDocstring(n syntax.Node) string {
	body := n.ChildByField("body")
	if body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" {
		return ""
	}
	if s := first.Child(0); s.Type() == "string" {
		return s.Text()
	}
	return ""
}
