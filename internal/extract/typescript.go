package extract

import (
	"strings"

	"github.com/jward/codemap/internal/graph"
	"github.com/jward/codemap/internal/syntax"
)

// TypeScript extends the JavaScript shapes with interfaces, enums, type
// aliases, abstract classes and method signatures. Defaults:
// scope-qualified ids and file-first lookup.
type TypeScript struct {
	script
}

// NewTypeScript returns a TypeScript extractor writing to g.
func NewTypeScript(g Graph, opts ...Option) *TypeScript {
	return &TypeScript{script: script{
		base:  newBase(g, settings{naming: ScopeQualified, fileLookup: true}, opts),
		docOf: tsDoc,
	}}
}

// Handle implements Extractor.
func (t *TypeScript) Handle(n syntax.Node, filePath, scope string) string {
	switch n.Type() {
	case "class_declaration", "abstract_class_declaration":
		return t.class(n, filePath, scope)
	case "interface_declaration":
		return t.iface(n, filePath, scope)
	case "enum_declaration":
		t.simple(n, filePath, scope, graph.KindEnum)
	case "type_alias_declaration":
		t.simple(n, filePath, scope, graph.KindTypeAlias)
	case "method_signature", "abstract_method_signature":
		t.simple(n, filePath, scope, graph.KindMethod)
	default:
		return t.handle(n, filePath, scope)
	}
	return scope
}

func (t *TypeScript) class(n syntax.Node, filePath, scope string) string {
	name := n.ChildByField("name")
	if name.IsNull() {
		return scope
	}
	id := t.declare(filePath, scope, decl{
		node: n,
		name: name.Text(),
		kind: graph.KindClass,
		doc:  tsDoc(n),
	})

	heritage := childOfType(n, "class_heritage")
	if heritage.IsNull() {
		heritage = n
	}
	for _, clause := range heritage.Children() {
		switch clause.Type() {
		case "extends_clause":
			sup := clause.ChildByField("value")
			if sup.IsNull() {
				sup = clause.NamedChild(0)
			}
			t.relate(filePath, id, tsTypeName(sup), graph.RelationInherits)
		case "implements_clause":
			for _, iface := range clause.NamedChildren() {
				t.relate(filePath, id, tsTypeName(iface), graph.RelationImplements)
			}
		}
	}
	return id
}

func (t *TypeScript) iface(n syntax.Node, filePath, scope string) string {
	name := n.ChildByField("name")
	if name.IsNull() {
		return scope
	}
	id := t.declare(filePath, scope, decl{
		node: n,
		name: name.Text(),
		kind: graph.KindInterface,
		doc:  tsDoc(n),
	})
	for _, sup := range childOfType(n, "extends_type_clause").NamedChildren() {
		t.relate(filePath, id, tsTypeName(sup), graph.RelationInherits)
	}
	return id
}

// simple records a named declaration that does not open a scope.
func (t *TypeScript) simple(n syntax.Node, filePath, scope string, kind graph.Kind) {
	name := n.ChildByField("name")
	if name.IsNull() {
		return
	}
	t.declare(filePath, scope, decl{
		node: n,
		name: name.Text(),
		kind: kind,
		doc:  tsDoc(n),
	})
}

// tsTypeName reduces a heritage type to the name it declares, dropping
// type arguments and namespace qualifiers.
func tsTypeName(n syntax.Node) string {
	switch n.Type() {
	case "identifier", "type_identifier", "property_identifier":
		return n.Text()
	case "generic_type":
		return tsTypeName(n.ChildByField("name"))
	case "nested_type_identifier":
		return n.ChildByField("name").Text()
	case "member_expression":
		return n.ChildByField("property").Text()
	}
	return rightmostName(n, jsLeaves, jsFields)
}

// tsDoc returns the /** comment immediately preceding n, if any.
func tsDoc(n syntax.Node) string {
	prev := docTarget(n).PrevSibling()
	if prev.Type() == "comment" && strings.HasPrefix(prev.Text(), "/**") {
		return prev.Text()
	}
	return ""
}
