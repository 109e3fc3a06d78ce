package extract

import (
	"strings"

	"github.com/jward/codemap/internal/graph"
	"github.com/jward/codemap/internal/syntax"
)

var (
	jsLeaves = map[string]bool{
		"identifier":                  true,
		"type_identifier":             true,
		"property_identifier":         true,
		"private_property_identifier": true,
	}
	jsFields = map[string]string{"member_expression": "property"}
)

// script holds the node handling JavaScript and TypeScript share. Only
// the documentation rule differs between the two at this level.
type script struct {
	base
	docOf func(syntax.Node) string
}

// handle covers functions, methods, variable declarators, calls and
// imports. Classes are left to the language-specific Handle.
func (s *script) handle(n syntax.Node, filePath, scope string) string {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		name := n.ChildByField("name")
		if name.IsNull() {
			return scope
		}
		return s.declare(filePath, scope, decl{
			node: n,
			name: name.Text(),
			kind: graph.KindFunction,
			doc:  s.docOf(n),
		})
	case "method_definition":
		name := n.ChildByField("name")
		if t := name.Type(); t != "property_identifier" && t != "private_property_identifier" {
			return scope
		}
		return s.declare(filePath, scope, decl{
			node: n,
			name: name.Text(),
			kind: graph.KindMethod,
			doc:  s.docOf(n),
		})
	case "variable_declarator":
		return s.declarator(n, filePath, scope)
	case "call_expression":
		s.callExpr(n, filePath, scope)
	case "import_statement":
		src := n.ChildByField("source")
		if src.IsNull() {
			clause := childOfType(n, "import_require_clause")
			if src = clause.ChildByField("source"); src.IsNull() {
				src = childOfType(clause, "string")
			}
		}
		if !src.IsNull() {
			s.importModule(filePath, stripQuotes(src.Text()))
		}
	case "export_statement":
		// export ... from "x" re-exports count as imports.
		if src := n.ChildByField("source"); !src.IsNull() {
			s.importModule(filePath, stripQuotes(src.Text()))
		}
	}
	return scope
}

// declarator records `name = value`. A function value yields one function
// entity spanning the function, which becomes the scope of its body; any
// other value yields a variable.
func (s *script) declarator(n syntax.Node, filePath, scope string) string {
	name := n.ChildByField("name")
	if name.Type() != "identifier" {
		return scope
	}
	value := n.ChildByField("value")
	switch value.Type() {
	case "function_expression", "function", "generator_function", "arrow_function":
		return s.declare(filePath, scope, decl{
			node: value,
			name: name.Text(),
			kind: graph.KindFunction,
			doc:  s.docOf(n),
		})
	}
	s.declare(filePath, scope, decl{
		node: n,
		name: name.Text(),
		kind: graph.KindVariable,
	})
	return scope
}

func (s *script) callExpr(n syntax.Node, filePath, scope string) {
	fn := n.ChildByField("function")
	if fn.Type() == "import" || (fn.Type() == "identifier" && fn.Text() == "require") {
		if mod, ok := requireTarget(n); ok {
			s.importModule(filePath, mod)
			return
		}
	}
	switch fn.Type() {
	case "identifier":
		s.call(filePath, scope, fn.Text())
	case "member_expression":
		s.call(filePath, scope, fn.ChildByField("property").Text())
	}
}

// requireTarget returns the module named by the first argument of
// require(...) or import(...) when it is a literal.
func requireTarget(call syntax.Node) (string, bool) {
	arg := call.ChildByField("arguments").NamedChild(0)
	switch arg.Type() {
	case "string":
		return stripQuotes(arg.Text()), true
	case "template_string":
		raw := arg.Text()
		if strings.Contains(raw, "${") {
			return "", false
		}
		return stripQuotes(raw), true
	}
	return "", false
}

// docTarget climbs from a declaration to the statement a doc comment
// precedes: declarators to their declaration, and through export.
func docTarget(n syntax.Node) syntax.Node {
	if n.Type() == "variable_declarator" {
		n = n.Parent()
	}
	if p := n.Parent(); p.Type() == "export_statement" {
		n = p
	}
	return n
}

// jsDoc returns the nearest /** comment among the comments directly
// preceding n.
func jsDoc(n syntax.Node) string {
	for prev := docTarget(n).PrevSibling(); prev.Type() == "comment"; prev = prev.PrevSibling() {
		if text := prev.Text(); strings.HasPrefix(text, "/**") {
			return text
		}
	}
	return ""
}

// JavaScript extracts functions, classes, methods, variables, calls,
// imports and require() calls. Defaults: flat ids, global lookup.
type JavaScript struct {
	script
}

// NewJavaScript returns a JavaScript extractor writing to g.
func NewJavaScript(g Graph, opts ...Option) *JavaScript {
	return &JavaScript{script: script{
		base:  newBase(g, settings{naming: Flat}, opts),
		docOf: jsDoc,
	}}
}

// Handle implements Extractor.
func (j *JavaScript) Handle(n syntax.Node, filePath, scope string) string {
	if n.Type() != "class_declaration" {
		return j.handle(n, filePath, scope)
	}
	name := n.ChildByField("name")
	if name.IsNull() {
		return scope
	}
	id := j.declare(filePath, scope, decl{
		node: n,
		name: name.Text(),
		kind: graph.KindClass,
		doc:  jsDoc(n),
	})
	if sup := childOfType(n, "class_heritage").NamedChild(0); !sup.IsNull() {
		switch sup.Type() {
		case "identifier":
			j.relate(filePath, id, sup.Text(), graph.RelationInherits)
		case "member_expression":
			j.relate(filePath, id, sup.ChildByField("property").Text(), graph.RelationInherits)
		}
	}
	return id
}
