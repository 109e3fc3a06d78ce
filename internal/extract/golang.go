package extract

import (
	"strings"

	"github.com/jward/codemap/internal/graph"
	"github.com/jward/codemap/internal/syntax"
)

var (
	goLeaves = map[string]bool{
		"identifier":       true,
		"type_identifier":  true,
		"field_identifier": true,
	}
	goFields = map[string]string{"selector_expression": "field"}
)

// Golang extracts functions, methods, type declarations, package-level
// variables and constants, calls and imports from Go syntax trees.
// Defaults: flat ids, global lookup.
type Golang struct {
	base
}

// NewGo returns a Go extractor writing to g.
func NewGo(g Graph, opts ...Option) *Golang {
	return &Golang{base: newBase(g, settings{naming: Flat}, opts)}
}

// Handle implements Extractor.
func (x *Golang) Handle(n syntax.Node, filePath, scope string) string {
	switch n.Type() {
	case "function_declaration":
		name := n.ChildByField("name")
		if name.IsNull() {
			return scope
		}
		return x.declare(filePath, scope, decl{
			node: n,
			name: name.Text(),
			kind: graph.KindFunction,
			doc:  goDoc(n),
		})
	case "method_declaration":
		return x.method(n, filePath, scope)
	case "type_declaration":
		for _, spec := range n.NamedChildren() {
			if spec.Type() == "type_spec" || spec.Type() == "type_alias" {
				x.typeSpec(spec, filePath, scope)
			}
		}
	case "var_declaration", "const_declaration":
		if n.Parent().Type() == "source_file" {
			x.values(n, filePath, scope)
		}
	case "call_expression":
		fn := n.ChildByField("function")
		switch fn.Type() {
		case "identifier":
			x.call(filePath, scope, fn.Text())
		case "selector_expression":
			x.call(filePath, scope, rightmostName(fn, goLeaves, goFields))
		}
	case "import_declaration":
		for _, spec := range goImportSpecs(n) {
			x.importModule(filePath, stripQuotes(spec.ChildByField("path").Text()))
		}
	}
	return scope
}

// method records a method under the local name Recv.Method so methods of
// different receivers in one file keep distinct ids. Like every other
// declaration it is contained by the current scope.
func (x *Golang) method(n syntax.Node, filePath, scope string) string {
	name := n.ChildByField("name")
	if name.IsNull() {
		return scope
	}
	d := decl{
		node: n,
		name: name.Text(),
		kind: graph.KindMethod,
		doc:  goDoc(n),
	}
	if recv := goReceiverType(n); recv != "" {
		d.local = recv + "." + d.name
	}
	return x.declare(filePath, scope, d)
}

func (x *Golang) typeSpec(spec syntax.Node, filePath, scope string) {
	name := spec.ChildByField("name")
	typ := spec.ChildByField("type")
	if name.IsNull() || typ.IsNull() {
		return
	}
	d := decl{
		node: spec,
		name: name.Text(),
		kind: graph.KindTypeAlias,
		doc:  goDoc(spec),
	}
	if spec.Type() == "type_spec" {
		switch typ.Type() {
		case "struct_type":
			d.kind = graph.KindStruct
		case "interface_type":
			d.kind = graph.KindInterface
		}
	}
	id := x.declare(filePath, scope, d)

	switch d.kind {
	case graph.KindStruct:
		for _, field := range goEmbeddedFields(typ) {
			x.relate(filePath, id, goTypeName(field), graph.RelationInherits)
		}
	case graph.KindInterface:
		for _, elem := range goEmbeddedInterfaces(typ) {
			x.relate(filePath, id, goTypeName(elem), graph.RelationInherits)
		}
	}
}

// values records every name bound by a package-level var or const block.
func (x *Golang) values(n syntax.Node, filePath, scope string) {
	var specs []syntax.Node
	for _, c := range n.NamedChildren() {
		switch c.Type() {
		case "var_spec", "const_spec":
			specs = append(specs, c)
		case "var_spec_list", "const_spec_list":
			specs = append(specs, c.NamedChildren()...)
		}
	}
	for _, spec := range specs {
		for _, c := range spec.Children() {
			if c.Type() != "identifier" {
				continue
			}
			x.declare(filePath, scope, decl{
				node: spec,
				name: c.Text(),
				kind: graph.KindVariable,
				doc:  goDoc(spec),
			})
		}
	}
}

// goReceiverType returns the bare type name of a method receiver.
func goReceiverType(method syntax.Node) string {
	param := method.ChildByField("receiver").NamedChild(0)
	if param.Type() != "parameter_declaration" {
		return ""
	}
	return goTypeName(param.ChildByField("type"))
}

// goTypeName strips pointers, type arguments and package qualifiers.
func goTypeName(n syntax.Node) string {
	switch n.Type() {
	case "type_identifier", "identifier":
		return n.Text()
	case "pointer_type", "parenthesized_type":
		return goTypeName(n.NamedChild(0))
	case "generic_type":
		return goTypeName(n.ChildByField("type"))
	case "qualified_type":
		return n.ChildByField("name").Text()
	case "field_declaration":
		return goTypeName(n.ChildByField("type"))
	case "type_elem", "constraint_elem":
		return goTypeName(n.NamedChild(0))
	}
	return rightmostName(n, goLeaves, goFields)
}

// goEmbeddedFields returns the field declarations of a struct that have
// no field name.
func goEmbeddedFields(structType syntax.Node) []syntax.Node {
	var out []syntax.Node
	for _, list := range structType.NamedChildren() {
		if list.Type() != "field_declaration_list" {
			continue
		}
		for _, f := range list.NamedChildren() {
			if f.Type() == "field_declaration" && f.ChildByField("name").IsNull() {
				out = append(out, f)
			}
		}
	}
	return out
}

// goEmbeddedInterfaces returns the embedded type elements of an interface,
// skipping method elements and unions.
func goEmbeddedInterfaces(ifaceType syntax.Node) []syntax.Node {
	var out []syntax.Node
	for _, c := range ifaceType.NamedChildren() {
		switch c.Type() {
		case "type_identifier", "qualified_type":
			out = append(out, c)
		case "type_elem", "constraint_elem":
			if c.NamedChildCount() == 1 {
				out = append(out, c)
			}
		}
	}
	return out
}

func goImportSpecs(decl syntax.Node) []syntax.Node {
	var out []syntax.Node
	for _, c := range decl.NamedChildren() {
		switch c.Type() {
		case "import_spec":
			out = append(out, c)
		case "import_spec_list":
			for _, s := range c.NamedChildren() {
				if s.Type() == "import_spec" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// goDoc returns the block of // comments ending on the line directly
// above n. A type or value spec alone in its declaration takes the
// declaration's comment.
func goDoc(n syntax.Node) string {
	if doc := goCommentsAbove(n); doc != "" {
		return doc
	}
	switch n.Type() {
	case "type_spec", "type_alias", "var_spec", "const_spec":
		parent := n.Parent()
		if strings.HasSuffix(parent.Type(), "_list") {
			return ""
		}
		if countType(parent, n.Type()) == 1 {
			return goCommentsAbove(parent)
		}
	}
	return ""
}

func goCommentsAbove(n syntax.Node) string {
	var lines []string
	want := n.StartRow() - 1
	for prev := n.PrevSibling(); prev.Type() == "comment"; prev = prev.PrevSibling() {
		text := prev.Text()
		if !strings.HasPrefix(text, "//") || prev.EndRow() != want {
			break
		}
		lines = append(lines, text)
		want = prev.StartRow() - 1
	}
	if len(lines) == 0 {
		return ""
	}
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return strings.Join(lines, "\n")
}

func countType(n syntax.Node, typ string) int {
	count := 0
	for _, c := range n.NamedChildren() {
		if c.Type() == typ {
			count++
		}
	}
	return count
}
