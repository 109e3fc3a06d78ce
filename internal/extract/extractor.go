// Package extract turns syntax tree nodes into graph entities and
// relations. There is one Extractor per supported language; each looks at a
// single node at a time and returns the scope its children should use.
package extract

import (
	"fmt"
	"strings"

	"github.com/jward/codemap/internal/graph"
	"github.com/jward/codemap/internal/syntax"
)

// Graph is the part of the graph store extractors write through.
type Graph interface {
	AddNode(e *graph.Entity)
	AddEdge(r graph.Relation)
	QuerySymbol(name, filePath string) *graph.Entity
	EnsureModuleNode(name string) string
	AddPendingCall(filePath, sourceID, callee string)
}

// Extractor inspects one syntax node, records whatever it declares or
// references, and returns the scope to thread into the node's children.
type Extractor interface {
	Handle(n syntax.Node, filePath, scope string) string
}

// NamingPolicy decides how entity ids are built.
type NamingPolicy int

const (
	// Flat ids are <file>:<name> regardless of nesting, so nested
	// declarations with the same name share an id.
	Flat NamingPolicy = iota
	// ScopeQualified ids are <scope>:<name> and follow lexical nesting.
	ScopeQualified
)

func (p NamingPolicy) String() string {
	switch p {
	case Flat:
		return "flat"
	case ScopeQualified:
		return "scoped"
	}
	return fmt.Sprintf("NamingPolicy(%d)", int(p))
}

// ParseNamingPolicy accepts "flat" or "scoped".
func ParseNamingPolicy(s string) (NamingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat":
		return Flat, nil
	case "scoped", "scope-qualified", "scope_qualified":
		return ScopeQualified, nil
	}
	return Flat, fmt.Errorf("extract: unknown naming policy %q", s)
}

// ID builds the id of a declaration called local found in scope.
func (p NamingPolicy) ID(filePath, scope, local string) string {
	if p == ScopeQualified {
		if scope == "" {
			scope = filePath
		}
		return scope + ":" + local
	}
	return filePath + ":" + local
}

type settings struct {
	naming     NamingPolicy
	fileLookup bool
}

// Option configures an Extractor.
type Option func(*settings)

// WithNaming sets the id naming policy.
func WithNaming(p NamingPolicy) Option {
	return func(s *settings) { s.naming = p }
}

// WithFileLookup controls whether callees and base types are looked up in
// the current file before falling back to the global name index.
func WithFileLookup(on bool) Option {
	return func(s *settings) { s.fileLookup = on }
}

// New returns the extractor for a canonical language name.
func New(lang string, g Graph, opts ...Option) (Extractor, error) {
	switch lang {
	case syntax.Python:
		return NewPython(g, opts...), nil
	case syntax.JavaScript:
		return NewJavaScript(g, opts...), nil
	case syntax.TypeScript:
		return NewTypeScript(g, opts...), nil
	case syntax.Go:
		return NewGo(g, opts...), nil
	}
	return nil, fmt.Errorf("extract: no extractor for language %q", lang)
}

// base carries the graph and settings plus the recording helpers every
// language shares.
type base struct {
	g Graph
	settings
}

func newBase(g Graph, defaults settings, opts []Option) base {
	s := defaults
	for _, o := range opts {
		o(&s)
	}
	return base{g: g, settings: s}
}

// decl is one recognised declaration.
type decl struct {
	node  syntax.Node // provides the line range and snippet
	name  string
	local string // id suffix; name when empty
	kind  graph.Kind
	doc   string
}

// declare records d and its contains edge and returns the new id.
func (b *base) declare(filePath, scope string, d decl) string {
	local := d.local
	if local == "" {
		local = d.name
	}
	id := b.naming.ID(filePath, scope, local)
	b.g.AddNode(&graph.Entity{
		ID:            id,
		Kind:          d.kind,
		Name:          d.name,
		StartLine:     d.node.StartRow() + 1,
		EndLine:       d.node.EndRow() + 1,
		Documentation: d.doc,
		Snippet:       d.node.Text(),
	})
	if scope != "" {
		b.g.AddEdge(graph.Relation{Source: scope, Target: id, Kind: graph.RelationContains})
	}
	return id
}

func (b *base) lookup(name, filePath string) *graph.Entity {
	if b.fileLookup {
		return b.g.QuerySymbol(name, filePath)
	}
	return b.g.QuerySymbol(name, "")
}

// call records a call from scope to callee, deferring it when the callee
// is not known yet.
func (b *base) call(filePath, scope, callee string) {
	if callee == "" || scope == "" {
		return
	}
	if target := b.lookup(callee, filePath); target != nil {
		b.g.AddEdge(graph.Relation{Source: scope, Target: target.ID, Kind: graph.RelationCalls})
		return
	}
	b.g.AddPendingCall(filePath, scope, callee)
}

// importModule links the file entity to the module placeholder for name.
func (b *base) importModule(filePath, name string) {
	if name == "" {
		return
	}
	target := b.g.EnsureModuleNode(name)
	b.g.AddEdge(graph.Relation{Source: filePath, Target: target, Kind: graph.RelationImports})
}

// relate adds an inherits or implements edge when name resolves to an
// entity other than source. Unresolved names are dropped.
func (b *base) relate(filePath, source, name string, kind graph.RelationKind) {
	if name == "" {
		return
	}
	target := b.lookup(name, filePath)
	if target == nil || target.ID == source {
		return
	}
	b.g.AddEdge(graph.Relation{Source: source, Target: target.ID, Kind: kind})
}

// stripQuotes removes one pair of matching quotes or backticks.
func stripQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	switch s[0] {
	case '"', '\'', '`':
		if s[len(s)-1] == s[0] {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// rightmostName reduces an expression to its last identifier. leaves are
// the identifier node types; fields maps a node type to the field holding
// its rightmost part, such as the attribute of a.b.
func rightmostName(n syntax.Node, leaves map[string]bool, fields map[string]string) string {
	if n.IsNull() {
		return ""
	}
	if leaves[n.Type()] {
		return n.Text()
	}
	if f, ok := fields[n.Type()]; ok {
		if c := n.ChildByField(f); !c.IsNull() {
			return c.Text()
		}
	}
	for i := n.NamedChildCount() - 1; i >= 0; i-- {
		if name := rightmostName(n.NamedChild(i), leaves, fields); name != "" {
			return name
		}
	}
	return ""
}

// childOfType returns the first direct child with one of the given types.
func childOfType(n syntax.Node, types ...string) syntax.Node {
	for _, c := range n.Children() {
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return syntax.Node{}
}
