package codemap

import "github.com/jward/codemap/internal/graph"

// QueryBuilder answers read-only questions about the graph. It holds no
// state of its own, so results always reflect the current graph.
type QueryBuilder struct {
	g *graph.Store
}

// Location is the file and 1-based line range of an entity.
type Location struct {
	File      string
	StartLine int
	EndLine   int
}

// EnclosingEntity returns the most specific non-file entity of path whose
// line range contains line, or nil.
func (q *QueryBuilder) EnclosingEntity(path string, line int) *Entity {
	return q.g.FindEnclosingEntity(path, line)
}

// Symbol looks name up, qualified by path first when one is given. A
// global match is returned only when it is unique.
func (q *QueryBuilder) Symbol(name, path string) *Entity {
	return q.g.QuerySymbol(name, path)
}

// Node returns the entity with the given id, or nil.
func (q *QueryBuilder) Node(id string) *Entity {
	return q.g.Node(id)
}

// Locate returns where the entity id is declared. Module placeholders and
// unknown ids have no location.
func (q *QueryBuilder) Locate(id string) *Location {
	e := q.g.Node(id)
	if e == nil || e.Kind == KindModule {
		return nil
	}
	return &Location{File: fileOfID(id), StartLine: e.StartLine, EndLine: e.EndLine}
}

// Children returns the entities id contains.
func (q *QueryBuilder) Children(id string) []*Entity {
	return q.targets(id, RelationContains)
}

// Callers returns the entities with a calls edge to id.
func (q *QueryBuilder) Callers(id string) []*Entity {
	return q.sources(id, RelationCalls)
}

// Callees returns the entities id calls.
func (q *QueryBuilder) Callees(id string) []*Entity {
	return q.targets(id, RelationCalls)
}

// Parents returns the types id inherits from or implements.
func (q *QueryBuilder) Parents(id string) []*Entity {
	return q.targets(id, RelationInherits, RelationImplements)
}

// Subtypes returns the types that inherit from or implement id.
func (q *QueryBuilder) Subtypes(id string) []*Entity {
	return q.sources(id, RelationInherits, RelationImplements)
}

// Dependencies returns the names of the modules path imports, in import
// order without duplicates.
func (q *QueryBuilder) Dependencies(path string) []string {
	var out []string
	for _, e := range q.targets(path, RelationImports) {
		out = append(out, e.Name)
	}
	return out
}

// Dependents returns the files that import module, in import order
// without duplicates.
func (q *QueryBuilder) Dependents(module string) []string {
	var out []string
	for _, e := range q.sources(graph.ModulePrefix+module, RelationImports) {
		out = append(out, e.ID)
	}
	return out
}

// PendingCalls returns the deferred calls still waiting for a callee.
func (q *QueryBuilder) PendingCalls() []PendingCall {
	return q.g.PendingCalls()
}

// targets follows outgoing edges of the given kinds. Edges are not
// deduplicated in the graph, so results are; endpoints with no entity are
// skipped.
func (q *QueryBuilder) targets(id string, kinds ...RelationKind) []*Entity {
	return q.collect(q.g.OutEdges(id), func(r Relation) string { return r.Target }, kinds)
}

func (q *QueryBuilder) sources(id string, kinds ...RelationKind) []*Entity {
	return q.collect(q.g.InEdges(id), func(r Relation) string { return r.Source }, kinds)
}

func (q *QueryBuilder) collect(edges []Relation, end func(Relation) string, kinds []RelationKind) []*Entity {
	var out []*Entity
	seen := make(map[string]bool)
	for _, r := range edges {
		if !hasKind(kinds, r.Kind) {
			continue
		}
		id := end(r)
		if seen[id] {
			continue
		}
		seen[id] = true
		if e := q.g.Node(id); e != nil {
			out = append(out, e)
		}
	}
	return out
}

func hasKind(kinds []RelationKind, k RelationKind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}
