package runtime

import (
	"context"
	"fmt"

	"github.com/jward/codemap/internal/graph"
	"github.com/risor-io/risor/object"
)

// Host functions over the graph. Entities and relations cross into Risor
// as maps keyed by their JSON field names.

func makeQuerySymbolFn(g *graph.Store) *object.Builtin {
	return object.NewBuiltin("query_symbol", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 || len(args) > 2 {
			return object.Errorf("query_symbol: expected 1 or 2 arguments, got %d", len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("query_symbol: %v", err)
		}
		file := ""
		if len(args) == 2 {
			if file, err = toString(args[1]); err != nil {
				return object.Errorf("query_symbol: %v", err)
			}
		}
		return entityToObject(g.QuerySymbol(name, file))
	})
}

func makeEnclosingFn(g *graph.Store) *object.Builtin {
	return object.NewBuiltin("enclosing", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("enclosing", 2, len(args))
		}
		file, err := toString(args[0])
		if err != nil {
			return object.Errorf("enclosing: %v", err)
		}
		line, err := toInt64(args[1])
		if err != nil {
			return object.Errorf("enclosing: %v", err)
		}
		return entityToObject(g.FindEnclosingEntity(file, int(line)))
	})
}

func makeNodeFn(g *graph.Store) *object.Builtin {
	return object.NewBuiltin("node", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node", 1, len(args))
		}
		id, err := toString(args[0])
		if err != nil {
			return object.Errorf("node: %v", err)
		}
		return entityToObject(g.Node(id))
	})
}

func makeOutEdgesFn(g *graph.Store) *object.Builtin {
	return makeEdgesFn("out_edges", g.OutEdges)
}

func makeInEdgesFn(g *graph.Store) *object.Builtin {
	return makeEdgesFn("in_edges", g.InEdges)
}

func makeEdgesFn(name string, edges func(string) []graph.Relation) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError(name, 1, len(args))
		}
		id, err := toString(args[0])
		if err != nil {
			return object.Errorf("%s: %v", name, err)
		}
		rels := edges(id)
		results := make([]object.Object, 0, len(rels))
		for _, r := range rels {
			results = append(results, relationToObject(r))
		}
		return object.NewList(results)
	})
}

func makeNodesFn(g *graph.Store) *object.Builtin {
	return object.NewBuiltin("nodes", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) > 1 {
			return object.Errorf("nodes: expected 0 or 1 arguments, got %d", len(args))
		}
		kind := ""
		if len(args) == 1 {
			var err error
			if kind, err = toString(args[0]); err != nil {
				return object.Errorf("nodes: %v", err)
			}
		}
		results := []object.Object{}
		for _, e := range g.Nodes() {
			if kind != "" && string(e.Kind) != kind {
				continue
			}
			results = append(results, entityToObject(e))
		}
		return object.NewList(results)
	})
}

func makePendingCallsFn(g *graph.Store) *object.Builtin {
	return object.NewBuiltin("pending_calls", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("pending_calls", 0, len(args))
		}
		pending := g.PendingCalls()
		results := make([]object.Object, 0, len(pending))
		for _, pc := range pending {
			results = append(results, object.NewMap(map[string]object.Object{
				"filePath": object.NewString(pc.FilePath),
				"sourceId": object.NewString(pc.SourceID),
				"callee":   object.NewString(pc.Callee),
			}))
		}
		return object.NewList(results)
	})
}

func entityToObject(e *graph.Entity) object.Object {
	if e == nil {
		return object.Nil
	}
	return object.NewMap(map[string]object.Object{
		"id":            object.NewString(e.ID),
		"kind":          object.NewString(string(e.Kind)),
		"name":          object.NewString(e.Name),
		"startLine":     object.NewInt(int64(e.StartLine)),
		"endLine":       object.NewInt(int64(e.EndLine)),
		"documentation": object.NewString(e.Documentation),
		"snippet":       object.NewString(e.Snippet),
	})
}

func relationToObject(r graph.Relation) object.Object {
	return object.NewMap(map[string]object.Object{
		"source": object.NewString(r.Source),
		"target": object.NewString(r.Target),
		"kind":   object.NewString(string(r.Kind)),
	})
}

func toInt64(obj object.Object) (int64, error) {
	if i, ok := obj.(*object.Int); ok {
		return i.Value(), nil
	}
	if f, ok := obj.(*object.Float); ok {
		return int64(f.Value()), nil
	}
	return 0, fmt.Errorf("expected int, got %s", obj.Type())
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}
