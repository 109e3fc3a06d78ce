package extract

import (
	"context"
	"testing"

	"github.com/jward/codemap/internal/graph"
	"github.com/jward/codemap/internal/syntax"
	"github.com/stretchr/testify/require"
)

// index parses src as path and walks it with x into g, seeding the file
// entity the way the engine does.
func index(t *testing.T, g *graph.Store, x Extractor, path, src string) {
	t.Helper()
	tree, err := syntax.Parse(context.Background(), path, []byte(src))
	require.NoError(t, err)
	defer tree.Close()

	g.AddNode(&graph.Entity{ID: path, Kind: graph.KindFile, Name: path})
	Walk(x, tree.Root(), path, path)
}

func hasEdge(g *graph.Store, source, target string, kind graph.RelationKind) bool {
	for _, r := range g.OutEdges(source) {
		if r.Target == target && r.Kind == kind {
			return true
		}
	}
	return false
}

func edgesOfKind(g *graph.Store, source string, kind graph.RelationKind) []string {
	var out []string
	for _, r := range g.OutEdges(source) {
		if r.Kind == kind {
			out = append(out, r.Target)
		}
	}
	return out
}

func pendingCallees(g *graph.Store) []string {
	var out []string
	for _, pc := range g.PendingCalls() {
		out = append(out, pc.Callee)
	}
	return out
}
