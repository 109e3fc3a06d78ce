package extract

import (
	"testing"

	"github.com/jward/codemap/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pySource = `import os, sys.path as sp
from collections import OrderedDict

MAX = 10

class Base:
    """Base doc."""
    def start(self):
        pass

class Child(Base, abc.ABC):
    @staticmethod
    def build():
        return OrderedDict()

    def run(self):
        self.start()
        os.getcwd()

def main():
    c = Child()
    c.run()
`

func TestPython_Declarations(t *testing.T) {
	t.Parallel()
	g := graph.NewStore()
	index(t, g, NewPython(g), "a.py", pySource)

	tests := []struct {
		id    string
		kind  graph.Kind
		start int
		end   int
	}{
		{"a.py:MAX", graph.KindVariable, 4, 4},
		{"a.py:Base", graph.KindClass, 6, 9},
		{"a.py:start", graph.KindMethod, 8, 9},
		{"a.py:Child", graph.KindClass, 11, 18},
		{"a.py:build", graph.KindMethod, 13, 14},
		{"a.py:run", graph.KindMethod, 16, 18},
		{"a.py:main", graph.KindFunction, 20, 22},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			e := g.Node(tt.id)
			require.NotNil(t, e)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.start, e.StartLine)
			assert.Equal(t, tt.end, e.EndLine)
			assert.LessOrEqual(t, e.StartLine, e.EndLine)
		})
	}

	// Locals inside functions are not recorded.
	assert.Nil(t, g.Node("a.py:c"))
}

func TestPython_ContainsAndDocs(t *testing.T) {
	t.Parallel()
	g := graph.NewStore()
	index(t, g, NewPython(g), "a.py", pySource)

	assert.True(t, hasEdge(g, "a.py", "a.py:Base", graph.RelationContains))
	assert.True(t, hasEdge(g, "a.py:Base", "a.py:start", graph.RelationContains))
	assert.True(t, hasEdge(g, "a.py:Child", "a.py:run", graph.RelationContains))
	assert.True(t, hasEdge(g, "a.py", "a.py:MAX", graph.RelationContains))

	assert.Equal(t, `"""Base doc."""`, g.Node("a.py:Base").Documentation)
	assert.Empty(t, g.Node("a.py:main").Documentation)
	assert.Contains(t, g.Node("a.py:main").Snippet, "def main():")
}

func TestPython_Inheritance(t *testing.T) {
	t.Parallel()
	g := graph.NewStore()
	index(t, g, NewPython(g), "a.py", pySource)

	// abc.ABC is never declared, so only Base resolves.
	assert.Equal(t, []string{"a.py:Base"}, edgesOfKind(g, "a.py:Child", graph.RelationInherits))
}

func TestPython_Imports(t *testing.T) {
	t.Parallel()
	g := graph.NewStore()
	index(t, g, NewPython(g), "a.py", pySource)

	assert.Equal(t,
		[]string{"module:os", "module:sys.path", "module:collections"},
		edgesOfKind(g, "a.py", graph.RelationImports))
	assert.Equal(t, graph.KindModule, g.Node("module:collections").Kind)
}

func TestPython_Calls(t *testing.T) {
	t.Parallel()
	g := graph.NewStore()
	index(t, g, NewPython(g), "a.py", pySource)

	assert.True(t, hasEdge(g, "a.py:run", "a.py:start", graph.RelationCalls))
	assert.True(t, hasEdge(g, "a.py:main", "a.py:Child", graph.RelationCalls))
	assert.True(t, hasEdge(g, "a.py:main", "a.py:run", graph.RelationCalls))
	assert.ElementsMatch(t, []string{"OrderedDict", "getcwd"}, pendingCallees(g))
}

func TestPython_FunctionLines(t *testing.T) {
	t.Parallel()
	g := graph.NewStore()
	index(t, g, NewPython(g), "a.py", "\ndef f():\n    pass\n")

	f := g.Node("a.py:f")
	require.NotNil(t, f)
	assert.Equal(t, "f", f.Name)
	assert.Equal(t, graph.KindFunction, f.Kind)
	assert.Equal(t, 2, f.StartLine)
	assert.Equal(t, 3, f.EndLine)
	assert.True(t, hasEdge(g, "a.py", "a.py:f", graph.RelationContains))
}

func TestPython_ForwardReferenceIsDeferred(t *testing.T) {
	t.Parallel()
	g := graph.NewStore()
	src := "def main():\n    helper()\n\ndef helper():\n    pass\n"
	index(t, g, NewPython(g), "a.py", src)

	require.Len(t, g.PendingCalls(), 1)
	assert.Equal(t, graph.PendingCall{FilePath: "a.py", SourceID: "a.py:main", Callee: "helper"}, g.PendingCalls()[0])
	assert.Empty(t, edgesOfKind(g, "a.py:main", graph.RelationCalls))

	assert.Equal(t, 1, g.ResolvePendingCalls())
	assert.True(t, hasEdge(g, "a.py:main", "a.py:helper", graph.RelationCalls))
}

func TestPython_NamingPolicy(t *testing.T) {
	t.Parallel()
	src := "def outer():\n    def inner():\n        pass\n    inner()\n"

	t.Run("flat", func(t *testing.T) {
		g := graph.NewStore()
		index(t, g, NewPython(g), "a.py", src)
		require.NotNil(t, g.Node("a.py:inner"))
		assert.True(t, hasEdge(g, "a.py:outer", "a.py:inner", graph.RelationContains))
		assert.True(t, hasEdge(g, "a.py:outer", "a.py:inner", graph.RelationCalls))
	})

	t.Run("scoped", func(t *testing.T) {
		g := graph.NewStore()
		index(t, g, NewPython(g, WithNaming(ScopeQualified)), "a.py", src)
		assert.Nil(t, g.Node("a.py:inner"))
		require.NotNil(t, g.Node("a.py:outer:inner"))
		assert.True(t, hasEdge(g, "a.py:outer", "a.py:outer:inner", graph.RelationCalls))
	})
}

func TestPython_FlatPolicyCollision(t *testing.T) {
	t.Parallel()
	g := graph.NewStore()
	src := "class A:\n    def run(self):\n        pass\n\nclass B:\n    def run(self):\n        pass\n"
	index(t, g, NewPython(g), "a.py", src)

	// Both methods map to one id; the later declaration wins.
	run := g.Node("a.py:run")
	require.NotNil(t, run)
	assert.Equal(t, 6, run.StartLine)
	assert.True(t, hasEdge(g, "a.py:A", "a.py:run", graph.RelationContains))
	assert.True(t, hasEdge(g, "a.py:B", "a.py:run", graph.RelationContains))
}

func TestPython_AmbiguousCalleeIsDeferred(t *testing.T) {
	t.Parallel()
	g := graph.NewStore()
	x := NewPython(g)
	index(t, g, x, "a.py", "def run():\n    pass\n")
	index(t, g, x, "b.py", "def run():\n    pass\n")
	index(t, g, x, "c.py", "def go():\n    run()\n")

	assert.Empty(t, edgesOfKind(g, "c.py:go", graph.RelationCalls))
	assert.Equal(t, []string{"run"}, pendingCallees(g))
}
