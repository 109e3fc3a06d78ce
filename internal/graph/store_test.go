package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fn(id, name string, start, end int) *Entity {
	return &Entity{ID: id, Kind: KindFunction, Name: name, StartLine: start, EndLine: end}
}

// =============================================================================
// Nodes and edges
// =============================================================================

func TestAddNode_InsertAndOverwrite(t *testing.T) {
	t.Parallel()
	s := NewStore()

	s.AddNode(fn("a.py:f", "f", 1, 10))
	s.AddNode(fn("a.py:g", "g", 12, 14))
	s.AddNode(fn("a.py:f", "f", 20, 30))

	require.Equal(t, 2, s.NodeCount())
	assert.Equal(t, 20, s.Node("a.py:f").StartLine)

	// Overwrite keeps the first insertion position.
	nodes := s.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "a.py:f", nodes[0].ID)
	assert.Equal(t, "a.py:g", nodes[1].ID)
}

func TestAddEdge_BothIndices(t *testing.T) {
	t.Parallel()
	s := NewStore()

	e := Relation{Source: "file.py:my_function", Target: "file.py:another_function", Kind: RelationCalls}
	s.AddEdge(e)

	assert.Equal(t, []Relation{e}, s.OutEdges("file.py:my_function"))
	assert.Equal(t, []Relation{e}, s.InEdges("file.py:another_function"))
	assert.Nil(t, s.Node("file.py:my_function"), "edges do not create nodes")
}

func TestAddEdge_NotDeduplicated(t *testing.T) {
	t.Parallel()
	s := NewStore()

	e := Relation{Source: "a", Target: "b", Kind: RelationCalls}
	s.AddEdge(e)
	s.AddEdge(e)

	assert.Len(t, s.OutEdges("a"), 2)
	assert.Len(t, s.InEdges("b"), 2)
	assert.Equal(t, 2, s.EdgeCount())
}

func TestEdges_GroupedBySourceOrder(t *testing.T) {
	t.Parallel()
	s := NewStore()

	s.AddEdge(Relation{Source: "b", Target: "x", Kind: RelationCalls})
	s.AddEdge(Relation{Source: "a", Target: "y", Kind: RelationCalls})
	s.AddEdge(Relation{Source: "b", Target: "z", Kind: RelationCalls})

	got := s.Edges()
	require.Len(t, got, 3)
	assert.Equal(t, "x", got[0].Target)
	assert.Equal(t, "z", got[1].Target)
	assert.Equal(t, "y", got[2].Target)
}

// =============================================================================
// FindEnclosingEntity
// =============================================================================

func TestFindEnclosingEntity_MostSpecific(t *testing.T) {
	t.Parallel()
	s := NewStore()

	s.AddNode(&Entity{ID: "file.py", Kind: KindFile, Name: "file.py"})
	s.AddNode(fn("file.py:my_function", "my_function", 1, 10))
	s.AddNode(fn("file.py:my_function:inner", "inner", 2, 5))

	got := s.FindEnclosingEntity("file.py", 3)
	require.NotNil(t, got)
	assert.Equal(t, "file.py:my_function:inner", got.ID)

	got = s.FindEnclosingEntity("file.py", 8)
	require.NotNil(t, got)
	assert.Equal(t, "file.py:my_function", got.ID)
}

func TestFindEnclosingEntity_NeverFileEntity(t *testing.T) {
	t.Parallel()
	s := NewStore()

	s.AddNode(&Entity{ID: "file.py", Kind: KindFile, Name: "file.py"})
	assert.Nil(t, s.FindEnclosingEntity("file.py", 0))
	assert.Nil(t, s.FindEnclosingEntity("file.py", 4))
}

func TestFindEnclosingEntity_Boundaries(t *testing.T) {
	t.Parallel()
	s := NewStore()
	s.AddNode(fn("a.go:F", "F", 4, 6))

	tests := []struct {
		line int
		want bool
	}{
		{3, false},
		{4, true},
		{5, true},
		{6, true},
		{7, false},
	}
	for _, tt := range tests {
		got := s.FindEnclosingEntity("a.go", tt.line)
		assert.Equal(t, tt.want, got != nil, "line %d", tt.line)
	}
}

func TestFindEnclosingEntity_TieKeepsFirstInserted(t *testing.T) {
	t.Parallel()
	s := NewStore()

	s.AddNode(fn("a.js:first", "first", 3, 5))
	s.AddNode(fn("a.js:second", "second", 3, 5))

	got := s.FindEnclosingEntity("a.js", 4)
	require.NotNil(t, got)
	assert.Equal(t, "a.js:first", got.ID)
}

func TestFindEnclosingEntity_OtherFileIgnored(t *testing.T) {
	t.Parallel()
	s := NewStore()
	s.AddNode(fn("b.py:f", "f", 1, 100))

	assert.Nil(t, s.FindEnclosingEntity("a.py", 5))
}

// =============================================================================
// QuerySymbol
// =============================================================================

func TestQuerySymbol_FileQualified(t *testing.T) {
	t.Parallel()
	s := NewStore()

	node := fn("file.py:my_function", "my_function", 1, 10)
	s.AddNode(node)

	assert.Equal(t, node, s.QuerySymbol("my_function", "file.py"))
	assert.Equal(t, node, s.QuerySymbol("my_function", ""))
}

func TestQuerySymbol_AmbiguousIsNotFound(t *testing.T) {
	t.Parallel()
	s := NewStore()

	s.AddNode(fn("a.py:run", "run", 1, 2))
	s.AddNode(fn("b.py:run", "run", 1, 2))

	assert.Nil(t, s.QuerySymbol("run", ""))
	assert.Nil(t, s.QuerySymbol("run", "c.py"))

	got := s.QuerySymbol("run", "b.py")
	require.NotNil(t, got)
	assert.Equal(t, "b.py:run", got.ID)
}

func TestQuerySymbol_Missing(t *testing.T) {
	t.Parallel()
	s := NewStore()
	assert.Nil(t, s.QuerySymbol("nothing", ""))
	assert.Nil(t, s.QuerySymbol("nothing", "a.py"))
}

func TestQuerySymbol_ScopeQualifiedIDsIndexByFile(t *testing.T) {
	t.Parallel()
	s := NewStore()

	s.AddNode(&Entity{ID: "a.ts:Outer:inner", Kind: KindFunction, Name: "inner", StartLine: 2, EndLine: 3})
	got := s.QuerySymbol("inner", "a.ts")
	require.NotNil(t, got)
	assert.Equal(t, "a.ts:Outer:inner", got.ID)
}

// =============================================================================
// Module placeholders and deferred calls
// =============================================================================

func TestEnsureModuleNode_Idempotent(t *testing.T) {
	t.Parallel()
	s := NewStore()

	id1 := s.EnsureModuleNode("os")
	id2 := s.EnsureModuleNode("os")

	assert.Equal(t, "module:os", id1)
	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, s.NodeCount())

	m := s.Node("module:os")
	require.NotNil(t, m)
	assert.Equal(t, KindModule, m.Kind)
	assert.Equal(t, "os", m.Name)
	assert.Equal(t, 0, m.StartLine)
	assert.Equal(t, 0, m.EndLine)
}

func TestResolvePendingCalls(t *testing.T) {
	t.Parallel()
	s := NewStore()

	s.AddNode(fn("a.py:main", "main", 1, 3))
	s.AddPendingCall("a.py", "a.py:main", "helper")
	s.AddPendingCall("a.py", "a.py:main", "missing")
	require.Len(t, s.PendingCalls(), 2)

	// Nothing is resolved until the helper exists.
	assert.Equal(t, 0, s.ResolvePendingCalls())
	assert.Len(t, s.PendingCalls(), 2)

	s.AddNode(fn("a.py:helper", "helper", 5, 6))
	assert.Equal(t, 1, s.ResolvePendingCalls())

	calls := s.OutEdges("a.py:main")
	require.Len(t, calls, 1)
	assert.Equal(t, Relation{Source: "a.py:main", Target: "a.py:helper", Kind: RelationCalls}, calls[0])

	pending := s.PendingCalls()
	require.Len(t, pending, 1)
	assert.Equal(t, "missing", pending[0].Callee)

	// A second pass adds nothing.
	assert.Equal(t, 0, s.ResolvePendingCalls())
	assert.Len(t, s.OutEdges("a.py:main"), 1)
}

func TestReset(t *testing.T) {
	t.Parallel()
	s := NewStore()
	s.AddNode(fn("a.py:f", "f", 1, 2))
	s.AddEdge(Relation{Source: "a.py", Target: "a.py:f", Kind: RelationContains})
	s.AddPendingCall("a.py", "a.py:f", "g")

	s.Reset()

	assert.Equal(t, 0, s.NodeCount())
	assert.Equal(t, 0, s.EdgeCount())
	assert.Empty(t, s.PendingCalls())
	assert.Nil(t, s.QuerySymbol("f", "a.py"))
}
