package codemap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// findModuleRoot walks up from cwd to find go.mod, returning the repo root.
func findModuleRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find module root")
		}
		dir = parent
	}
}

// fixture returns the absolute path of a file under testdata/go/<level>/src.
func fixture(t *testing.T, level, name string) string {
	t.Helper()
	return filepath.Join(findModuleRoot(t), "testdata", "go", level, "src", name)
}

// indexFixtures indexes the named files of one level in the given order.
func indexFixtures(t *testing.T, e *Engine, level string, names ...string) []string {
	t.Helper()
	var paths []string
	for _, n := range names {
		paths = append(paths, fixture(t, level, n))
	}
	require.NoError(t, e.IndexFiles(context.Background(), paths))
	return paths
}

func assertSpan(t *testing.T, e *Engine, id string, kind Kind, start, end int) {
	t.Helper()
	n := e.Graph().Node(id)
	require.NotNil(t, n, id)
	assert.Equal(t, kind, n.Kind, id)
	assert.Equal(t, start, n.StartLine, id)
	assert.Equal(t, end, n.EndLine, id)
}

func pendingCallees(e *Engine) []string {
	var out []string
	for _, pc := range e.Query().PendingCalls() {
		out = append(out, pc.Callee)
	}
	return out
}

// =============================================================================
// Declarations
// =============================================================================

func TestIntegration_StructsAndInterfaces(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, WithLanguages("go"))
	path := indexFixtures(t, e, "level-02-structs-interfaces", "types.go")[0]

	assertSpan(t, e, path+":Config", KindStruct, 3, 6)
	assertSpan(t, e, path+":Handler", KindInterface, 8, 11)
	assertSpan(t, e, path+":Server", KindStruct, 13, 16)
	assertSpan(t, e, path+":Server.Handle", KindMethod, 18, 20)
	assertSpan(t, e, path+":Server.Close", KindMethod, 22, 24)
	assertSpan(t, e, path+":NewServer", KindFunction, 26, 28)

	q := e.Query()
	assert.Empty(t, q.Children(path+":Server"), "methods belong to the file scope")
	assert.Subset(t, ids(q.Children(path)), []string{path + ":Server.Handle", path + ":Server.Close"})
	assert.Equal(t, []string{path + ":Config"}, ids(q.Parents(path+":Server")), "embedded field")
	assert.Empty(t, q.Subtypes(path+":Handler"), "Go satisfaction is structural")

	enclosing := q.EnclosingEntity(path, 19)
	require.NotNil(t, enclosing)
	assert.Equal(t, "Handle", enclosing.Name)
}

func TestIntegration_EnumsIota(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	path := indexFixtures(t, e, "level-04-enums-iota", "enums.go")[0]

	assertSpan(t, e, path+":Color", KindTypeAlias, 3, 3)
	for _, name := range []string{"Red", "Green", "Blue", "Debug", "Info", "Warn", "Error"} {
		n := e.Graph().Node(path + ":" + name)
		require.NotNil(t, n, name)
		assert.Equal(t, KindVariable, n.Kind, name)
	}
	assertSpan(t, e, path+":Green", KindVariable, 7, 7)
	assert.Contains(t, ids(e.Query().Children(path)), path+":Color.String")
}

func TestIntegration_Embedding(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	path := indexFixtures(t, e, "level-05-embedding", "embed.go")[0]
	q := e.Query()

	assertSpan(t, e, path+":ReadWriter", KindInterface, 11, 14)
	assert.Equal(t, []string{path + ":Reader", path + ":Writer"}, ids(q.Parents(path+":ReadWriter")))
	assert.Equal(t, []string{path + ":MyReader"}, ids(q.Parents(path+":MyReadWriter")))

	h := q.TypeHierarchy(path + ":MyReader")
	require.NotNil(t, h)
	assert.Equal(t, []string{path + ":MyReadWriter"}, relIDs(h.ExtendedBy))
	assert.Empty(t, h.Extends)

	assertSpan(t, e, path+":MyReader.Read", KindMethod, 20, 22)
	assertSpan(t, e, path+":MyReadWriter.Write", KindMethod, 29, 31)
}

func TestIntegration_Generics(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	path := indexFixtures(t, e, "level-06-generics", "generics.go")[0]

	assertSpan(t, e, path+":Pair", KindStruct, 3, 6)
	assertSpan(t, e, path+":NewPair", KindFunction, 8, 10)
	assertSpan(t, e, path+":Map", KindFunction, 12, 18)

	// make, len and the fn parameter have no declaration in the graph.
	assert.ElementsMatch(t, []string{"make", "len", "fn"}, pendingCallees(e))
}

func TestIntegration_MultiFileInterfaces(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	paths := indexFixtures(t, e, "level-08-multi-file-interfaces", "iface.go", "dog.go")
	iface, dog := paths[0], paths[1]

	assertSpan(t, e, iface+":Animal", KindInterface, 3, 6)
	assertSpan(t, e, iface+":Mover", KindInterface, 8, 10)
	assertSpan(t, e, dog+":Dog", KindStruct, 3, 5)
	assertSpan(t, e, dog+":Dog.Name", KindMethod, 7, 9)
	assertSpan(t, e, dog+":Dog.Sound", KindMethod, 11, 13)
	assertSpan(t, e, dog+":Dog.Move", KindMethod, 15, 17)
	assertSpan(t, e, dog+":NewDog", KindFunction, 19, 21)

	q := e.Query()
	assert.Equal(t, []string{dog + ":Dog", dog + ":Dog.Name", dog + ":Dog.Sound", dog + ":Dog.Move", dog + ":NewDog"}, ids(q.Children(dog)))
	assert.Empty(t, q.Children(dog+":Dog"))
	assert.Len(t, q.Children(iface), 2)

	got := q.Symbol("Sound", dog)
	require.NotNil(t, got)
	assert.Equal(t, dog+":Dog.Sound", got.ID)

	enclosing := q.EnclosingEntity(dog, 16)
	require.NotNil(t, enclosing)
	assert.Equal(t, dog+":Dog.Move", enclosing.ID)
}

func TestIntegration_VariadicMultipleReturns(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	path := indexFixtures(t, e, "level-15-variadic-multiple-returns", "funcs.go")[0]

	assertSpan(t, e, path+":Sum", KindFunction, 3, 9)
	assertSpan(t, e, path+":Divide", KindFunction, 11, 16)
	assertSpan(t, e, path+":Swap", KindFunction, 18, 20)
	assert.Empty(t, e.Query().PendingCalls())
}

// =============================================================================
// Calls
// =============================================================================

func TestIntegration_ClosuresHigherOrder(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	path := indexFixtures(t, e, "level-07-closures-higher-order", "closures.go")[0]
	q := e.Query()

	assert.Equal(t, []string{path + ":Adder", path + ":Apply"}, ids(q.Callees(path+":main")))
	assert.Equal(t, []PendingCall{{FilePath: path, SourceID: path + ":Apply", Callee: "fn"}}, q.PendingCalls())
}

func TestIntegration_MethodCallsResolveByName(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	path := indexFixtures(t, e, "level-09-scope-leak-intrafile", "handlers.go")[0]
	q := e.Query()

	str := path + ":Response.String"
	assert.Equal(t, []string{path + ":HandleA", path + ":HandleB"}, ids(q.Callers(str)))

	cg, err := q.TransitiveCallers(str, 2)
	require.NoError(t, err)
	assert.Len(t, cg.Nodes, 3)
	assert.Len(t, cg.Edges, 2)
}

func TestIntegration_ForwardCallsResolveExplicitly(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	// main.go first: every method it calls is declared in types.go.
	paths := indexFixtures(t, e, "level-11-method-value-dispatch", "main.go", "types.go")
	mainGo, typesGo := paths[0], paths[1]
	q := e.Query()

	assert.Equal(t, []string{"Increment", "Value", "SetPrefix", "Info"}, pendingCallees(e))
	assert.Empty(t, q.Callees(mainGo+":UseCounter"))

	assert.Equal(t, 4, e.ResolvePending())
	assert.Empty(t, q.PendingCalls())
	assert.Equal(t, []string{typesGo + ":Counter.Increment", typesGo + ":Counter.Value"}, ids(q.Callees(mainGo+":UseCounter")))
	assert.Equal(t, []string{typesGo + ":Logger.SetPrefix", typesGo + ":Logger.Info"}, ids(q.Callees(mainGo+":UseLogger")))
}

func TestIntegration_AmbiguousCalleesStayPending(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	paths := indexFixtures(t, e, "level-12-type-assertion-flow", "types.go", "main.go")
	typesGo, mainGo := paths[0], paths[1]
	q := e.Query()

	assert.Equal(t, []string{typesGo + ":Circle.String"}, ids(q.Callees(mainGo+":TypeAssert")))
	// Circle.Area and Square.Area share a name, so neither wins.
	assert.Equal(t, []string{"Area", "Area"}, pendingCallees(e))
	assert.Equal(t, 0, e.ResolvePending())
	assert.Len(t, q.PendingCalls(), 2)
}

// =============================================================================
// Whole corpus
// =============================================================================

func TestIntegration_AllFixtures(t *testing.T) {
	t.Parallel()
	root := filepath.Join(findModuleRoot(t), "testdata", "go")

	serial := newTestEngine(t)
	require.NoError(t, serial.IndexDirectory(context.Background(), root))
	parallel := newTestEngine(t, WithParallel(true), WithWorkers(4))
	require.NoError(t, parallel.IndexDirectory(context.Background(), root))

	assert.Equal(t, serial.Graph().Snapshot(), parallel.Graph().Snapshot())
	assert.Len(t, serial.Files(), 13)

	for _, n := range serial.Graph().Nodes() {
		assert.LessOrEqual(t, n.StartLine, n.EndLine, n.ID)
		if n.Kind == KindFile || n.Kind == KindModule {
			continue
		}
		assert.NotEmpty(t, serial.Graph().InEdges(n.ID), "%s has no container", n.ID)
		assert.NotEmpty(t, n.Snippet, n.ID)
	}

	summary := serial.Query().Summary(3)
	assert.Equal(t, 13, summary.Files)
	assert.NotEmpty(t, summary.TopCalled)
}
