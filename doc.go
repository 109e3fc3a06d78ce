// Package codemap builds a lightweight code-structure graph from Python,
// JavaScript, TypeScript and Go sources. Files are parsed with tree-sitter
// and each language's extractor records declarations (functions, classes,
// structs, interfaces, enums, type aliases, methods, top-level variables)
// as entities and their relationships (contains, calls, imports, inherits,
// implements) as edges.
//
// # Usage
//
//	e, err := codemap.New(codemap.WithParallel(true))
//	if err != nil { ... }
//
//	ctx := context.Background()
//	err = e.IndexDirectory(ctx, "path/to/project")
//	resolved := e.ResolvePending()
//
//	q := e.Query()
//	fn := q.EnclosingEntity("path/to/project/main.go", 42)
//	callers := q.Callers(fn.ID)
//
// # Identifiers
//
// Entity ids are "<file>:<name>" under the flat naming policy (the default
// for Python, JavaScript and Go) and "<scope>:<name>" under the
// scope-qualified policy (the default for TypeScript). [WithNaming]
// overrides the policy per language. Under the flat policy nested
// declarations with the same name share an id and the later one wins.
//
// # Deferred calls
//
// A call whose callee cannot be resolved when its file is traversed is
// queued rather than dropped. Indexing never retries the queue; call
// [Engine.ResolvePending] once all files are indexed.
//
// # Persistence
//
// [Engine.Save] and [Engine.Load] write and read a JSON snapshot
// ({"nodes": [...], "edges": [...]}) in a directory. [Engine.Export] and
// [Engine.Import] use a SQLite archive that also carries deferred calls
// and per-file bookkeeping.
//
// # Scripts
//
// [Engine.RunScript] and [Engine.RunSource] evaluate Risor scripts with
// read-only graph query functions. See the internal/runtime package for
// the globals exposed to scripts.
package codemap
