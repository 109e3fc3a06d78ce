package codemap

import (
	"github.com/jward/codemap/internal/extract"
	"github.com/jward/codemap/internal/graph"
	"github.com/jward/codemap/internal/store"
)

// Public aliases for the internal graph, store and extractor types used in
// the Engine and QueryBuilder APIs.

type Entity = graph.Entity
type Relation = graph.Relation
type PendingCall = graph.PendingCall
type Kind = graph.Kind
type RelationKind = graph.RelationKind
type Snapshot = graph.Snapshot
type IndexedFile = store.File
type NamingPolicy = extract.NamingPolicy

const (
	KindFile      = graph.KindFile
	KindModule    = graph.KindModule
	KindFunction  = graph.KindFunction
	KindClass     = graph.KindClass
	KindStruct    = graph.KindStruct
	KindInterface = graph.KindInterface
	KindEnum      = graph.KindEnum
	KindTypeAlias = graph.KindTypeAlias
	KindMethod    = graph.KindMethod
	KindVariable  = graph.KindVariable

	RelationContains   = graph.RelationContains
	RelationCalls      = graph.RelationCalls
	RelationImports    = graph.RelationImports
	RelationInherits   = graph.RelationInherits
	RelationImplements = graph.RelationImplements

	NamingFlat           = extract.Flat
	NamingScopeQualified = extract.ScopeQualified
)
