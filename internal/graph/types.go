package graph

// Kind classifies an entity.
type Kind string

const (
	KindFile      Kind = "file"
	KindModule    Kind = "module"
	KindFunction  Kind = "function"
	KindClass     Kind = "class"
	KindStruct    Kind = "struct"
	KindInterface Kind = "interface"
	KindEnum      Kind = "enum"
	KindTypeAlias Kind = "type_alias"
	KindMethod    Kind = "method"
	KindVariable  Kind = "variable"
)

// RelationKind classifies an edge.
type RelationKind string

const (
	RelationContains   RelationKind = "contains"
	RelationCalls      RelationKind = "calls"
	RelationImports    RelationKind = "imports"
	RelationInherits   RelationKind = "inherits"
	RelationImplements RelationKind = "implements"
)

// ModulePrefix prefixes the id of every module placeholder entity.
const ModulePrefix = "module:"

// Entity is a graph node: a named declaration bound to a line range.
// File entities use the 0,0 range to mean the whole file.
type Entity struct {
	ID            string `json:"id"`
	Kind          Kind   `json:"kind"`
	Name          string `json:"name"`
	StartLine     int    `json:"startLine"`
	EndLine       int    `json:"endLine"`
	Documentation string `json:"documentation"`
	Snippet       string `json:"snippet"`
}

// Span returns EndLine - StartLine.
func (e *Entity) Span() int {
	return e.EndLine - e.StartLine
}

// Relation is a directed, typed edge between two entity ids.
type Relation struct {
	Source string       `json:"source"`
	Target string       `json:"target"`
	Kind   RelationKind `json:"kind"`
}

// PendingCall records a call site whose callee could not be resolved when
// the file was traversed.
type PendingCall struct {
	FilePath string `json:"filePath"`
	SourceID string `json:"sourceId"`
	Callee   string `json:"callee"`
}
