package main

import "github.com/jward/codemap"

// CLIResult is the top-level JSON envelope for every command that prints a
// result.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIEntity is a JSON-friendly entity.
type CLIEntity struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	Name          string `json:"name"`
	File          string `json:"file,omitempty"`
	StartLine     int    `json:"start_line"`
	EndLine       int    `json:"end_line"`
	Documentation string `json:"documentation,omitempty"`
}

// CLIRelation is a JSON-friendly edge.
type CLIRelation struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

// CLICallGraph is a JSON-friendly transitive call graph.
type CLICallGraph struct {
	Root  string             `json:"root"`
	Nodes []CLICallGraphNode `json:"nodes"`
	Edges []CLIRelation      `json:"edges"`
	Depth int                `json:"depth"`
}

// CLICallGraphNode is an entity in a call graph with its distance from the
// root.
type CLICallGraphNode struct {
	Entity CLIEntity `json:"entity"`
	Depth  int       `json:"depth"`
}

// CLIHierarchy is a JSON-friendly type hierarchy.
type CLIHierarchy struct {
	Entity        CLIEntity   `json:"entity"`
	Extends       []CLIEntity `json:"extends"`
	Implements    []CLIEntity `json:"implements"`
	ExtendedBy    []CLIEntity `json:"extended_by"`
	ImplementedBy []CLIEntity `json:"implemented_by"`
}

// CLIPendingCall is a JSON-friendly deferred call.
type CLIPendingCall struct {
	File   string `json:"file"`
	Source string `json:"source"`
	Callee string `json:"callee"`
}

// CLIKindCount is the number of entities of one kind.
type CLIKindCount struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// CLISummary is a JSON-friendly graph summary.
type CLISummary struct {
	Files        int            `json:"files"`
	Entities     int            `json:"entities"`
	Edges        int            `json:"edges"`
	PendingCalls int            `json:"pending_calls"`
	Kinds        []CLIKindCount `json:"kinds"`
	TopCalled    []CLIEntity    `json:"top_called"`
}

// CLIResolve reports an explicit resolution pass.
type CLIResolve struct {
	Resolved  int `json:"resolved"`
	Remaining int `json:"remaining"`
}

// CLIArchive reports an export or import.
type CLIArchive struct {
	Path     string `json:"path"`
	Entities int    `json:"entities"`
	Edges    int    `json:"edges"`
	Pending  int    `json:"pending"`
}

// entityToCLI converts an entity; file is derived from the id except for
// module placeholders, which have none.
func entityToCLI(e *codemap.Entity, q *codemap.QueryBuilder) CLIEntity {
	out := CLIEntity{
		ID:            e.ID,
		Kind:          string(e.Kind),
		Name:          e.Name,
		StartLine:     e.StartLine,
		EndLine:       e.EndLine,
		Documentation: e.Documentation,
	}
	if loc := q.Locate(e.ID); loc != nil {
		out.File = loc.File
	}
	return out
}

func entitiesToCLI(entities []*codemap.Entity, q *codemap.QueryBuilder) []CLIEntity {
	out := make([]CLIEntity, 0, len(entities))
	for _, e := range entities {
		out = append(out, entityToCLI(e, q))
	}
	return out
}

func relationsToCLI(rels []codemap.Relation) []CLIRelation {
	out := make([]CLIRelation, 0, len(rels))
	for _, r := range rels {
		out = append(out, CLIRelation{Source: r.Source, Target: r.Target, Kind: string(r.Kind)})
	}
	return out
}

func callGraphToCLI(cg *codemap.CallGraph, q *codemap.QueryBuilder) CLICallGraph {
	out := CLICallGraph{
		Root:  cg.Root,
		Nodes: make([]CLICallGraphNode, 0, len(cg.Nodes)),
		Edges: relationsToCLI(cg.Edges),
		Depth: cg.Depth,
	}
	for _, n := range cg.Nodes {
		out.Nodes = append(out.Nodes, CLICallGraphNode{Entity: entityToCLI(n.Entity, q), Depth: n.Depth})
	}
	return out
}

func hierarchyToCLI(h *codemap.TypeHierarchy, q *codemap.QueryBuilder) CLIHierarchy {
	related := func(rels []*codemap.TypeRelation) []CLIEntity {
		out := make([]CLIEntity, 0, len(rels))
		for _, r := range rels {
			out = append(out, entityToCLI(r.Entity, q))
		}
		return out
	}
	return CLIHierarchy{
		Entity:        entityToCLI(h.Entity, q),
		Extends:       related(h.Extends),
		Implements:    related(h.Implements),
		ExtendedBy:    related(h.ExtendedBy),
		ImplementedBy: related(h.ImplementedBy),
	}
}

func pendingToCLI(pending []codemap.PendingCall) []CLIPendingCall {
	out := make([]CLIPendingCall, 0, len(pending))
	for _, pc := range pending {
		out = append(out, CLIPendingCall{File: pc.FilePath, Source: pc.SourceID, Callee: pc.Callee})
	}
	return out
}

func summaryToCLI(s *codemap.Summary, q *codemap.QueryBuilder) CLISummary {
	out := CLISummary{
		Files:        s.Files,
		Entities:     s.Entities,
		Edges:        s.Edges,
		PendingCalls: s.PendingCalls,
		Kinds:        make([]CLIKindCount, 0, len(s.Kinds)),
		TopCalled:    entitiesToCLI(s.TopCalled, q),
	}
	for _, kc := range s.Kinds {
		out.Kinds = append(out.Kinds, CLIKindCount{Kind: string(kc.Kind), Count: kc.Count})
	}
	return out
}
