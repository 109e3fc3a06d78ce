package codemap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// SymbolFilter narrows SearchSymbols. Zero fields match everything.
type SymbolFilter struct {
	Kinds []Kind
	File  string // only entities declared in this file
}

func (f SymbolFilter) match(e *Entity) bool {
	if len(f.Kinds) > 0 {
		ok := false
		for _, k := range f.Kinds {
			if e.Kind == k {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.File != "" {
		if e.Kind == KindModule || fileOfID(e.ID) != f.File {
			return false
		}
	}
	return true
}

// SearchSymbols returns entities whose name matches a glob pattern ("*"
// and "?" wildcards, "[...]" classes, "{a,b}" alternatives), in insertion
// order. File entities are never returned.
func (q *QueryBuilder) SearchSymbols(pattern string, filter SymbolFilter) ([]*Entity, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("codemap: search pattern %q: %w", pattern, err)
	}
	var out []*Entity
	for _, e := range q.g.Nodes() {
		if e.Kind == KindFile || !filter.match(e) {
			continue
		}
		if g.Match(e.Name) {
			out = append(out, e)
		}
	}
	return out, nil
}

// KindCount is the number of entities of one kind.
type KindCount struct {
	Kind  Kind
	Count int
}

// Summary is a high-level overview of the graph.
type Summary struct {
	Files        int
	Entities     int
	Edges        int
	PendingCalls int
	Kinds        []KindCount // descending count, then kind
	TopCalled    []*Entity   // most incoming calls edges first
}

// Summary counts the graph's contents and lists the topN most-called
// entities.
func (q *QueryBuilder) Summary(topN int) *Summary {
	s := &Summary{
		Entities:     q.g.NodeCount(),
		Edges:        q.g.EdgeCount(),
		PendingCalls: len(q.g.PendingCalls()),
	}

	counts := make(map[Kind]int)
	type called struct {
		e *Entity
		n int
	}
	var calls []called
	for _, e := range q.g.Nodes() {
		counts[e.Kind]++
		if e.Kind == KindFile {
			s.Files++
		}
		n := 0
		for _, r := range q.g.InEdges(e.ID) {
			if r.Kind == RelationCalls {
				n++
			}
		}
		if n > 0 {
			calls = append(calls, called{e, n})
		}
	}

	for k, n := range counts {
		s.Kinds = append(s.Kinds, KindCount{Kind: k, Count: n})
	}
	sort.Slice(s.Kinds, func(i, j int) bool {
		if s.Kinds[i].Count != s.Kinds[j].Count {
			return s.Kinds[i].Count > s.Kinds[j].Count
		}
		return s.Kinds[i].Kind < s.Kinds[j].Kind
	})

	sort.SliceStable(calls, func(i, j int) bool { return calls[i].n > calls[j].n })
	for i := 0; i < len(calls) && i < topN; i++ {
		s.TopCalled = append(s.TopCalled, calls[i].e)
	}
	return s
}

// fileOfID returns the id prefix before the first ':'.
func fileOfID(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		return id[:i]
	}
	return id
}
