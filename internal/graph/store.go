// Package graph holds the in-memory codemap: entities, relations, the two
// name indices used for symbol lookup, and the queue of deferred calls.
//
// The Store has no internal locking. Mutations must be serialized by the
// caller; read-only queries may run concurrently with each other.
package graph

import "strings"

// Store is a directed multigraph of entities with name indices.
type Store struct {
	nodes map[string]*Entity
	order []string // node ids in first-insertion order

	out       map[string][]Relation
	in        map[string][]Relation
	outOrder  []string // edge sources in first-appearance order
	edgeCount int

	byName        map[string]map[string]struct{}
	byFileAndName map[string]string

	pending []PendingCall
}

// NewStore returns an empty Store.
func NewStore() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset drops every node, edge, index entry, and deferred call.
func (s *Store) Reset() {
	s.nodes = make(map[string]*Entity)
	s.order = nil
	s.out = make(map[string][]Relation)
	s.in = make(map[string][]Relation)
	s.outOrder = nil
	s.edgeCount = 0
	s.byName = make(map[string]map[string]struct{})
	s.byFileAndName = make(map[string]string)
	s.pending = nil
}

// fileOf returns the id prefix before the first ':'.
func fileOf(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		return id[:i]
	}
	return id
}

// AddNode inserts e, overwriting any entity with the same id. Name index
// entries are append-only: overwriting an id with a different name leaves
// the old name mapped to it.
func (s *Store) AddNode(e *Entity) {
	if _, ok := s.nodes[e.ID]; !ok {
		s.order = append(s.order, e.ID)
	}
	s.nodes[e.ID] = e
	s.indexNode(e)
}

func (s *Store) indexNode(e *Entity) {
	if e.Name == "" {
		return
	}
	ids, ok := s.byName[e.Name]
	if !ok {
		ids = make(map[string]struct{})
		s.byName[e.Name] = ids
	}
	ids[e.ID] = struct{}{}
	s.byFileAndName[fileOf(e.ID)+":"+e.Name] = e.ID
}

// AddEdge appends r to the outgoing list of its source and the incoming
// list of its target. Neither endpoint has to exist as a node.
func (s *Store) AddEdge(r Relation) {
	if _, ok := s.out[r.Source]; !ok {
		s.outOrder = append(s.outOrder, r.Source)
	}
	s.out[r.Source] = append(s.out[r.Source], r)
	s.in[r.Target] = append(s.in[r.Target], r)
	s.edgeCount++
}

// Node returns the entity with the given id, or nil.
func (s *Store) Node(id string) *Entity {
	return s.nodes[id]
}

// Nodes returns all entities in insertion order.
func (s *Store) Nodes() []*Entity {
	out := make([]*Entity, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id])
	}
	return out
}

// NodeCount returns the number of entities.
func (s *Store) NodeCount() int {
	return len(s.nodes)
}

// EdgeCount returns the number of edges, duplicates included.
func (s *Store) EdgeCount() int {
	return s.edgeCount
}

// OutEdges returns the edges whose source is id.
func (s *Store) OutEdges(id string) []Relation {
	return s.out[id]
}

// InEdges returns the edges whose target is id.
func (s *Store) InEdges(id string) []Relation {
	return s.in[id]
}

// Edges flattens the outgoing index, grouped by source in the order each
// source first appeared.
func (s *Store) Edges() []Relation {
	out := make([]Relation, 0, s.edgeCount)
	for _, src := range s.outOrder {
		out = append(out, s.out[src]...)
	}
	return out
}

// FindEnclosingEntity returns the most specific non-file entity of
// filePath whose line range contains line. Entities are scanned in
// insertion order and the first one wins a tie on range size, so the result
// is deterministic only as long as insertion order is.
func (s *Store) FindEnclosingEntity(filePath string, line int) *Entity {
	var best *Entity
	for _, id := range s.order {
		e := s.nodes[id]
		if e.Kind == KindFile || !strings.HasPrefix(e.ID, filePath) {
			continue
		}
		if e.StartLine > line || e.EndLine < line {
			continue
		}
		if best == nil || e.Span() < best.Span() {
			best = e
		}
	}
	return best
}

// QuerySymbol looks name up, first qualified by filePath when one is
// given, then globally. A global match is returned only when it is unique.
func (s *Store) QuerySymbol(name, filePath string) *Entity {
	if filePath != "" {
		if id, ok := s.byFileAndName[filePath+":"+name]; ok {
			if e := s.nodes[id]; e != nil {
				return e
			}
		}
	}
	ids := s.byName[name]
	if len(ids) != 1 {
		return nil
	}
	for id := range ids {
		return s.nodes[id]
	}
	return nil
}

// EnsureModuleNode creates the placeholder entity for an imported module
// once and returns its id.
func (s *Store) EnsureModuleNode(name string) string {
	id := ModulePrefix + name
	if _, ok := s.nodes[id]; !ok {
		s.AddNode(&Entity{ID: id, Kind: KindModule, Name: name})
	}
	return id
}

// AddPendingCall queues a call whose callee is not known yet.
func (s *Store) AddPendingCall(filePath, sourceID, callee string) {
	s.pending = append(s.pending, PendingCall{FilePath: filePath, SourceID: sourceID, Callee: callee})
}

// PendingCalls returns the queued deferred calls.
func (s *Store) PendingCalls() []PendingCall {
	return s.pending
}

// ResolvePendingCalls retries every deferred call against the current
// indices. Resolved calls become calls edges and leave the queue; the rest
// stay queued. It returns the number of calls resolved. Indexing never
// runs this pass on its own.
func (s *Store) ResolvePendingCalls() int {
	resolved := 0
	var remaining []PendingCall
	for _, pc := range s.pending {
		target := s.QuerySymbol(pc.Callee, pc.FilePath)
		if target == nil {
			remaining = append(remaining, pc)
			continue
		}
		s.AddEdge(Relation{Source: pc.SourceID, Target: target.ID, Kind: RelationCalls})
		resolved++
	}
	s.pending = remaining
	return resolved
}
