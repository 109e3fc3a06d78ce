package codemap

// TypeRelation is one neighbour in a type hierarchy.
type TypeRelation struct {
	Entity *Entity
	Kind   RelationKind // inherits or implements
}

// TypeHierarchy combines the inherits and implements edges around one
// type.
type TypeHierarchy struct {
	Entity        *Entity
	Extends       []*TypeRelation // types this one inherits from
	Implements    []*TypeRelation // interfaces this one implements
	ExtendedBy    []*TypeRelation // types inheriting from this one
	ImplementedBy []*TypeRelation // types implementing this one
}

// TypeHierarchy returns the direct hierarchy of id, or nil when id is not
// an entity.
func (q *QueryBuilder) TypeHierarchy(id string) *TypeHierarchy {
	e := q.g.Node(id)
	if e == nil {
		return nil
	}
	h := &TypeHierarchy{Entity: e}
	for _, p := range q.targets(id, RelationInherits) {
		h.Extends = append(h.Extends, &TypeRelation{Entity: p, Kind: RelationInherits})
	}
	for _, p := range q.targets(id, RelationImplements) {
		h.Implements = append(h.Implements, &TypeRelation{Entity: p, Kind: RelationImplements})
	}
	for _, c := range q.sources(id, RelationInherits) {
		h.ExtendedBy = append(h.ExtendedBy, &TypeRelation{Entity: c, Kind: RelationInherits})
	}
	for _, c := range q.sources(id, RelationImplements) {
		h.ImplementedBy = append(h.ImplementedBy, &TypeRelation{Entity: c, Kind: RelationImplements})
	}
	return h
}
