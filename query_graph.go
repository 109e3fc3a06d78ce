package codemap

import "fmt"

// maxCallGraphDepth caps transitive call graph traversal.
const maxCallGraphDepth = 100

// CallGraph is the transitive call graph around a root entity.
type CallGraph struct {
	Root  string          // root entity id
	Nodes []CallGraphNode // root first, then BFS order
	Edges []Relation      // calls edges between visited nodes
	Depth int             // deepest level reached, at most the requested depth
}

// CallGraphNode is an entity in a call graph with its BFS distance from
// the root.
type CallGraphNode struct {
	Entity *Entity
	Depth  int
}

// TransitiveCallers returns every entity that reaches id through calls
// edges within maxDepth hops. A maxDepth of 0 returns only the root;
// depths above 100 are capped. Unknown ids return nil.
func (q *QueryBuilder) TransitiveCallers(id string, maxDepth int) (*CallGraph, error) {
	return q.callGraph(id, maxDepth, q.Callers)
}

// TransitiveCallees returns every entity reachable from id through calls
// edges within maxDepth hops.
func (q *QueryBuilder) TransitiveCallees(id string, maxDepth int) (*CallGraph, error) {
	return q.callGraph(id, maxDepth, q.Callees)
}

func (q *QueryBuilder) callGraph(id string, maxDepth int, next func(string) []*Entity) (*CallGraph, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("codemap: call graph: maxDepth must be non-negative, got %d", maxDepth)
	}
	maxDepth = min(maxDepth, maxCallGraphDepth)

	root := q.g.Node(id)
	if root == nil {
		return nil, nil
	}
	result := &CallGraph{
		Root:  id,
		Nodes: []CallGraphNode{{Entity: root, Depth: 0}},
		Edges: []Relation{},
	}

	visited := map[string]int{id: 0}
	queue := []string{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		depth := visited[current]
		if depth >= maxDepth {
			continue
		}
		for _, e := range next(current) {
			if _, seen := visited[e.ID]; seen {
				continue
			}
			visited[e.ID] = depth + 1
			result.Depth = max(result.Depth, depth+1)
			result.Nodes = append(result.Nodes, CallGraphNode{Entity: e, Depth: depth + 1})
			queue = append(queue, e.ID)
		}
	}

	// Edges between visited nodes, once each, in node order.
	type edgeKey struct{ source, target string }
	seen := make(map[edgeKey]bool)
	for _, n := range result.Nodes {
		for _, r := range q.g.OutEdges(n.Entity.ID) {
			if r.Kind != RelationCalls {
				continue
			}
			if _, ok := visited[r.Target]; !ok {
				continue
			}
			k := edgeKey{r.Source, r.Target}
			if seen[k] {
				continue
			}
			seen[k] = true
			result.Edges = append(result.Edges, r)
		}
	}
	return result, nil
}
