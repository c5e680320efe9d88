package shapeflow

import (
	"github.com/gomlx/gomlx/types"
)

// topoSort orders node IDs so that every edge's source precedes its target
// (Kahn's algorithm). Edges referencing IDs outside the node set are ignored.
//
// Node IDs that cannot be ordered are returned in cyclic: that covers the
// cycle's own members and anything downstream of them, since neither ever
// reaches in-degree zero. The order is deterministic for a given node and
// edge list (seeded and processed in node-list order).
func topoSort(nodes []Node, edges []Edge) (order []string, cyclic types.Set[string]) {
	present := types.MakeSet[string]()
	inDegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		if present.Has(n.ID) {
			continue
		}
		present.Insert(n.ID)
		inDegree[n.ID] = 0
	}

	successors := make(map[string][]string)
	for _, e := range edges {
		if !present.Has(e.Source) || !present.Has(e.Target) {
			continue
		}
		successors[e.Source] = append(successors[e.Source], e.Target)
		inDegree[e.Target]++
	}

	queue := make([]string, 0, len(inDegree))
	queued := types.MakeSet[string]()
	for _, n := range nodes {
		if inDegree[n.ID] == 0 && !queued.Has(n.ID) {
			queue = append(queue, n.ID)
			queued.Insert(n.ID)
		}
	}

	order = make([]string, 0, len(inDegree))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, succ := range successors[id] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	cyclic = types.MakeSet[string]()
	if len(order) != len(inDegree) {
		ordered := types.MakeSet[string]()
		for _, id := range order {
			ordered.Insert(id)
		}
		for id := range inDegree {
			if !ordered.Has(id) {
				cyclic.Insert(id)
			}
		}
	}
	return order, cyclic
}
