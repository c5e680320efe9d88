// Package shapeflow is the shape propagation and connection-validation engine
// behind the NeuralCanvas graph editor.
//
//   - Propagate: walks the whole block graph and computes, per node, the
//     tensor shape flowing out of it or a precise error message.
//   - ValidateConnection: pre-validates one proposed edge before the editor
//     commits it, without a full graph recompute.
//
// The engine holds no state between calls: every invocation is a pure
// function of the node and edge snapshot the editor passes in, so concurrent
// callers are safe by construction.
package shapeflow

import (
	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"
)

// ShapeResult is the per-node outcome of one propagation run.
//
// OutputShape is nil when the node is a sink (Output) or when the shape could
// not be computed; Error is set exactly in the latter case. A node can carry
// a valid InputShape and still fail to produce an OutputShape.
type ShapeResult struct {
	InputShape  Shape
	OutputShape Shape
	Error       string
}

// Propagate computes a ShapeResult for every node in the snapshot.
//
// It is total: every node ID in nodes has an entry in the returned map, for
// any input (empty graphs, edges referencing unknown IDs, cycles), and it
// never panics. One node's error withholds only that node's output; sibling
// branches still resolve.
func Propagate(nodes []Node, edges []Edge) map[string]ShapeResult {
	byID := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		if _, seen := byID[n.ID]; !seen {
			byID[n.ID] = n
		}
	}

	// Reverse adjacency: incoming source IDs per target, in edge-list order.
	// Fan-in operand identity follows this order; reordering the edge array
	// reorders Concat operands. Kept as-is to match the editor's behavior.
	incoming := make(map[string][]string, len(byID))
	for _, e := range edges {
		if _, found := byID[e.Source]; !found {
			continue
		}
		if _, found := byID[e.Target]; !found {
			continue
		}
		incoming[e.Target] = append(incoming[e.Target], e.Source)
	}

	order, cyclic := topoSort(nodes, edges)

	results := make(map[string]ShapeResult, len(byID))

	// Cycle participants never reach the transfer library, so a cyclic
	// subgraph can never look like a disconnected one.
	for id := range cyclic {
		results[id] = ShapeResult{Error: errPartOfCycle}
	}

	for _, id := range order {
		node := byID[id]
		var inputs []Shape
		if node.Type.IsFanIn() {
			for _, src := range incoming[id] {
				if out := results[src].OutputShape; out != nil {
					inputs = append(inputs, out)
				}
			}
		} else {
			// First resolved predecessor wins; the rest are ignored.
			for _, src := range incoming[id] {
				if out := results[src].OutputShape; out != nil {
					inputs = []Shape{out}
					break
				}
			}
		}

		var res ShapeResult
		if len(inputs) > 0 && !node.Type.IsSource() {
			res.InputShape = inputs[0]
		}
		// Guard the transfer dispatch: a bug in a transfer rule must surface
		// as that node's error result, never as a panic out of Propagate.
		err := exceptions.TryCatch[error](func() {
			res.OutputShape, res.Error = applyBlock(node.Type, node.Params, inputs)
		})
		if err != nil {
			res.OutputShape = nil
			res.Error = err.Error()
		}
		klog.V(2).Infof("propagate: %s (%s): %s -> %s error=%q",
			id, node.Type, res.InputShape, res.OutputShape, res.Error)
		results[id] = res
	}

	// Fail-safe: the scheduler guarantees ordered ∪ cyclic covers every node,
	// so this should be unreachable; kept so the totality contract survives a
	// scheduler bug.
	for _, n := range nodes {
		if _, found := results[n.ID]; !found {
			results[n.ID] = ShapeResult{Error: errDisconnected}
		}
	}
	return results
}
