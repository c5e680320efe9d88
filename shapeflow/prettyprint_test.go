package shapeflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatResults(t *testing.T) {
	nodes := []Node{
		testNode("in", BlockInput, Params{"shape": []int{1, 28, 28}}),
		testNode("flat", BlockFlatten, nil),
		testNode("lin", BlockLinear, Params{"in_features": 100}),
	}
	edges := []Edge{testEdge("in", "flat"), testEdge("flat", "lin")}
	results := Propagate(nodes, edges)

	rendered := FormatResults(nodes, results)
	assert.Contains(t, rendered, "Shape propagation (3 nodes):")
	assert.Contains(t, rendered, "in\tInput\t? -> [Batch, 1, 28, 28]")
	assert.Contains(t, rendered, "flat\tFlatten\t[Batch, 1, 28, 28] -> [Batch, 784]")
	assert.Contains(t, rendered, "lin\tLinear\t[Batch, 784] -> ?")
	assert.Contains(t, rendered, "ERROR: ")
	assert.Contains(t, rendered, "100")
}
