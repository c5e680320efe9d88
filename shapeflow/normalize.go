package shapeflow

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// This file decodes the editor's exported graph document into engine nodes
// and edges. The editor (React Flow) exports PascalCase type names, scalar
// params that may arrive as strings or one-element lists, Conv2D padding as
// the literal "same", and Input shapes that sometimes carry a leading null
// batch entry. All of that is normalized here so the transfer rules only ever
// see clean values.

type rawGraph struct {
	Version string    `json:"version"`
	Nodes   []rawNode `json:"nodes"`
	Edges   []rawEdge `json:"edges"`
}

type rawNode struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

type rawEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// ParseGraphJSON decodes an editor-exported graph document into engine nodes
// and edges. Unknown block type names are kept as BlockUnknown nodes so the
// transfer library reports them per node instead of the whole document
// failing. Edges referencing unknown node IDs are filtered out.
func ParseGraphJSON(contents []byte) ([]Node, []Edge, error) {
	var raw rawGraph
	if err := json.Unmarshal(contents, &raw); err != nil {
		return nil, nil, errors.Wrap(err, "failed to decode graph JSON")
	}

	nodes := make([]Node, 0, len(raw.Nodes))
	ids := make(map[string]bool, len(raw.Nodes))
	for _, rn := range raw.Nodes {
		if rn.ID == "" || ids[rn.ID] {
			continue
		}
		bt, _ := ParseBlockType(rn.Type)
		nodes = append(nodes, Node{
			ID:     rn.ID,
			Type:   bt,
			Params: normalizeParams(bt, rn.Params),
		})
		ids[rn.ID] = true
	}

	edges := make([]Edge, 0, len(raw.Edges))
	for _, re := range raw.Edges {
		if !ids[re.Source] || !ids[re.Target] {
			continue
		}
		id := re.ID
		if id == "" {
			id = "e-" + re.Source + "-" + re.Target
		}
		edges = append(edges, Edge{ID: id, Source: re.Source, Target: re.Target})
	}
	return nodes, edges, nil
}

// normalizeParams returns a copy of params with editor-specific spellings
// resolved to the scalar forms the transfer rules read.
func normalizeParams(bt BlockType, params map[string]any) Params {
	out := make(Params, len(params))
	for key, value := range params {
		out[key] = value
	}

	switch bt {
	case BlockInput:
		if shape := inputShapeParam(out); shape != nil {
			out["shape"] = shape
		}
	case BlockConv2D:
		// padding: "same" means output spatial dims equal input dims for
		// stride 1, which is kernel_size/2 for odd kernels.
		if pad, ok := out["padding"].(string); ok {
			if strings.EqualFold(strings.TrimSpace(pad), "same") {
				kernel := out.Int("kernel_size", defaultKernelSize)
				out["padding"] = kernel / 2
			}
		}
	}
	return out
}

// inputShapeParam resolves an Input block's feature shape from "shape",
// "input_shape" (possibly with a leading null batch entry, e.g.
// [null, 3, 224, 224]), or a comma-separated string like "1,28,28".
func inputShapeParam(params Params) []int {
	if dims := params.Ints("shape"); dims != nil {
		return dims
	}
	switch raw := params["input_shape"].(type) {
	case []any:
		if len(raw) > 0 && raw[0] == nil {
			raw = raw[1:]
		}
		return intsFromAny(raw)
	case string:
		var dims []int
		for _, part := range strings.Split(raw, ",") {
			if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
				dims = append(dims, n)
			}
		}
		return dims
	}
	return nil
}
