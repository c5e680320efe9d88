package shapeflow

import (
	"bytes"
	"fmt"
)

// FormatResults renders the per-node propagation results as a plain-text
// table in node-list order, the way the debug CLI prints them. Unresolved
// shapes render as "?".
func FormatResults(nodes []Node, results map[string]ShapeResult) string {
	var buf bytes.Buffer
	w := func(format string, args ...any) {
		if len(args) == 0 {
			buf.WriteString(format)
		} else {
			buf.WriteString(fmt.Sprintf(format, args...))
		}
	}

	w("Shape propagation (%d nodes):\n", len(nodes))
	for _, n := range nodes {
		res := results[n.ID]
		w("\t%s\t%s\t%s -> %s", n.ID, n.Type, res.InputShape, res.OutputShape)
		if res.Error != "" {
			w("\tERROR: %s", res.Error)
		}
		w("\n")
	}
	return buf.String()
}
