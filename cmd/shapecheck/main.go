// shapecheck runs shape propagation over an editor-exported graph JSON file
// and prints the per-node results. It exits non-zero if any node failed to
// resolve, so it can gate graph fixtures in CI.
//
// Usage: shapecheck [flags] graph.json
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/janpfeifer/must"
	"github.com/neuralcanvas/canvas-go/shapeflow"
	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <graph.json>\n", os.Args[0])
		os.Exit(2)
	}

	contents := must.M1(os.ReadFile(flag.Arg(0)))
	nodes, edges, err := shapeflow.ParseGraphJSON(contents)
	must.M(err)
	results := shapeflow.Propagate(nodes, edges)
	fmt.Print(shapeflow.FormatResults(nodes, results))

	for _, res := range results {
		if res.Error != "" {
			os.Exit(1)
		}
	}
}
