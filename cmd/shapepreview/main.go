// Shape function preview tool - samples the 1D basis of each node type
// across its support and writes the profile as CSV.
//
// Usage: go run ./cmd/shapepreview -kind cubic > cubic.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/mudokon/grid"
	"github.com/pthm-cable/mudokon/shapefn"
	"github.com/pthm-cable/mudokon/tensor"
)

// BasisSample is one point of a basis profile.
type BasisSample struct {
	NodeType string  `csv:"node_type"`
	X        float64 `csv:"x"`
	N        float64 `csv:"n"`
	DN       float64 `csv:"dn"`
}

var nodeTypes = []grid.NodeType{
	grid.Interior,
	grid.Boundary,
	grid.NearLowBoundary,
	grid.NearHighBoundary,
}

func main() {
	kindName := flag.String("kind", "cubic", "Shape function kind (linear, cubic)")
	samples := flag.Int("samples", 101, "Samples per node type across the support")
	output := flag.String("o", "", "Output file (empty = stdout)")
	flag.Parse()

	kind, err := shapefn.ParseKind(*kindName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *samples < 2 {
		fmt.Fprintln(os.Stderr, "samples must be at least 2")
		os.Exit(1)
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	if err := gocsv.Marshal(sample(kind, *samples), w); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// sample evaluates the basis on n evenly spaced points of [-r, r], where r
// is the support radius of kind. Linear bases ignore the node type, so only
// the interior profile is emitted for them.
func sample(kind shapefn.Kind, n int) []BasisSample {
	radius := 1.0
	types := nodeTypes[:1]
	if kind == shapefn.Cubic {
		radius = 2
		types = nodeTypes
	}

	eval := shapefn.NewEvaluator(kind)
	out := make([]BasisSample, 0, n*len(types))
	for _, t := range types {
		species := grid.Species{t}
		for i := 0; i < n; i++ {
			x := -radius + 2*radius*float64(i)/float64(n-1)
			w, g := eval.Evaluate(tensor.Vec3{x}, species, 1, 1)
			out = append(out, BasisSample{
				NodeType: t.String(),
				X:        x,
				N:        w,
				DN:       g[0],
			})
		}
	}
	return out
}
