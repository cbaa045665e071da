package grid

import "fmt"

// NodeType classifies a node along one axis for boundary-aware cubic splines.
// The numeric values index the cubic branch table.
type NodeType uint8

const (
	Interior NodeType = iota
	Boundary
	NearLowBoundary
	NearHighBoundary
)

func (t NodeType) String() string {
	switch t {
	case Interior:
		return "interior"
	case Boundary:
		return "boundary"
	case NearLowBoundary:
		return "near_low"
	case NearHighBoundary:
		return "near_high"
	}
	return fmt.Sprintf("NodeType(%d)", uint8(t))
}

// Species holds a node's classification on each axis. Inactive axes are Interior.
type Species [3]NodeType

// ClassifySpecies marks nodes by their position relative to the grid faces:
// the outermost layer is Boundary, the next one in is NearLow or NearHigh.
// On axes with fewer than four nodes the layers overlap; Boundary wins, then
// NearLow.
func (g *Grid) ClassifySpecies() {
	for h := 0; h < g.NumNodes; h++ {
		c := g.Coord(h)
		var s Species
		for i := 0; i < g.Dim; i++ {
			s[i] = classifyAxis(c[i], g.Size[i])
		}
		g.Species[h] = s
	}
}

func classifyAxis(i, n int) NodeType {
	switch {
	case i == 0 || i == n-1:
		return Boundary
	case i == 1:
		return NearLowBoundary
	case i == n-2:
		return NearHighBoundary
	}
	return Interior
}

// SetSpecies overrides the classification of one node.
func (g *Grid) SetSpecies(hash int, s Species) {
	g.Species[hash] = s
}

// ResetSpecies marks every node Interior.
func (g *Grid) ResetSpecies() {
	clear(g.Species)
}
