// Package grid implements the Eulerian background grid: a regular lattice of
// nodes with per-node mass and momentum accumulators.
//
// Node hashes put axis 0 fastest rather than row-major order. Only the
// layout of node buffers and stencil slots depends on this; every transfer
// sums over the same interactions either way.
package grid

import (
	"fmt"
	"math"

	"github.com/pthm-cable/mudokon/simerr"
	"github.com/pthm-cable/mudokon/tensor"
)

// DefaultSmallMassCutoff is the node mass below which velocities read as zero.
const DefaultSmallMassCutoff = 1e-10

// Grid is a regular lattice covering [Origin, End] with uniform spacing.
//
// Nodes are flattened as hash = i0 + i1*Size[0] + i2*Size[0]*Size[1].
type Grid struct {
	Dim        int
	Origin     tensor.Vec3
	End        tensor.Vec3
	Spacing    float64
	InvSpacing float64
	Size       [3]int // node count per axis, 1 on inactive axes
	NumNodes   int

	// Node buffers (length NumNodes), reset every step
	Mass     []float64
	Moment   []tensor.Vec3
	MomentNT []tensor.Vec3 // moment after the force update

	// Species persists across steps
	Species []Species

	SmallMassCutoff float64
}

// MaxNodes caps the node count of a single grid.
const MaxNodes = 1 << 27

// Shape returns the node count per axis of the lattice covering
// [origin, end] at spacing, padded with 1 on inactive axes. Non-finite
// coordinates, empty axes and lattices above MaxNodes are rejected.
func Shape(dim int, origin, end tensor.Vec3, spacing float64) ([3]int, error) {
	size := [3]int{1, 1, 1}
	if dim < 1 || dim > 3 {
		return size, simerr.Config("dim", dim, "must be 1, 2 or 3")
	}
	if !(spacing > 0) || math.IsInf(spacing, 0) {
		return size, simerr.Config("spacing", spacing, "must be positive and finite")
	}

	origin, end = origin.Truncate(dim), end.Truncate(dim)
	if !origin.IsFinite() {
		return size, simerr.Config("origin", origin, "must be finite")
	}
	if !end.IsFinite() {
		return size, simerr.Config("end", end, "must be finite")
	}

	inv := 1 / spacing
	total := 1.0
	var counts [3]float64
	for i := 0; i < dim; i++ {
		extent := end[i] - origin[i]
		if !(extent > 0) {
			return size, simerr.Config("end", end, "must exceed origin on every axis")
		}
		cells := extent * inv
		// Tolerate round-off so (1-0)/0.5 yields exactly two cells.
		counts[i] = math.Ceil(cells-1e-9*math.Max(1, cells)) + 1
		total *= counts[i]
	}
	if !(total <= MaxNodes) {
		return size, simerr.Config("spacing", spacing, fmt.Sprintf("gives %g nodes, limit is %d", total, MaxNodes))
	}
	for i := 0; i < dim; i++ {
		size[i] = int(counts[i])
	}
	return size, nil
}

// New validates the geometry and allocates node buffers.
// Only the first dim components of origin and end are read.
func New(dim int, origin, end tensor.Vec3, spacing float64) (*Grid, error) {
	size, err := Shape(dim, origin, end, spacing)
	if err != nil {
		return nil, err
	}

	g := &Grid{
		Dim:             dim,
		Origin:          origin.Truncate(dim),
		End:             end.Truncate(dim),
		Spacing:         spacing,
		InvSpacing:      1 / spacing,
		Size:            size,
		SmallMassCutoff: DefaultSmallMassCutoff,
	}

	g.NumNodes = g.Size[0] * g.Size[1] * g.Size[2]
	g.Mass = make([]float64, g.NumNodes)
	g.Moment = make([]tensor.Vec3, g.NumNodes)
	g.MomentNT = make([]tensor.Vec3, g.NumNodes)
	g.Species = make([]Species, g.NumNodes)

	return g, nil
}

// Sentinel is the hash assigned to interactions outside the grid.
func (g *Grid) Sentinel() int {
	return g.NumNodes
}

// Hash flattens a node coordinate. It returns false when any active axis is
// out of range.
func (g *Grid) Hash(c [3]int) (int, bool) {
	for i := 0; i < g.Dim; i++ {
		if c[i] < 0 || c[i] >= g.Size[i] {
			return g.NumNodes, false
		}
	}
	return c[0] + c[1]*g.Size[0] + c[2]*g.Size[0]*g.Size[1], true
}

// Coord is the inverse of Hash.
func (g *Grid) Coord(hash int) [3]int {
	nx, ny := g.Size[0], g.Size[1]
	return [3]int{hash % nx, (hash / nx) % ny, hash / (nx * ny)}
}

// NodePosition returns the physical position of a node.
func (g *Grid) NodePosition(hash int) tensor.Vec3 {
	c := g.Coord(hash)
	var p tensor.Vec3
	for i := 0; i < g.Dim; i++ {
		p[i] = g.Origin[i] + float64(c[i])*g.Spacing
	}
	return p
}

// Positions returns every node position in hash order.
func (g *Grid) Positions() []tensor.Vec3 {
	out := make([]tensor.Vec3, g.NumNodes)
	for h := range out {
		out[h] = g.NodePosition(h)
	}
	return out
}

// Contains reports whether pos lies inside the closed grid box.
func (g *Grid) Contains(pos tensor.Vec3) bool {
	for i := 0; i < g.Dim; i++ {
		if pos[i] < g.Origin[i] || pos[i] > g.End[i] {
			return false
		}
	}
	return true
}

// Reset zeroes the per-step node buffers. Species are left untouched.
func (g *Grid) Reset() {
	clear(g.Mass)
	clear(g.Moment)
	clear(g.MomentNT)
}

// Velocity returns Moment/Mass, or zero for nodes below the mass cutoff.
func (g *Grid) Velocity(hash int) tensor.Vec3 {
	m := g.Mass[hash]
	if m <= g.SmallMassCutoff {
		return tensor.Vec3{}
	}
	return g.Moment[hash].Scale(1 / m)
}

// VelocityNT returns MomentNT/Mass, or zero for nodes below the mass cutoff.
func (g *Grid) VelocityNT(hash int) tensor.Vec3 {
	m := g.Mass[hash]
	if m <= g.SmallMassCutoff {
		return tensor.Vec3{}
	}
	return g.MomentNT[hash].Scale(1 / m)
}

// TotalMass sums node masses.
func (g *Grid) TotalMass() float64 {
	var sum float64
	for _, m := range g.Mass {
		sum += m
	}
	return sum
}

// TotalMoment sums node moments.
func (g *Grid) TotalMoment() tensor.Vec3 {
	var sum tensor.Vec3
	for _, m := range g.Moment {
		sum = sum.Add(m)
	}
	return sum
}
