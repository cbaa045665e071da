package shapefn

import (
	"math"

	"github.com/pthm-cable/mudokon/grid"
	"github.com/pthm-cable/mudokon/parallel"
	"github.com/pthm-cable/mudokon/tensor"
)

// Interactions is the flattened particle-node pairing for one step.
// Entry p*S+k pairs particle p with stencil slot k.
type Interactions struct {
	Stencil [][3]int
	S       int // stencil size

	IDs    []int
	Hashes []int         // node hash, or the grid sentinel when out of range
	Dist   []tensor.Vec3 // (pos-origin)/h - node coordinate, padded
}

func newInteractions(kind Kind, dim, numParticles int) *Interactions {
	stencil := kind.Stencil(dim)
	ia := &Interactions{
		Stencil: stencil,
		S:       len(stencil),
	}
	ia.resize(numParticles)
	return ia
}

func (ia *Interactions) resize(numParticles int) {
	n := numParticles * ia.S
	if cap(ia.IDs) < n {
		ia.IDs = make([]int, n)
		ia.Hashes = make([]int, n)
		ia.Dist = make([]tensor.Vec3, n)
	}
	ia.IDs = ia.IDs[:n]
	ia.Hashes = ia.Hashes[:n]
	ia.Dist = ia.Dist[:n]
	for i := range ia.IDs {
		ia.IDs[i] = i
	}
}

// Len is the total interaction count.
func (ia *Interactions) Len() int {
	return len(ia.IDs)
}

// Particle returns the particle index of interaction i.
func (ia *Interactions) Particle(i int) int {
	return i / ia.S
}

// Valid reports whether interaction i touches a real node.
func (ia *Interactions) Valid(i int, g *grid.Grid) bool {
	return ia.Hashes[i] != g.Sentinel()
}

// Build fills hashes and distances for every particle/slot pair.
// Positions outside the grid produce sentinel hashes, never an error.
func (ia *Interactions) Build(g *grid.Grid, positions []tensor.Vec3, pool *parallel.Pool) {
	S := ia.S
	pool.For(len(positions), func(_, start, end int) {
		for p := start; p < end; p++ {
			var rel tensor.Vec3
			var base [3]int
			for i := 0; i < g.Dim; i++ {
				rel[i] = (positions[p][i] - g.Origin[i]) * g.InvSpacing
				base[i] = int(math.Floor(rel[i]))
			}

			for k, off := range ia.Stencil {
				var node [3]int
				var d tensor.Vec3
				for i := 0; i < g.Dim; i++ {
					node[i] = base[i] + off[i]
					d[i] = rel[i] - float64(node[i])
				}
				idx := p*S + k
				ia.Hashes[idx], _ = g.Hash(node)
				ia.Dist[idx] = d
			}
		}
	})
}

// BuildInteractions is the standalone form of Interactions.Build: it returns
// fresh distance and hash slices for the given positions.
func BuildInteractions(kind Kind, g *grid.Grid, positions []tensor.Vec3) (dist []tensor.Vec3, hashes []int) {
	ia := newInteractions(kind, g.Dim, len(positions))
	ia.Build(g, positions, nil)
	return ia.Dist, ia.Hashes
}
