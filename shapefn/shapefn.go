// Package shapefn builds particle-node interactions and evaluates linear and
// boundary-aware cubic B-spline weights over them.
package shapefn

import (
	"fmt"

	"github.com/pthm-cable/mudokon/grid"
	"github.com/pthm-cable/mudokon/parallel"
	"github.com/pthm-cable/mudokon/simerr"
	"github.com/pthm-cable/mudokon/tensor"
)

// ShapeFunction owns the interaction index and per-interaction weights for a
// fixed particle count. Buffers are reused between steps.
type ShapeFunction struct {
	Kind Kind
	Dim  int

	*Interactions
	Weights []float64
	Grads   []tensor.Vec3

	eval Evaluator
	pool *parallel.Pool
}

// New allocates a shape function for numParticles particles.
func New(kind Kind, numParticles, dim int) (*ShapeFunction, error) {
	if dim < 1 || dim > 3 {
		return nil, simerr.Config("dim", dim, "must be 1, 2 or 3")
	}
	if kind != Linear && kind != Cubic {
		return nil, simerr.Config("shape.kind", kind, "unknown shape function")
	}
	if numParticles < 0 {
		return nil, simerr.Config("particles", numParticles, "must not be negative")
	}
	sf := &ShapeFunction{
		Kind:         kind,
		Dim:          dim,
		Interactions: newInteractions(kind, dim, numParticles),
		eval:         NewEvaluator(kind),
	}
	sf.Resize(numParticles)
	return sf, nil
}

// SetPool routes interaction building and evaluation through pool.
func (sf *ShapeFunction) SetPool(pool *parallel.Pool) {
	sf.pool = pool
}

// Pool returns the pool set with SetPool, or nil.
func (sf *ShapeFunction) Pool() *parallel.Pool {
	return sf.pool
}

// Resize changes the particle count, reusing buffers where possible.
func (sf *ShapeFunction) Resize(numParticles int) {
	sf.Interactions.resize(numParticles)
	n := sf.Interactions.Len()
	if cap(sf.Weights) < n {
		sf.Weights = make([]float64, n)
		sf.Grads = make([]tensor.Vec3, n)
	}
	sf.Weights = sf.Weights[:n]
	sf.Grads = sf.Grads[:n]
}

// NumParticles is the particle count the buffers are sized for.
func (sf *ShapeFunction) NumParticles() int {
	if sf.S == 0 {
		return 0
	}
	return sf.Interactions.Len() / sf.S
}

// Validate checks that the grid matches the shape function's dimension and is
// wide enough on every axis for the stencil.
func (sf *ShapeFunction) Validate(g *grid.Grid) error {
	if g.Dim != sf.Dim {
		return simerr.Mismatch("grid dim", sf.Dim, g.Dim)
	}
	w := sf.Kind.Width()
	for i := 0; i < g.Dim; i++ {
		if g.Size[i] < w {
			return simerr.Config("grid.size", g.Size, fmt.Sprintf("%s stencil needs at least %d nodes per axis", sf.Kind, w))
		}
	}
	return nil
}

// ComputeInteractions rebuilds hashes and distances for positions.
func (sf *ShapeFunction) ComputeInteractions(g *grid.Grid, positions []tensor.Vec3) error {
	if len(positions) != sf.NumParticles() {
		return simerr.Mismatch("particle count", sf.NumParticles(), len(positions))
	}
	if g.Dim != sf.Dim {
		return simerr.Mismatch("grid dim", sf.Dim, g.Dim)
	}
	sf.Interactions.Build(g, positions, sf.pool)
	return nil
}

// EvaluateWeights fills Weights and Grads from the current interactions.
// Each interaction reads the species of the node it touches; sentinel
// interactions get zero weight and gradient.
func (sf *ShapeFunction) EvaluateWeights(g *grid.Grid) {
	sentinel := g.Sentinel()
	dim, inv := sf.Dim, g.InvSpacing
	sf.pool.For(sf.Interactions.Len(), func(_, start, end int) {
		for i := start; i < end; i++ {
			h := sf.Hashes[i]
			if h == sentinel {
				sf.Weights[i] = 0
				sf.Grads[i] = tensor.Vec3{}
				continue
			}
			sf.Weights[i], sf.Grads[i] = sf.eval.Evaluate(sf.Dist[i], g.Species[h], dim, inv)
		}
	})
}

// Calculate runs ComputeInteractions then EvaluateWeights.
func (sf *ShapeFunction) Calculate(g *grid.Grid, positions []tensor.Vec3) error {
	if err := sf.ComputeInteractions(g, positions); err != nil {
		return err
	}
	sf.EvaluateWeights(g)
	return nil
}

// Orphans lists particles with no valid interaction, i.e. entirely outside
// the grid.
func (sf *ShapeFunction) Orphans(g *grid.Grid) []int {
	var out []int
	sentinel := g.Sentinel()
	for p := 0; p < sf.NumParticles(); p++ {
		orphan := true
		for k := 0; k < sf.S; k++ {
			if sf.Hashes[p*sf.S+k] != sentinel {
				orphan = false
				break
			}
		}
		if orphan {
			out = append(out, p)
		}
	}
	return out
}

// WeightSum returns Σ_k N for particle p.
func (sf *ShapeFunction) WeightSum(p int) float64 {
	var s float64
	for k := 0; k < sf.S; k++ {
		s += sf.Weights[p*sf.S+k]
	}
	return s
}

// GradSum returns Σ_k ∇N for particle p.
func (sf *ShapeFunction) GradSum(p int) tensor.Vec3 {
	var s tensor.Vec3
	for k := 0; k < sf.S; k++ {
		s = s.Add(sf.Grads[p*sf.S+k])
	}
	return s
}
