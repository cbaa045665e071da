// Package domain discretises a body into material points over a grid.
package domain

import (
	"math"

	"github.com/pthm-cable/mudokon/grid"
	"github.com/pthm-cable/mudokon/particles"
	"github.com/pthm-cable/mudokon/shapefn"
	"github.com/pthm-cable/mudokon/simerr"
	"github.com/pthm-cable/mudokon/tensor"
)

// GaussPoints are the two-point Gauss-Legendre positions as cell fractions.
var GaussPoints = [2]float64{0.2113, 0.7887}

// Margin is the number of cells skipped at the low and high end of every
// axis when seeding.
type Margin struct {
	Low  int
	High int
}

// DefaultMargin keeps seeded material clear of the cubic boundary layers.
var DefaultMargin = Margin{Low: 3, High: 4}

// ComputeVolume returns spacing^dim / ppc.
func ComputeVolume(spacing float64, ppc, dim int) (float64, error) {
	if ppc <= 0 {
		return 0, simerr.Config("ppc", ppc, "must be positive")
	}
	if !(spacing > 0) {
		return 0, simerr.Config("spacing", spacing, "must be positive")
	}
	if dim < 1 || dim > 3 {
		return 0, simerr.Config("dim", dim, "must be 1, 2 or 3")
	}
	return math.Pow(spacing, float64(dim)) / float64(ppc), nil
}

// Discretize assigns every particle the volume of its share of a cell and
// mass = densityRef·volume. It checks that particles, grid and shape function
// agree on dimension and that the stencil fits the grid.
func Discretize(p *particles.Set, g *grid.Grid, sf *shapefn.ShapeFunction, ppc int, densityRef float64) error {
	if p.Dim != g.Dim {
		return simerr.Mismatch("particle dim", g.Dim, p.Dim)
	}
	if sf.NumParticles() != p.Len() {
		return simerr.Mismatch("shape function particles", p.Len(), sf.NumParticles())
	}
	if err := sf.Validate(g); err != nil {
		return err
	}
	if !(densityRef > 0) {
		return simerr.Config("density", densityRef, "must be positive")
	}

	vol, err := ComputeVolume(g.Spacing, ppc, g.Dim)
	if err != nil {
		return err
	}
	for i := range p.Volumes {
		p.Volumes[i] = vol
		p.Volumes0[i] = vol
		p.Masses[i] = densityRef * vol
	}
	return nil
}

// FillDomain places 2^dim Gauss points in every cell whose lower corner node
// index lies in [margin.Low, Size-margin.High) on each active axis. Output is
// ordered by cell (axis 0 fastest) and then by Gauss point.
func FillDomain(g *grid.Grid, margin Margin) []tensor.Vec3 {
	var lo, hi [3]int
	for i := 0; i < 3; i++ {
		lo[i], hi[i] = 0, 1
	}
	for i := 0; i < g.Dim; i++ {
		lo[i] = margin.Low
		hi[i] = g.Size[i] - margin.High
		if hi[i] <= lo[i] {
			return nil
		}
	}

	corners := 1 << g.Dim
	var out []tensor.Vec3
	for k := lo[2]; k < hi[2]; k++ {
		for j := lo[1]; j < hi[1]; j++ {
			for i := lo[0]; i < hi[0]; i++ {
				h, _ := g.Hash([3]int{i, j, k})
				base := g.NodePosition(h)
				for c := 0; c < corners; c++ {
					pos := base
					for a := 0; a < g.Dim; a++ {
						pos[a] += GaussPoints[(c>>a)&1] * g.Spacing
					}
					out = append(out, pos)
				}
			}
		}
	}
	return out
}
