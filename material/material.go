// Package material defines the constitutive models that turn particle
// velocity gradients into stresses.
package material

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/mudokon/particles"
	"github.com/pthm-cable/mudokon/simerr"
	"github.com/pthm-cable/mudokon/tensor"
)

// Material updates particle stresses from the velocity gradients set by the
// last grid-to-particle transfer.
type Material interface {
	UpdateStress(p *particles.Set, dt float64) error
}

// LinearIsotropicElastic is a small-strain Hookean solid integrated
// incrementally. In 2D it behaves as plane strain: the out-of-plane strain is
// zero but the out-of-plane stress is not.
type LinearIsotropicElastic struct {
	E  float64 // Young's modulus
	Nu float64 // Poisson's ratio

	G      float64 // shear modulus
	K      float64 // bulk modulus
	Lambda float64 // first Lamé parameter
}

// NewLinearIsotropicElastic derives the elastic moduli from E and nu.
func NewLinearIsotropicElastic(e, nu float64) (*LinearIsotropicElastic, error) {
	if !(e > 0) {
		return nil, simerr.Config("material.E", e, "must be positive")
	}
	if !(nu > -1 && nu < 0.5) {
		return nil, simerr.Config("material.nu", nu, "must be in (-1, 0.5)")
	}
	return &LinearIsotropicElastic{
		E:      e,
		Nu:     nu,
		G:      e / (2 * (1 + nu)),
		K:      e / (3 * (1 - 2*nu)),
		Lambda: e * nu / ((1 + nu) * (1 - 2*nu)),
	}, nil
}

// UpdateStress adds λ·tr(Δε)·I + 2G·Δε with Δε = sym(L)·dt.
func (m *LinearIsotropicElastic) UpdateStress(p *particles.Set, dt float64) error {
	if len(p.VelGrads) != p.Len() || len(p.Stresses) != p.Len() {
		return simerr.Mismatch("material buffers", p.Len(), len(p.VelGrads))
	}

	var l, deps, dsigma mat.Dense
	eye := mat.NewDiagDense(3, []float64{1, 1, 1})
	for i := range p.Stresses {
		l.CloneFrom(p.VelGrads[i].Truncate(p.Dim).Dense())

		deps.Add(&l, l.T())
		deps.Scale(0.5*dt, &deps)

		dsigma.Scale(m.Lambda*mat.Trace(&deps), eye)
		deps.Scale(2*m.G, &deps)
		dsigma.Add(&dsigma, &deps)

		p.Stresses[i] = p.Stresses[i].Add(tensor.FromDense(&dsigma))
	}
	return nil
}

// New builds a material from a config name.
func New(kind string, e, nu float64) (Material, error) {
	switch strings.ToLower(kind) {
	case "linear_elastic", "linear":
		return NewLinearIsotropicElastic(e, nu)
	}
	return nil, simerr.Config("material.kind", kind, fmt.Sprintf("unknown material %q", kind))
}
