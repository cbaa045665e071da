package boundary

import (
	"math"

	"github.com/pthm-cable/mudokon/grid"
	"github.com/pthm-cable/mudokon/particles"
	"github.com/pthm-cable/mudokon/shapefn"
	"github.com/pthm-cable/mudokon/simerr"
	"github.com/pthm-cable/mudokon/tensor"
	"github.com/pthm-cable/mudokon/transfer"
)

// SetParticles replaces the body's particles, e.g. with state restored from a
// snapshot. The count and dimension must match the current set.
func (rb *RigidBody) SetParticles(p *particles.Set) error {
	if p.Dim != rb.Particles.Dim {
		return simerr.Mismatch("rigid body dim", rb.Particles.Dim, p.Dim)
	}
	if p.Len() != rb.Particles.Len() {
		return simerr.Mismatch("rigid body particles", rb.Particles.Len(), p.Len())
	}
	rb.Particles = p
	return nil
}

// apply projects out the material velocity that would move into the rigid
// body at every contact node, then advects the rigid particles.
//
// A node is in contact when a rigid particle touches it. The contact normal
// is the mass gradient of the material, n = Σ m ∇N. Nodes whose relative
// velocity points into the body (Δv·n̂ > 0) get
//
//	v ← v - (Δv·n̂)(n̂ + μ'·(n̂ × ω)),  μ' = min(μ, |Δv × n̂| / Δv·n̂)
//
// with ω the unit vector along Δv × n̂.
func (rb *RigidBody) apply(tr *transfer.Transfer, g *grid.Grid, p *particles.Set, sf *shapefn.ShapeFunction, dt float64) error {
	r := rb.Particles
	if r.Dim != g.Dim {
		return simerr.Mismatch("rigid body dim", g.Dim, r.Dim)
	}
	if err := rb.Shape.Calculate(g, r.Positions); err != nil {
		return err
	}
	rb.resize(g.NumNodes)

	// rigid velocity on the nodes and contact mask
	if err := tr.Scatter(transfer.Vectors(rb.nodeVel), transfer.Vectors(r.Velocities), rb.Shape, g); err != nil {
		return err
	}
	sentinel := g.Sentinel()
	for _, h := range rb.Shape.Hashes {
		if h != sentinel {
			rb.contact[h] = true
		}
	}

	// material surface normals
	if err := tr.ScatterGradient(transfer.Vectors(rb.normals), transfer.Scalars(p.Masses), sf, g); err != nil {
		return err
	}

	for h := 0; h < g.NumNodes; h++ {
		if !rb.contact[h] {
			continue
		}
		m := g.Mass[h]
		if m <= g.SmallMassCutoff {
			continue
		}
		norm := rb.normals[h].Norm()
		if norm == 0 {
			continue
		}
		nHat := rb.normals[h].Scale(1 / norm)

		vel := g.MomentNT[h].Scale(1 / m)
		delta := vel.Sub(rb.nodeVel[h])
		dot := delta.Dot(nHat)
		if !(dot > 0) {
			continue
		}

		cross := delta.Cross(nHat)
		crossNorm := cross.Norm()
		tangent := nHat
		if crossNorm > 0 {
			omega := cross.Scale(1 / crossNorm)
			muPrime := math.Min(rb.Mu, crossNorm/dot)
			tangent = nHat.Add(nHat.Cross(omega).Scale(muPrime))
		}

		vel = vel.Sub(tangent.Scale(dot)).Truncate(g.Dim)
		g.MomentNT[h] = vel.Scale(m)
	}

	for i := range r.Positions {
		r.Positions[i] = r.Positions[i].Add(r.Velocities[i].Scale(dt))
	}
	return nil
}

func (rb *RigidBody) resize(n int) {
	if len(rb.nodeVel) != n {
		rb.nodeVel = make([]tensor.Vec3, n)
		rb.normals = make([]tensor.Vec3, n)
		rb.contact = make([]bool, n)
		return
	}
	clear(rb.nodeVel)
	clear(rb.normals)
	clear(rb.contact)
}
