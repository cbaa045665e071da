package transfer

import (
	"github.com/pthm-cable/mudokon/grid"
	"github.com/pthm-cable/mudokon/particles"
	"github.com/pthm-cable/mudokon/shapefn"
	"github.com/pthm-cable/mudokon/simerr"
	"github.com/pthm-cable/mudokon/tensor"
)

// p2g accumulator layout per node: mass, moment[3], force[3]
const p2gComps = 7

func checkParticles(p *particles.Set, g *grid.Grid, sf *shapefn.ShapeFunction) error {
	if p.Dim != g.Dim {
		return simerr.Mismatch("particle dim", g.Dim, p.Dim)
	}
	return checkLengths(g.NumNodes, p.Len(), sf, g)
}

// ParticleToGrid resets the grid and scatters mass, momentum and internal
// force onto the nodes:
//
//	mass     = Σ m N
//	moment   = Σ m v N
//	force    = -Σ V σ·∇N
//	momentNT = moment + dt·force
//
// External forces such as gravity are applied to MomentNT afterwards.
func (t *Transfer) ParticleToGrid(p *particles.Set, g *grid.Grid, sf *shapefn.ShapeFunction, dt float64) error {
	if err := checkParticles(p, g, sf); err != nil {
		return err
	}
	g.Reset()

	dim := g.Dim
	bufs := t.accumulate(sf, g, p2gComps, func(buf []float64, i, pi, h int) {
		w := sf.Weights[i]
		m := p.Masses[pi]
		vel := p.Velocities[pi]
		f := p.Stresses[pi].MulVec(sf.Grads[i]).Scale(-p.Volumes[pi])

		b := buf[h*p2gComps : (h+1)*p2gComps]
		b[0] += m * w
		for c := 0; c < dim; c++ {
			b[1+c] += m * vel[c] * w
			b[4+c] += f[c]
		}
	})

	for _, buf := range bufs {
		for h := 0; h < g.NumNodes; h++ {
			b := buf[h*p2gComps : (h+1)*p2gComps]
			g.Mass[h] += b[0]
			for c := 0; c < dim; c++ {
				g.Moment[h][c] += b[1+c]
				g.MomentNT[h][c] += b[1+c] + dt*b[4+c]
			}
		}
	}
	return nil
}

// GridToParticle updates particle velocity, position, velocity gradient,
// deformation gradient and volume from the node momenta.
//
// Velocities blend PIC and FLIP: v = (1-alpha)·v_pic + alpha·(v + Δv), where
// v_pic = Σ N v_nt and Δv = Σ N (v_nt - v_node). Positions advance with v_pic.
func (t *Transfer) GridToParticle(p *particles.Set, g *grid.Grid, sf *shapefn.ShapeFunction, dt, alpha float64) error {
	if err := checkParticles(p, g, sf); err != nil {
		return err
	}
	if alpha < 0 || alpha > 1 {
		return simerr.Config("flip_ratio", alpha, "must be in [0, 1]")
	}

	t.nodeVelNT = resizeVecs(t.nodeVelNT, g.NumNodes)
	t.nodeDV = resizeVecs(t.nodeDV, g.NumNodes)
	t.pool.For(g.NumNodes, func(_, start, end int) {
		for h := start; h < end; h++ {
			vnt := g.VelocityNT(h)
			t.nodeVelNT[h] = vnt
			t.nodeDV[h] = vnt.Sub(g.Velocity(h))
		}
	})

	n := p.Len()
	t.vPic = resizeVecs(t.vPic, n)
	t.dv = resizeVecs(t.dv, n)
	if err := t.Gather(Vectors(t.vPic), Vectors(t.nodeVelNT), sf, g); err != nil {
		return err
	}
	if err := t.Gather(Vectors(t.dv), Vectors(t.nodeDV), sf, g); err != nil {
		return err
	}
	if err := t.GatherGradient(p.VelGrads, t.nodeVelNT, sf, g); err != nil {
		return err
	}

	dim := g.Dim
	identity := tensor.Identity()
	t.pool.For(n, func(_, start, end int) {
		for pi := start; pi < end; pi++ {
			vPic := t.vPic[pi]
			vFlip := p.Velocities[pi].Add(t.dv[pi])
			p.Velocities[pi] = vPic.Scale(1 - alpha).Add(vFlip.Scale(alpha)).Truncate(dim)
			p.Positions[pi] = p.Positions[pi].Add(vPic.Scale(dt)).Truncate(dim)

			L := p.VelGrads[pi].Truncate(dim)
			p.VelGrads[pi] = L

			inc := identity.Add(L.Scale(dt))
			if p.TrackDeformation {
				p.F[pi] = inc.Mul(p.F[pi])
				p.Volumes[pi] = p.F[pi].Det() * p.Volumes0[pi]
			} else {
				p.Volumes[pi] *= inc.Det()
			}
		}
	})
	return nil
}

func resizeVecs(v []tensor.Vec3, n int) []tensor.Vec3 {
	if cap(v) < n {
		return make([]tensor.Vec3, n)
	}
	return v[:n]
}
