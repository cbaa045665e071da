package boundary

import (
	"fmt"
	"math"

	"github.com/pthm-cable/mudokon/config"
	"github.com/pthm-cable/mudokon/grid"
	"github.com/pthm-cable/mudokon/parallel"
	"github.com/pthm-cable/mudokon/particles"
	"github.com/pthm-cable/mudokon/shapefn"
	"github.com/pthm-cable/mudokon/tensor"
)

// FromConfig builds the scene for a run: gravity and walls from cfg, then
// every section of sc (which may be nil). Rigid bodies use kind.
func FromConfig(cfg *config.Config, sc *config.SceneConfig, g *grid.Grid, kind shapefn.Kind, pool *parallel.Pool) (*Scene, error) {
	s := NewScene(pool)

	if cfg.Derived.Gravity != (tensor.Vec3{}) {
		s.AddGravity("gravity", cfg.Derived.Gravity)
	}
	if cfg.Walls.Layers > 0 {
		if _, err := s.AddDirichletBox(DirichletBox{Name: "walls", Layers: cfg.Walls.Layers, Slip: cfg.Walls.Slip}); err != nil {
			return nil, err
		}
	}
	if sc == nil {
		return s, nil
	}

	for _, box := range sc.DirichletBoxes {
		if _, err := s.AddDirichletBox(DirichletBox{Name: box.Name, Layers: box.Layers, Slip: box.Slip}); err != nil {
			return nil, fmt.Errorf("dirichlet box %q: %w", box.Name, err)
		}
	}
	for i := range sc.RigidBodies {
		rc := &sc.RigidBodies[i]
		rigid, err := rigidLattice(rc, g)
		if err != nil {
			return nil, fmt.Errorf("rigid body %q: %w", rc.Name, err)
		}
		if _, err := s.AddRigidBody(rc.Name, rigid, kind, rc.Mu); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// rigidLattice fills the configured box with a regular lattice of
// Resolution particles per grid cell along each axis, placed at sub-cell
// centres.
func rigidLattice(rc *config.RigidBodyConfig, g *grid.Grid) (*particles.Set, error) {
	origin, width, vel := rc.Origin(), rc.Width(), rc.Velocity()

	var n [3]int
	for i := 0; i < 3; i++ {
		n[i] = 1
	}
	for i := 0; i < g.Dim; i++ {
		n[i] = int(math.Ceil(width[i]/g.Spacing*float64(rc.Resolution) - 1e-9))
		if n[i] < 1 {
			n[i] = 1
		}
	}

	pos := make([]tensor.Vec3, 0, n[0]*n[1]*n[2])
	for k := 0; k < n[2]; k++ {
		for j := 0; j < n[1]; j++ {
			for i := 0; i < n[0]; i++ {
				idx := [3]int{i, j, k}
				var x tensor.Vec3
				for a := 0; a < g.Dim; a++ {
					x[a] = origin[a] + (float64(idx[a])+0.5)*width[a]/float64(n[a])
				}
				pos = append(pos, x)
			}
		}
	}

	rigid, err := particles.New(g.Dim, pos)
	if err != nil {
		return nil, err
	}
	rigid.Fill(tensor.Vec3(vel), 0, 0)
	return rigid, nil
}
