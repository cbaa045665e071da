package boundary

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/mudokon/grid"
	"github.com/pthm-cable/mudokon/parallel"
	"github.com/pthm-cable/mudokon/particles"
	"github.com/pthm-cable/mudokon/shapefn"
	"github.com/pthm-cable/mudokon/simerr"
	"github.com/pthm-cable/mudokon/tensor"
	"github.com/pthm-cable/mudokon/transfer"
)

// Scene holds every boundary condition of a run as an entity in an ECS world.
// Apply visits gravity first, then rigid bodies, then Dirichlet boxes; within
// a kind, entities are visited in creation order.
type Scene struct {
	world *ecs.World

	gravityMap *ecs.Map1[Gravity]
	boxMap     *ecs.Map1[DirichletBox]
	rigidMap   *ecs.Map1[RigidBody]

	gravityFilter *ecs.Filter1[Gravity]
	boxFilter     *ecs.Filter1[DirichletBox]
	rigidFilter   *ecs.Filter1[RigidBody]

	transfer *transfer.Transfer
	pool     *parallel.Pool
}

// NewScene creates an empty scene. A nil pool runs serially.
func NewScene(pool *parallel.Pool) *Scene {
	world := ecs.NewWorld()
	return &Scene{
		world:         world,
		gravityMap:    ecs.NewMap1[Gravity](world),
		boxMap:        ecs.NewMap1[DirichletBox](world),
		rigidMap:      ecs.NewMap1[RigidBody](world),
		gravityFilter: ecs.NewFilter1[Gravity](world),
		boxFilter:     ecs.NewFilter1[DirichletBox](world),
		rigidFilter:   ecs.NewFilter1[RigidBody](world),
		transfer:      transfer.New(pool),
		pool:          pool,
	}
}

// AddGravity adds a body force.
func (s *Scene) AddGravity(name string, g tensor.Vec3) ecs.Entity {
	return s.gravityMap.NewEntity(&Gravity{Name: name, G: g})
}

// AddDirichletBox adds a wall condition on the grid faces.
func (s *Scene) AddDirichletBox(box DirichletBox) (ecs.Entity, error) {
	if box.Layers < 1 {
		return ecs.Entity{}, simerr.Config("dirichlet_box.layers", box.Layers, "must be at least 1")
	}
	return s.boxMap.NewEntity(&box), nil
}

// AddRigidBody adds a set of kinematic particles. The particles keep their
// velocities and are advected every Apply.
func (s *Scene) AddRigidBody(name string, rigid *particles.Set, kind shapefn.Kind, mu float64) (ecs.Entity, error) {
	if mu < 0 {
		return ecs.Entity{}, simerr.Config("rigid_body.mu", mu, "must not be negative")
	}
	sf, err := shapefn.New(kind, rigid.Len(), rigid.Dim)
	if err != nil {
		return ecs.Entity{}, fmt.Errorf("rigid body %q: %w", name, err)
	}
	sf.SetPool(s.pool)
	return s.rigidMap.NewEntity(&RigidBody{
		Name:      name,
		Particles: rigid,
		Shape:     sf,
		Mu:        mu,
	}), nil
}

// Remove deletes a boundary condition.
func (s *Scene) Remove(e ecs.Entity) {
	if s.world.Alive(e) {
		s.world.RemoveEntity(e)
	}
}

// RigidBodies returns the rigid bodies in creation order.
func (s *Scene) RigidBodies() []*RigidBody {
	var out []*RigidBody
	query := s.rigidFilter.Query()
	for query.Next() {
		out = append(out, query.Get())
	}
	return out
}

// Counts returns the number of gravity, box and rigid-body entities.
func (s *Scene) Counts() (gravity, boxes, rigid int) {
	gq := s.gravityFilter.Query()
	for gq.Next() {
		gravity++
	}
	bq := s.boxFilter.Query()
	for bq.Next() {
		boxes++
	}
	rq := s.rigidFilter.Query()
	for rq.Next() {
		rigid++
	}
	return
}

// Apply corrects the grid's MomentNT (and, for walls, Moment) in place.
// p and sf are the material particles and their evaluated shape function.
func (s *Scene) Apply(g *grid.Grid, p *particles.Set, sf *shapefn.ShapeFunction, dt float64) error {
	gq := s.gravityFilter.Query()
	for gq.Next() {
		applyGravity(gq.Get(), g, dt)
	}

	var err error
	rq := s.rigidFilter.Query()
	for rq.Next() {
		if err != nil {
			continue
		}
		rb := rq.Get()
		if e := rb.apply(s.transfer, g, p, sf, dt); e != nil {
			err = fmt.Errorf("rigid body %q: %w", rb.Name, e)
		}
	}
	if err != nil {
		return err
	}

	bq := s.boxFilter.Query()
	for bq.Next() {
		bq.Get().apply(g)
	}
	return nil
}

func applyGravity(gr *Gravity, g *grid.Grid, dt float64) {
	for h := 0; h < g.NumNodes; h++ {
		m := g.Mass[h]
		if m <= g.SmallMassCutoff {
			continue
		}
		g.MomentNT[h] = g.MomentNT[h].Add(gr.G.Truncate(g.Dim).Scale(m * dt))
	}
}

func (b *DirichletBox) apply(g *grid.Grid) {
	for h := 0; h < g.NumNodes; h++ {
		c := g.Coord(h)
		for i := 0; i < g.Dim; i++ {
			if c[i] >= b.Layers && c[i] < g.Size[i]-b.Layers {
				continue
			}
			if b.Slip {
				g.Moment[h][i] = 0
				g.MomentNT[h][i] = 0
				continue
			}
			g.Moment[h] = tensor.Vec3{}
			g.MomentNT[h] = tensor.Vec3{}
			break
		}
	}
}
