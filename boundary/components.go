// Package boundary applies boundary conditions to grid node momenta between
// the particle-to-grid and grid-to-particle transfers.
package boundary

import (
	"github.com/pthm-cable/mudokon/particles"
	"github.com/pthm-cable/mudokon/shapefn"
	"github.com/pthm-cable/mudokon/tensor"
)

// Gravity adds a uniform body force to every node.
type Gravity struct {
	Name string
	G    tensor.Vec3
}

// DirichletBox fixes the nodes within Layers of any grid face.
// Stick walls zero the whole momentum, slip walls only the normal component.
type DirichletBox struct {
	Name   string
	Layers int
	Slip   bool
}

// RigidBody is a set of kinematic particles that push material away from
// itself. Mu is the Coulomb friction coefficient of the contact.
type RigidBody struct {
	Name      string
	Particles *particles.Set
	Shape     *shapefn.ShapeFunction
	Mu        float64

	// node scratch, sized to the grid on first use
	nodeVel []tensor.Vec3
	normals []tensor.Vec3
	contact []bool
}
