package boundary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/mudokon/config"
	"github.com/pthm-cable/mudokon/shapefn"
	"github.com/pthm-cable/mudokon/tensor"
)

func TestFromConfigDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	g := unitGrid(t, cfg.Grid.Spacing)

	s, err := FromConfig(cfg, nil, g, shapefn.Cubic, nil)
	require.NoError(t, err)
	gr, bx, rb := s.Counts()
	assert.Equal(t, 1, gr)
	assert.Equal(t, 1, bx)
	assert.Equal(t, 0, rb)
}

func TestFromConfigSceneRigidLattice(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Walls.Layers = 0
	cfg.Derived.Gravity = tensor.Vec3{}

	sc, err := config.ReadSceneString(config.ExampleSceneFile, 2)
	require.NoError(t, err)

	g := unitGrid(t, 0.05)
	s, err := FromConfig(cfg, sc, g, shapefn.Linear, nil)
	require.NoError(t, err)

	gr, bx, rb := s.Counts()
	assert.Equal(t, 0, gr)
	assert.Equal(t, 1, bx)
	require.Equal(t, 1, rb)

	body := s.RigidBodies()[0]
	assert.Equal(t, "piston", body.Name)
	// 0.6/0.05*2 by 0.05/0.05*2
	require.Equal(t, 24*2, body.Particles.Len())
	assert.Equal(t, 24*2, body.Shape.NumParticles())

	first := body.Particles.Positions[0]
	assert.InDelta(t, 0.2+0.0125, first[0], 1e-9)
	assert.InDelta(t, 0.8+0.0125, first[1], 1e-9)
	for _, v := range body.Particles.Velocities {
		assert.Equal(t, tensor.Vec3{0, -0.5, 0}, v)
	}
}
