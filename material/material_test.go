package material

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/mudokon/particles"
	"github.com/pthm-cable/mudokon/simerr"
	"github.com/pthm-cable/mudokon/tensor"
)

func TestModuli(t *testing.T) {
	m, err := NewLinearIsotropicElastic(0.1, 0.1)
	require.NoError(t, err)

	assert.InDelta(t, 0.0454545, m.G, 1e-6)
	assert.InDelta(t, 0.0416667, m.K, 1e-6)
	assert.InDelta(t, 0.0113636, m.Lambda, 1e-6)
}

func TestUpdateStress3D(t *testing.T) {
	m, err := NewLinearIsotropicElastic(0.1, 0.1)
	require.NoError(t, err)

	p, _ := particles.New(3, make([]tensor.Vec3, 2))
	for i := range p.VelGrads {
		p.VelGrads[i] = tensor.Identity().Scale(0.1)
	}
	require.NoError(t, m.UpdateStress(p, 0.1))

	for i := range p.Stresses {
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				want := 0.0
				if a == b {
					want = 0.00125
				}
				assert.InDelta(t, want, p.Stresses[i][a][b], 1e-7, "particle %d σ[%d][%d]", i, a, b)
			}
		}
	}
}

func TestUpdateStressPlaneStrain(t *testing.T) {
	m, err := NewLinearIsotropicElastic(0.1, 0.1)
	require.NoError(t, err)

	p, _ := particles.New(2, make([]tensor.Vec3, 1))
	// the out-of-plane entry is ignored in 2D
	p.VelGrads[0] = tensor.Identity().Scale(0.1)
	require.NoError(t, m.UpdateStress(p, 0.1))

	s := p.Stresses[0]
	assert.InDelta(t, 0.00113636, s[0][0], 1e-7)
	assert.InDelta(t, 0.00113636, s[1][1], 1e-7)
	assert.InDelta(t, 0.00022727, s[2][2], 1e-7)
	assert.InDelta(t, 0.0, s[0][1], 1e-12)
}

func TestUpdateStressShearIsSymmetric(t *testing.T) {
	m, _ := NewLinearIsotropicElastic(1, 0.25)
	p, _ := particles.New(2, make([]tensor.Vec3, 1))
	p.VelGrads[0] = tensor.Mat3{{0, 1, 0}, {0, 0, 0}}
	require.NoError(t, m.UpdateStress(p, 0.1))

	s := p.Stresses[0]
	// Δε_xy = 0.05, σ_xy = 2G·0.05
	assert.InDelta(t, 2*m.G*0.05, s[0][1], 1e-12)
	assert.Equal(t, s[0][1], s[1][0])
	assert.InDelta(t, 0.0, s[0][0], 1e-12)
}

func TestNewRejectsBadParameters(t *testing.T) {
	_, err := NewLinearIsotropicElastic(-1, 0.3)
	assert.True(t, errors.Is(err, simerr.ErrConfiguration))

	_, err = NewLinearIsotropicElastic(1, 0.5)
	assert.True(t, errors.Is(err, simerr.ErrConfiguration))

	_, err = New("drucker_prager", 1, 0.3)
	assert.True(t, errors.Is(err, simerr.ErrConfiguration))

	mat, err := New("linear_elastic", 1, 0.3)
	require.NoError(t, err)
	assert.IsType(t, &LinearIsotropicElastic{}, mat)
}
