package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExampleSceneParses(t *testing.T) {
	sc, err := ReadSceneString(ExampleSceneFile, 2)
	require.NoError(t, err)

	require.Len(t, sc.DirichletBoxes, 1)
	assert.Equal(t, "walls", sc.DirichletBoxes[0].Name)
	assert.Equal(t, 2, sc.DirichletBoxes[0].Layers)
	assert.False(t, sc.DirichletBoxes[0].Slip)

	require.Len(t, sc.RigidBodies, 1)
	rb := sc.RigidBodies[0]
	assert.Equal(t, "piston", rb.Name)
	assert.Equal(t, [3]float64{0.2, 0.8, 0}, rb.Origin())
	assert.Equal(t, [3]float64{0.6, 0.05, 0}, rb.Width())
	assert.Equal(t, [3]float64{0, -0.5, 0}, rb.Velocity())
	assert.Equal(t, 2, rb.Resolution)
}

func TestSceneSectionsSortedByName(t *testing.T) {
	src := `
[DirichletBox "b"]
Layers = 1
[DirichletBox "a"]
Layers = 3
Slip = true
`
	sc, err := ReadSceneString(src, 2)
	require.NoError(t, err)
	require.Len(t, sc.DirichletBoxes, 2)
	assert.Equal(t, "a", sc.DirichletBoxes[0].Name)
	assert.True(t, sc.DirichletBoxes[0].Slip)
	assert.Equal(t, "b", sc.DirichletBoxes[1].Name)
}

func TestSceneRejectsInvalidSections(t *testing.T) {
	tests := []struct {
		name string
		src  string
		dim  int
	}{
		{"no layers", "[DirichletBox \"w\"]\nSlip = true\n", 2},
		{"missing width", "[RigidBody \"r\"]\nXWidth = 0.1\n", 2},
		{"negative mu", "[RigidBody \"r\"]\nXWidth = 0.1\nMu = -1\n", 1},
		{"unknown variable", "[RigidBody \"r\"]\nXWidth = 0.1\nColour = red\n", 1},
		{"unknown section", "[Ball \"b\"]\nRadius = 1\n", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSceneString(tt.src, tt.dim)
			assert.Error(t, err)
		})
	}
}

func TestReadSceneConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.ini")
	require.NoError(t, os.WriteFile(path, []byte("[RigidBody \"rod\"]\nXWidth = 0.25\n"), 0644))

	sc, err := ReadSceneConfig(path, 1)
	require.NoError(t, err)
	require.Len(t, sc.RigidBodies, 1)
	assert.Equal(t, 0.25, sc.RigidBodies[0].XWidth)
	assert.Empty(t, sc.DirichletBoxes)

	_, err = ReadSceneConfig(filepath.Join(t.TempDir(), "nope.ini"), 1)
	assert.Error(t, err)
}
