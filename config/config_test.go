package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/mudokon/simerr"
	"github.com/pthm-cable/mudokon/tensor"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Grid.Dim)
	assert.Equal(t, "cubic", cfg.Shape.Kind)
	assert.Equal(t, 4, cfg.Derived.PPC)
	assert.Equal(t, tensor.Vec3{1, 1, 0}, cfg.Derived.End)
	assert.Equal(t, tensor.Vec3{0, -9.81, 0}, cfg.Derived.Gravity)
	assert.Greater(t, cfg.Solver.DT, 0.0)
}

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shape:\n  kind: linear\nsolver:\n  dt: 0.01\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "linear", cfg.Shape.Kind)
	assert.Equal(t, 0.01, cfg.Solver.DT)
	// untouched defaults survive
	assert.Equal(t, 0.05, cfg.Grid.Spacing)
	assert.True(t, cfg.Shape.BoundarySplines)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"dim", "grid:\n  dim: 4\n", "grid.dim"},
		{"origin length", "grid:\n  origin: [0]\n", "grid.origin"},
		{"spacing", "grid:\n  spacing: 0\n", "grid.spacing"},
		{"infinite end", "grid:\n  end: [.inf, 1]\n", "grid.end"},
		{"nan origin", "grid:\n  origin: [.nan, 0]\n", "grid.origin"},
		{"end before origin", "grid:\n  end: [1, -1]\n", "grid.end"},
		{"too many nodes", "grid:\n  spacing: 1.0e-6\n", "grid.spacing"},
		{"dt", "solver:\n  dt: -1\n", "solver.dt"},
		{"flip", "solver:\n  flip_ratio: 1.5\n", "solver.flip_ratio"},
		{"gravity", "gravity: [0, 0, 1]\n", "gravity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "run.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, simerr.ErrConfiguration))
			var ce *simerr.ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Solver.Steps = 17

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 17, back.Solver.Steps)
	assert.Equal(t, cfg.Derived, back.Derived)
}

func TestGlobal(t *testing.T) {
	require.NoError(t, Init(""))
	assert.Equal(t, 2, Cfg().Grid.Dim)
}
