package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/mudokon/grid"
	"github.com/pthm-cable/mudokon/particles"
	"github.com/pthm-cable/mudokon/shapefn"
	"github.com/pthm-cable/mudokon/simerr"
	"github.com/pthm-cable/mudokon/tensor"
)

func TestComputeVolume(t *testing.T) {
	tests := []struct {
		name    string
		spacing float64
		ppc     int
		dim     int
		want    float64
	}{
		{"1d", 0.5, 2, 1, 0.25},
		{"2d", 0.5, 4, 2, 0.0625},
		{"3d", 0.1, 8, 3, 0.000125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeVolume(tt.spacing, tt.ppc, tt.dim)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if _, err := ComputeVolume(0.5, 0, 2); !errors.Is(err, simerr.ErrConfiguration) {
		t.Errorf("expected configuration error for ppc=0, got %v", err)
	}
}

func TestDiscretize(t *testing.T) {
	g, _ := grid.New(2, tensor.Vec3{}, tensor.Vec3{1, 1}, 0.25)
	p, _ := particles.New(2, make([]tensor.Vec3, 3))
	sf, _ := shapefn.New(shapefn.Cubic, 3, 2)

	if err := Discretize(p, g, sf, 4, 1000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range p.Volumes {
		if math.Abs(p.Volumes[i]-0.015625) > 1e-12 {
			t.Errorf("particle %d: expected volume 0.015625, got %v", i, p.Volumes[i])
		}
		if math.Abs(p.Masses[i]-15.625) > 1e-9 {
			t.Errorf("particle %d: expected mass 15.625, got %v", i, p.Masses[i])
		}
		if p.Volumes0[i] != p.Volumes[i] {
			t.Errorf("particle %d: expected reference volume to match", i)
		}
	}
}

func TestDiscretizeRejects(t *testing.T) {
	g, _ := grid.New(2, tensor.Vec3{}, tensor.Vec3{1, 1}, 0.5) // 3x3, too small for cubic
	p2, _ := particles.New(2, make([]tensor.Vec3, 2))
	p3, _ := particles.New(3, make([]tensor.Vec3, 2))
	cubic, _ := shapefn.New(shapefn.Cubic, 2, 2)
	linear, _ := shapefn.New(shapefn.Linear, 2, 2)

	if err := Discretize(p2, g, cubic, 4, 1); !errors.Is(err, simerr.ErrConfiguration) {
		t.Errorf("expected configuration error for small grid, got %v", err)
	}
	if err := Discretize(p3, g, linear, 4, 1); !errors.Is(err, simerr.ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}
	if err := Discretize(p2, g, linear, 4, -1); !errors.Is(err, simerr.ErrConfiguration) {
		t.Errorf("expected configuration error for negative density, got %v", err)
	}
}

func TestFillDomain(t *testing.T) {
	g, _ := grid.New(2, tensor.Vec3{}, tensor.Vec3{1, 1}, 0.1) // 11x11 nodes
	pos := FillDomain(g, DefaultMargin)

	// lower corners 3..6 on each axis: 4x4 cells, 4 points each
	if len(pos) != 64 {
		t.Fatalf("expected 64 points, got %d", len(pos))
	}

	first := pos[0]
	want := tensor.Vec3{0.3 + 0.02113, 0.3 + 0.02113}
	for i := 0; i < 2; i++ {
		if math.Abs(first[i]-want[i]) > 1e-9 {
			t.Errorf("expected first point %v, got %v", want, first)
		}
	}
	// second point moves along axis 0 only
	if math.Abs(pos[1][0]-(0.3+0.07887)) > 1e-9 || math.Abs(pos[1][1]-want[1]) > 1e-9 {
		t.Errorf("unexpected second point %v", pos[1])
	}

	again := FillDomain(g, DefaultMargin)
	for i := range pos {
		if pos[i] != again[i] {
			t.Fatalf("expected deterministic output at %d", i)
		}
	}
}

func TestFillDomainCounts(t *testing.T) {
	tests := []struct {
		dim    int
		margin Margin
		want   int
	}{
		{1, Margin{0, 1}, 10 * 2},
		{2, Margin{0, 1}, 100 * 4},
		{3, Margin{3, 4}, 64 * 8},
		{2, Margin{6, 6}, 0},
	}
	for _, tt := range tests {
		g, _ := grid.New(tt.dim, tensor.Vec3{}, tensor.Vec3{1, 1, 1}, 0.1)
		if got := len(FillDomain(g, tt.margin)); got != tt.want {
			t.Errorf("dim %d margin %v: expected %d points, got %d", tt.dim, tt.margin, tt.want, got)
		}
	}
}
