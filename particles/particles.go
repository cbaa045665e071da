// Package particles holds the Lagrangian material points.
package particles

import (
	"github.com/pthm-cable/mudokon/simerr"
	"github.com/pthm-cable/mudokon/tensor"
)

// Set is a structure-of-arrays particle store. Every slice has length Len().
// Vectors and tensors are padded to three components.
type Set struct {
	Dim int

	Positions  []tensor.Vec3
	Velocities []tensor.Vec3
	Masses     []float64
	Volumes    []float64
	Volumes0   []float64     // reference volumes
	VelGrads   []tensor.Mat3 // rows/cols beyond Dim stay zero
	Stresses   []tensor.Mat3
	F          []tensor.Mat3 // deformation gradient

	// TrackDeformation switches volume updates from incremental
	// det(I+L·dt) scaling to det(F)·V0.
	TrackDeformation bool
}

// New creates a set at the given positions with zero velocity, mass, volume
// and stress, and identity deformation gradients.
func New(dim int, positions []tensor.Vec3) (*Set, error) {
	if dim < 1 || dim > 3 {
		return nil, simerr.Config("dim", dim, "must be 1, 2 or 3")
	}
	n := len(positions)
	s := &Set{
		Dim:        dim,
		Positions:  make([]tensor.Vec3, n),
		Velocities: make([]tensor.Vec3, n),
		Masses:     make([]float64, n),
		Volumes:    make([]float64, n),
		Volumes0:   make([]float64, n),
		VelGrads:   make([]tensor.Mat3, n),
		Stresses:   make([]tensor.Mat3, n),
		F:          make([]tensor.Mat3, n),
	}
	for i, p := range positions {
		s.Positions[i] = p.Truncate(dim)
		s.F[i] = tensor.Identity()
	}
	return s, nil
}

func (s *Set) Len() int {
	return len(s.Positions)
}

func (s *Set) SetVelocities(v []tensor.Vec3) error {
	if len(v) != s.Len() {
		return simerr.Mismatch("velocities", s.Len(), len(v))
	}
	for i := range v {
		s.Velocities[i] = v[i].Truncate(s.Dim)
	}
	return nil
}

func (s *Set) SetMasses(m []float64) error {
	if len(m) != s.Len() {
		return simerr.Mismatch("masses", s.Len(), len(m))
	}
	copy(s.Masses, m)
	return nil
}

// SetVolumes sets both current and reference volumes.
func (s *Set) SetVolumes(v []float64) error {
	if len(v) != s.Len() {
		return simerr.Mismatch("volumes", s.Len(), len(v))
	}
	copy(s.Volumes, v)
	copy(s.Volumes0, v)
	return nil
}

func (s *Set) SetStresses(sigma []tensor.Mat3) error {
	if len(sigma) != s.Len() {
		return simerr.Mismatch("stresses", s.Len(), len(sigma))
	}
	copy(s.Stresses, sigma)
	return nil
}

// Fill sets every particle's velocity, mass and volume to the same value.
func (s *Set) Fill(vel tensor.Vec3, mass, volume float64) {
	vel = vel.Truncate(s.Dim)
	for i := range s.Positions {
		s.Velocities[i] = vel
		s.Masses[i] = mass
		s.Volumes[i] = volume
		s.Volumes0[i] = volume
	}
}

func (s *Set) TotalMass() float64 {
	var sum float64
	for _, m := range s.Masses {
		sum += m
	}
	return sum
}

// Momentum returns Σ m·v.
func (s *Set) Momentum() tensor.Vec3 {
	var sum tensor.Vec3
	for i, v := range s.Velocities {
		sum = sum.Add(v.Scale(s.Masses[i]))
	}
	return sum
}

// KineticEnergy returns Σ ½ m |v|².
func (s *Set) KineticEnergy() float64 {
	var sum float64
	for i, v := range s.Velocities {
		sum += 0.5 * s.Masses[i] * v.Dot(v)
	}
	return sum
}

// Clone returns a deep copy.
func (s *Set) Clone() *Set {
	c := &Set{
		Dim:              s.Dim,
		Positions:        append([]tensor.Vec3(nil), s.Positions...),
		Velocities:       append([]tensor.Vec3(nil), s.Velocities...),
		Masses:           append([]float64(nil), s.Masses...),
		Volumes:          append([]float64(nil), s.Volumes...),
		Volumes0:         append([]float64(nil), s.Volumes0...),
		VelGrads:         append([]tensor.Mat3(nil), s.VelGrads...),
		Stresses:         append([]tensor.Mat3(nil), s.Stresses...),
		F:                append([]tensor.Mat3(nil), s.F...),
		TrackDeformation: s.TrackDeformation,
	}
	return c
}
