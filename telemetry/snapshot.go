package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/mudokon/particles"
	"github.com/pthm-cable/mudokon/tensor"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 2

// Snapshot holds the complete particle state for restarting a run.
type Snapshot struct {
	Version int     `json:"version"`
	Step    int     `json:"step"`
	SimTime float64 `json:"sim_time"`
	Dim     int     `json:"dim"`

	TrackDeformation bool `json:"track_deformation"`

	Particles []ParticleState `json:"particles"`

	// Rigid body particles by body name
	RigidBodies map[string][]ParticleState `json:"rigid_bodies,omitempty"`
}

// ParticleState holds one particle's complete state.
type ParticleState struct {
	Position tensor.Vec3 `json:"x"`
	Velocity tensor.Vec3 `json:"v"`
	Mass     float64     `json:"m"`
	Volume   float64     `json:"vol"`
	Volume0  float64     `json:"vol0"`
	Stress   tensor.Mat3 `json:"stress"`
	F        tensor.Mat3 `json:"f"`
}

// TakeSnapshot copies the particle state at step.
func TakeSnapshot(p *particles.Set, step int, dt float64) *Snapshot {
	return &Snapshot{
		Version:          SnapshotVersion,
		Step:             step,
		SimTime:          float64(step) * dt,
		Dim:              p.Dim,
		TrackDeformation: p.TrackDeformation,
		Particles:        captureStates(p),
	}
}

// AddRigidBody records the particles of a rigid body under name.
func (s *Snapshot) AddRigidBody(name string, p *particles.Set) {
	if s.RigidBodies == nil {
		s.RigidBodies = make(map[string][]ParticleState)
	}
	s.RigidBodies[name] = captureStates(p)
}

// Restore rebuilds the material particle set. Velocity gradients start at zero.
func (s *Snapshot) Restore() (*particles.Set, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", s.Version, SnapshotVersion)
	}
	p, err := restoreStates(s.Dim, s.Particles)
	if err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}
	p.TrackDeformation = s.TrackDeformation
	return p, nil
}

// RestoreRigidBody rebuilds the particles of the named rigid body. ok is
// false when the snapshot holds no body of that name.
func (s *Snapshot) RestoreRigidBody(name string) (p *particles.Set, ok bool, err error) {
	states, ok := s.RigidBodies[name]
	if !ok {
		return nil, false, nil
	}
	p, err = restoreStates(s.Dim, states)
	if err != nil {
		return nil, true, fmt.Errorf("restore rigid body %q: %w", name, err)
	}
	return p, true, nil
}

func captureStates(p *particles.Set) []ParticleState {
	states := make([]ParticleState, p.Len())
	for i := range states {
		states[i] = ParticleState{
			Position: p.Positions[i],
			Velocity: p.Velocities[i],
			Mass:     p.Masses[i],
			Volume:   p.Volumes[i],
			Volume0:  p.Volumes0[i],
			Stress:   p.Stresses[i],
			F:        p.F[i],
		}
	}
	return states
}

func restoreStates(dim int, states []ParticleState) (*particles.Set, error) {
	pos := make([]tensor.Vec3, len(states))
	for i, ps := range states {
		pos[i] = ps.Position
	}
	p, err := particles.New(dim, pos)
	if err != nil {
		return nil, err
	}
	for i, ps := range states {
		p.Velocities[i] = ps.Velocity
		p.Masses[i] = ps.Mass
		p.Volumes[i] = ps.Volume
		p.Volumes0[i] = ps.Volume0
		p.Stresses[i] = ps.Stress
		p.F[i] = ps.F
	}
	return p, nil
}

// SaveSnapshot writes a snapshot to dir.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Step))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}
