package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/mudokon/particles"
	"github.com/pthm-cable/mudokon/tensor"
)

func TestSnapshotSaveLoadRestore(t *testing.T) {
	tmpDir := t.TempDir()

	p, err := particles.New(2, []tensor.Vec3{{0.25, 0.5}, {0.75, 0.125}})
	if err != nil {
		t.Fatal(err)
	}
	p.Fill(tensor.Vec3{1, -2}, 0.5, 0.01)
	p.TrackDeformation = true
	p.Volumes[1] = 0.02
	p.Stresses[0] = tensor.Mat3{{1, 2, 0}, {2, 3, 0}, {0, 0, 4}}
	p.F[1] = tensor.Mat3{{1.1, 0, 0}, {0, 0.9, 0}, {0, 0, 1}}
	p.VelGrads[0] = tensor.Identity()

	path, err := SaveSnapshot(TakeSnapshot(p, 40, 0.001), tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if filepath.Base(path) != "snapshot_40.json" {
		t.Errorf("unexpected snapshot path %s", path)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("snapshot file was not created")
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.Step != 40 || math.Abs(loaded.SimTime-0.04) > 1e-12 {
		t.Errorf("step %d time %v", loaded.Step, loaded.SimTime)
	}

	back, err := loaded.Restore()
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if !back.TrackDeformation || back.Dim != 2 || back.Len() != 2 {
		t.Fatalf("restored header mismatch: dim %d len %d", back.Dim, back.Len())
	}
	for i := 0; i < 2; i++ {
		if back.Positions[i] != p.Positions[i] || back.Velocities[i] != p.Velocities[i] {
			t.Errorf("particle %d kinematics differ", i)
		}
		if back.Volumes[i] != p.Volumes[i] || back.Volumes0[i] != p.Volumes0[i] || back.Masses[i] != p.Masses[i] {
			t.Errorf("particle %d scalars differ", i)
		}
		if back.Stresses[i] != p.Stresses[i] || back.F[i] != p.F[i] {
			t.Errorf("particle %d tensors differ", i)
		}
		if back.VelGrads[i] != (tensor.Mat3{}) {
			t.Errorf("particle %d velocity gradient not reset", i)
		}
	}
}

func TestSnapshotRejectsVersion(t *testing.T) {
	s := &Snapshot{Version: SnapshotVersion + 1, Dim: 2}
	if _, err := s.Restore(); err == nil {
		t.Error("expected version error")
	}
}

func TestLoadSnapshotMissing(t *testing.T) {
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSnapshotRigidBodies(t *testing.T) {
	p, err := particles.New(2, []tensor.Vec3{{0.5, 0.5}})
	if err != nil {
		t.Fatal(err)
	}
	rigid, err := particles.New(2, []tensor.Vec3{{0.1, 0.9}, {0.3, 0.9}})
	if err != nil {
		t.Fatal(err)
	}
	rigid.Fill(tensor.Vec3{0, -5}, 0, 0)
	rigid.Positions[1][1] = 0.7

	snap := TakeSnapshot(p, 20, 0.001)
	snap.AddRigidBody("piston", rigid)

	path, err := SaveSnapshot(snap, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}

	back, ok, err := loaded.RestoreRigidBody("piston")
	if err != nil || !ok {
		t.Fatalf("expected piston, got ok=%v err=%v", ok, err)
	}
	if back.Len() != 2 || back.Dim != 2 {
		t.Fatalf("restored rigid body has %d particles in %dD", back.Len(), back.Dim)
	}
	for i := 0; i < 2; i++ {
		if back.Positions[i] != rigid.Positions[i] || back.Velocities[i] != rigid.Velocities[i] {
			t.Errorf("rigid particle %d differs: %v %v", i, back.Positions[i], back.Velocities[i])
		}
	}

	if _, ok, err := loaded.RestoreRigidBody("missing"); ok || err != nil {
		t.Errorf("expected missing body to report ok=false, got ok=%v err=%v", ok, err)
	}
}
