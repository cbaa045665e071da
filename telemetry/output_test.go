package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/mudokon/config"
	"github.com/pthm-cable/mudokon/particles"
	"github.com/pthm-cable/mudokon/tensor"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager, got %v, %v", om, err)
	}
	// every method is nil-safe
	if err := om.WriteStats(StepStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteParticles(nil, 0); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatal(err)
	}
	for step := 10; step <= 30; step += 10 {
		if err := om.WriteStats(StepStats{Step: step, Particles: 4}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WritePerf(PerfStats{}, 30); err != nil {
		t.Fatal(err)
	}

	p, _ := particles.New(2, []tensor.Vec3{{0.1, 0.2}, {0.3, 0.4}})
	p.Fill(tensor.Vec3{1, 0}, 2, 0.5)
	p.Stresses[1][0][1] = 7
	if err := om.WriteParticles(p, 30); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "steps.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("steps.csv has %d lines, want header + 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "step,sim_time,particles") {
		t.Errorf("unexpected header %q", lines[0])
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Error("config.yaml missing")
	}

	records, err := ReadParticles(filepath.Join(dir, "particles_30.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d particle rows", len(records))
	}
	if records[1].ID != 1 || records[1].X != 0.3 || records[1].VX != 1 || records[1].StressXY != 7 {
		t.Errorf("unexpected row %+v", records[1])
	}
}
