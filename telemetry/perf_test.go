package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartStep()
		pc.StartPhase(PhaseP2G)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseG2P)
		time.Sleep(200 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats(100)

	if stats.AvgStepDuration <= 0 {
		t.Error("expected positive average step duration")
	}
	if _, ok := stats.PhaseAvg[PhaseP2G]; !ok {
		t.Error("expected p2g phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhaseG2P]; !ok {
		t.Error("expected g2p phase to be tracked")
	}
	if stats.ParticleStepsPerSecond != stats.StepsPerSecond*100 {
		t.Errorf("particle throughput %v, want %v", stats.ParticleStepsPerSecond, stats.StepsPerSecond*100)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartStep()
		pc.StartPhase(PhaseInteractions)
		pc.EndStep()
	}

	stats := pc.Stats(1)
	if stats.AvgStepDuration <= 0 {
		t.Error("expected positive average step duration after window filled")
	}
	if stats.StepsPerSecond <= 0 {
		t.Error("expected positive steps per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 3; i++ {
		pc.StartStep()
		pc.StartPhase("fast")
		pc.StartPhase("slow")
		time.Sleep(5 * time.Millisecond)
		pc.EndStep()
	}

	stats := pc.Stats(1)
	fastPct := stats.PhasePct["fast"]
	slowPct := stats.PhasePct["slow"]

	// sleep is a lower bound, so only the slow phase has a guaranteed size
	if stats.PhaseAvg["slow"] < 5*time.Millisecond {
		t.Errorf("expected slow phase to average at least 5ms, got %v", stats.PhaseAvg["slow"])
	}
	if slowPct <= fastPct {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", slowPct, fastPct)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats(0)

	if stats.AvgStepDuration != 0 {
		t.Error("expected zero avg step duration for empty collector")
	}
	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}
	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfCollector_NilIsNoop(t *testing.T) {
	var pc *PerfCollector
	pc.StartStep()
	pc.StartPhase(PhaseP2G)
	pc.EndStep()

	if stats := pc.Stats(10); stats.StepsPerSecond != 0 {
		t.Errorf("nil collector reported %v steps/s", stats.StepsPerSecond)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgStepDuration: 2 * time.Millisecond,
		PhasePct:        map[string]float64{PhaseBoundary: 12.5, PhaseStress: 3},
	}
	row := s.ToCSV(40)
	if row.WindowEnd != 40 || row.AvgStepUS != 2000 {
		t.Errorf("unexpected row %+v", row)
	}
	if row.BoundaryPct != 12.5 || row.StressPct != 3 || row.P2GPct != 0 {
		t.Errorf("phase percentages not mapped: %+v", row)
	}
}
