package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// StepStats holds aggregated statistics at the end of a window of steps.
type StepStats struct {
	WindowStartStep int     `csv:"-"`
	Step            int     `csv:"step"`
	SimTime         float64 `csv:"sim_time"`

	Particles   int `csv:"particles"`
	ActiveNodes int `csv:"active_nodes"` // Nodes above the small-mass cutoff

	// Conservation checks
	ParticleMass  float64 `csv:"particle_mass"`
	GridMass      float64 `csv:"grid_mass"`
	MomentumX     float64 `csv:"momentum_x"`
	MomentumY     float64 `csv:"momentum_y"`
	MomentumZ     float64 `csv:"momentum_z"`
	KineticEnergy float64 `csv:"kinetic_energy"`

	// Speed distribution
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`

	// Volume change V/V0
	VolumeRatioMin float64 `csv:"volume_ratio_min"`
	VolumeRatioMax float64 `csv:"volume_ratio_max"`

	PressureMean float64 `csv:"pressure_mean"` // -tr(σ)/3

	// Particles that lost every grid interaction during the window
	Orphans int `csv:"orphans"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Distribution summarises a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
	Min, Max      float64
}

// ComputeDistribution calculates mean, population standard deviation,
// percentiles and range. values is not modified.
func ComputeDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	mean, std := stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Distribution{
		Mean: mean,
		Std:  std,
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
		Min:  floats.Min(sorted),
		Max:  floats.Max(sorted),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s StepStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartStep),
		slog.Int("step", s.Step),
		slog.Float64("sim_time", s.SimTime),
		slog.Int("particles", s.Particles),
		slog.Int("active_nodes", s.ActiveNodes),
		slog.Float64("particle_mass", s.ParticleMass),
		slog.Float64("grid_mass", s.GridMass),
		slog.Float64("momentum_x", s.MomentumX),
		slog.Float64("momentum_y", s.MomentumY),
		slog.Float64("momentum_z", s.MomentumZ),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("volume_ratio_min", s.VolumeRatioMin),
		slog.Float64("volume_ratio_max", s.VolumeRatioMax),
		slog.Float64("pressure_mean", s.PressureMean),
		slog.Int("orphans", s.Orphans),
	)
}

// LogStats logs the step stats using slog.
func (s StepStats) LogStats() {
	slog.Info("stats",
		"step", s.Step,
		"sim_time", s.SimTime,
		"particles", s.Particles,
		"active_nodes", s.ActiveNodes,
		"particle_mass", s.ParticleMass,
		"grid_mass", s.GridMass,
		"kinetic_energy", s.KineticEnergy,
		"speed_mean", s.SpeedMean,
		"speed_p90", s.SpeedP90,
		"speed_max", s.SpeedMax,
		"volume_ratio_min", s.VolumeRatioMin,
		"volume_ratio_max", s.VolumeRatioMax,
		"pressure_mean", s.PressureMean,
		"orphans", s.Orphans,
	)
}
