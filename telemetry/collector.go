package telemetry

import (
	"github.com/pthm-cable/mudokon/grid"
	"github.com/pthm-cable/mudokon/particles"
)

// Collector accumulates events within windows of steps and produces StepStats.
type Collector struct {
	windowSteps int
	dt          float64

	windowStartStep int

	// Event counters for current window
	orphans int
}

// NewCollector creates a new stats collector.
// windowSteps: how many steps each stats window lasts
// dt: seconds per step (used for step-to-time conversion)
func NewCollector(windowSteps int, dt float64) *Collector {
	if windowSteps < 1 {
		windowSteps = 1
	}
	return &Collector{
		windowSteps: windowSteps,
		dt:          dt,
	}
}

// StartAt begins the first window at step, e.g. when resuming a run.
func (c *Collector) StartAt(step int) {
	c.windowStartStep = step
}

// RecordOrphans records particles with no valid grid interaction.
func (c *Collector) RecordOrphans(n int) {
	c.orphans += n
}

// ShouldFlush returns true if enough steps have passed to flush the window.
func (c *Collector) ShouldFlush(step int) bool {
	return step-c.windowStartStep >= c.windowSteps
}

// Flush produces a StepStats from the current particle and grid state and
// resets counters for the next window. g holds the last P2G result.
func (c *Collector) Flush(step int, p *particles.Set, g *grid.Grid) StepStats {
	n := p.Len()
	speeds := make([]float64, n)
	ratios := make([]float64, 0, n)
	var pressure float64
	for i := 0; i < n; i++ {
		speeds[i] = p.Velocities[i].Norm()
		if p.Volumes0[i] > 0 {
			ratios = append(ratios, p.Volumes[i]/p.Volumes0[i])
		}
		pressure -= p.Stresses[i].Trace() / 3
	}
	if n > 0 {
		pressure /= float64(n)
	}

	speed := ComputeDistribution(speeds)
	vol := ComputeDistribution(ratios)
	mom := p.Momentum()

	active := 0
	for _, m := range g.Mass {
		if m > g.SmallMassCutoff {
			active++
		}
	}

	stats := StepStats{
		WindowStartStep: c.windowStartStep,
		Step:            step,
		SimTime:         float64(step) * c.dt,

		Particles:   n,
		ActiveNodes: active,

		ParticleMass:  p.TotalMass(),
		GridMass:      g.TotalMass(),
		MomentumX:     mom[0],
		MomentumY:     mom[1],
		MomentumZ:     mom[2],
		KineticEnergy: p.KineticEnergy(),

		SpeedMean: speed.Mean,
		SpeedStd:  speed.Std,
		SpeedP10:  speed.P10,
		SpeedP50:  speed.P50,
		SpeedP90:  speed.P90,
		SpeedMax:  speed.Max,

		VolumeRatioMin: vol.Min,
		VolumeRatioMax: vol.Max,
		PressureMean:   pressure,

		Orphans: c.orphans,
	}

	// Reset for next window
	c.windowStartStep = step
	c.orphans = 0

	return stats
}

// WindowSteps returns the number of steps per window.
func (c *Collector) WindowSteps() int {
	return c.windowSteps
}
