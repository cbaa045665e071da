// Package solver advances material points with the update-stress-last
// explicit MPM scheme.
package solver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/mudokon/boundary"
	"github.com/pthm-cable/mudokon/grid"
	"github.com/pthm-cable/mudokon/material"
	"github.com/pthm-cable/mudokon/parallel"
	"github.com/pthm-cable/mudokon/particles"
	"github.com/pthm-cable/mudokon/shapefn"
	"github.com/pthm-cable/mudokon/simerr"
	"github.com/pthm-cable/mudokon/telemetry"
	"github.com/pthm-cable/mudokon/transfer"
)

// Options configures a USL solver. Grid, Particles and DT are required.
type Options struct {
	Grid      *grid.Grid
	Particles *particles.Set
	Kind      shapefn.Kind

	// BoundarySplines classifies node species so cubic kernels stay a
	// partition of unity at the grid faces.
	BoundarySplines bool

	Material material.Material // nil skips the stress update
	Scene    *boundary.Scene   // nil applies no boundary conditions

	DT        float64
	FlipRatio float64 // 0 = PIC, 1 = FLIP

	// HaltOnDomainViolation makes Step fail when a particle leaves the grid.
	// Otherwise the particle is logged and carried without grid contribution.
	HaltOnDomainViolation bool

	Pool *parallel.Pool           // nil runs serially
	Perf *telemetry.PerfCollector // nil disables timing
}

// USL runs one explicit step as
// interactions → shape functions → P2G → boundary → G2P → stress.
type USL struct {
	opts     Options
	grid     *grid.Grid
	p        *particles.Set
	shape    *shapefn.ShapeFunction
	transfer *transfer.Transfer

	step    int
	orphans []int
}

// New validates opts and allocates the shape function.
func New(opts Options) (*USL, error) {
	g, p := opts.Grid, opts.Particles
	if g == nil || p == nil {
		return nil, simerr.Config("solver", nil, "grid and particles are required")
	}
	if p.Dim != g.Dim {
		return nil, simerr.Mismatch("particle dim", g.Dim, p.Dim)
	}
	if !(opts.DT > 0) {
		return nil, simerr.Config("solver.dt", opts.DT, "must be positive")
	}
	if opts.FlipRatio < 0 || opts.FlipRatio > 1 {
		return nil, simerr.Config("solver.flip_ratio", opts.FlipRatio, "must be in [0, 1]")
	}

	sf, err := shapefn.New(opts.Kind, p.Len(), g.Dim)
	if err != nil {
		return nil, err
	}
	if err := sf.Validate(g); err != nil {
		return nil, err
	}
	sf.SetPool(opts.Pool)

	if opts.Kind == shapefn.Cubic && opts.BoundarySplines {
		g.ClassifySpecies()
	}

	return &USL{
		opts:     opts,
		grid:     g,
		p:        p,
		shape:    sf,
		transfer: transfer.New(opts.Pool),
	}, nil
}

func (s *USL) Grid() *grid.Grid { return s.grid }

func (s *USL) Particles() *particles.Set { return s.p }

func (s *USL) ShapeFunction() *shapefn.ShapeFunction { return s.shape }

// StepCount is the number of completed steps.
func (s *USL) StepCount() int { return s.step }

// SetStepCount restarts the step counter, e.g. after loading a snapshot.
func (s *USL) SetStepCount(n int) { s.step = n }

// Orphans lists the particles that had no grid interaction in the last
// ComputeInteractions.
func (s *USL) Orphans() []int { return s.orphans }

// ComputeInteractions rebuilds the particle-node interactions and checks
// for particles that left the grid.
func (s *USL) ComputeInteractions() error {
	if err := s.shape.ComputeInteractions(s.grid, s.p.Positions); err != nil {
		return err
	}
	s.orphans = s.shape.Orphans(s.grid)
	if len(s.orphans) == 0 {
		return nil
	}
	if s.opts.HaltOnDomainViolation {
		return &simerr.DomainViolation{Step: s.step, Particles: s.orphans}
	}
	slog.Warn("particles outside grid", "step", s.step, "count", len(s.orphans), "first", s.orphans[0])
	return nil
}

// EvaluateShapeFunctions fills weights and gradients for the current
// interactions.
func (s *USL) EvaluateShapeFunctions() {
	s.shape.EvaluateWeights(s.grid)
}

func (s *USL) ParticleToGrid() error {
	return s.transfer.ParticleToGrid(s.p, s.grid, s.shape, s.opts.DT)
}

// ApplyBoundary corrects node momenta with the scene, if any.
func (s *USL) ApplyBoundary() error {
	if s.opts.Scene == nil {
		return nil
	}
	return s.opts.Scene.Apply(s.grid, s.p, s.shape, s.opts.DT)
}

func (s *USL) GridToParticle() error {
	return s.transfer.GridToParticle(s.p, s.grid, s.shape, s.opts.DT, s.opts.FlipRatio)
}

// UpdateStress runs the material model, if any.
func (s *USL) UpdateStress() error {
	if s.opts.Material == nil {
		return nil
	}
	return s.opts.Material.UpdateStress(s.p, s.opts.DT)
}

// Step advances the simulation by one time step.
func (s *USL) Step() error {
	s.opts.Perf.StartStep()
	defer s.opts.Perf.EndStep()
	return s.advance()
}

func (s *USL) advance() error {
	perf := s.opts.Perf

	perf.StartPhase(telemetry.PhaseInteractions)
	if err := s.ComputeInteractions(); err != nil {
		return err
	}

	perf.StartPhase(telemetry.PhaseShapeFn)
	s.EvaluateShapeFunctions()

	perf.StartPhase(telemetry.PhaseP2G)
	if err := s.ParticleToGrid(); err != nil {
		return fmt.Errorf("step %d: p2g: %w", s.step, err)
	}

	perf.StartPhase(telemetry.PhaseBoundary)
	if err := s.ApplyBoundary(); err != nil {
		return fmt.Errorf("step %d: boundary: %w", s.step, err)
	}

	perf.StartPhase(telemetry.PhaseG2P)
	if err := s.GridToParticle(); err != nil {
		return fmt.Errorf("step %d: g2p: %w", s.step, err)
	}

	perf.StartPhase(telemetry.PhaseStress)
	if err := s.UpdateStress(); err != nil {
		return fmt.Errorf("step %d: stress: %w", s.step, err)
	}

	s.step++
	return nil
}

// Run performs steps steps, calling fn after every every-th step (every ≤ 0
// never calls it). fn is timed as the output phase of its step.
// Cancellation is checked between steps.
func (s *USL) Run(ctx context.Context, steps, every int, fn func(step int) error) error {
	perf := s.opts.Perf
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		perf.StartStep()
		err := s.advance()
		if err == nil && fn != nil && every > 0 && s.step%every == 0 {
			perf.StartPhase(telemetry.PhaseOutput)
			err = fn(s.step)
		}
		perf.EndStep()
		if err != nil {
			return err
		}
	}
	return nil
}
