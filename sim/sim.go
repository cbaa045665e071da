// Package sim wires a configured run together: it seeds the material body,
// builds the boundary scene and drives the solver with telemetry attached.
package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/mudokon/boundary"
	"github.com/pthm-cable/mudokon/config"
	"github.com/pthm-cable/mudokon/domain"
	"github.com/pthm-cable/mudokon/grid"
	"github.com/pthm-cable/mudokon/material"
	"github.com/pthm-cable/mudokon/parallel"
	"github.com/pthm-cable/mudokon/particles"
	"github.com/pthm-cable/mudokon/shapefn"
	"github.com/pthm-cable/mudokon/solver"
	"github.com/pthm-cable/mudokon/telemetry"
)

// Options holds run settings that do not belong in the config file.
type Options struct {
	LogStats  bool
	OutputDir string // overrides cfg.Output.Dir when set
	ScenePath string // overrides cfg.Scene when set
	Restore   string // snapshot to resume from
	Workers   int    // overrides cfg.Solver.Workers when > 0

	// StatsCallback receives every flushed stats window.
	StatsCallback func(telemetry.StepStats)
}

// Sim holds the complete state of a run.
type Sim struct {
	cfg    *config.Config
	grid   *grid.Grid
	p      *particles.Set
	scene  *boundary.Scene
	solver *solver.USL
	pool   *parallel.Pool

	perfCollector *telemetry.PerfCollector
	collector     *telemetry.Collector
	outputManager *telemetry.OutputManager

	logStats      bool
	statsCallback func(telemetry.StepStats)
}

// New builds a run from cfg.
func New(cfg *config.Config, opts Options) (*Sim, error) {
	kind, err := shapefn.ParseKind(cfg.Shape.Kind)
	if err != nil {
		return nil, err
	}

	g, err := grid.New(cfg.Grid.Dim, cfg.Derived.Origin, cfg.Derived.End, cfg.Grid.Spacing)
	if err != nil {
		return nil, err
	}

	workers := cfg.Solver.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}
	pool := parallel.NewPool(workers)

	s := &Sim{
		cfg:           cfg,
		grid:          g,
		pool:          pool,
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		collector:     telemetry.NewCollector(cfg.Telemetry.StatsEvery, cfg.Solver.DT),
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
	}
	if err := s.build(kind, opts); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sim) build(kind shapefn.Kind, opts Options) error {
	cfg := s.cfg

	startStep := 0
	var snap *telemetry.Snapshot
	if opts.Restore != "" {
		var err error
		if snap, err = telemetry.LoadSnapshot(opts.Restore); err != nil {
			return err
		}
		if snap.Dim != cfg.Grid.Dim {
			return fmt.Errorf("snapshot %s: dim %d does not match grid dim %d", opts.Restore, snap.Dim, cfg.Grid.Dim)
		}
		if s.p, err = snap.Restore(); err != nil {
			return err
		}
		startStep = snap.Step
	} else if err := s.seed(kind); err != nil {
		return err
	}

	mat, err := material.New(cfg.Material.Kind, cfg.Material.E, cfg.Material.Nu)
	if err != nil {
		return err
	}

	scenePath := cfg.Scene
	if opts.ScenePath != "" {
		scenePath = opts.ScenePath
	}
	var sc *config.SceneConfig
	if scenePath != "" {
		if sc, err = config.ReadSceneConfig(scenePath, cfg.Grid.Dim); err != nil {
			return err
		}
	}
	if s.scene, err = boundary.FromConfig(cfg, sc, s.grid, kind, s.pool); err != nil {
		return err
	}
	if snap != nil {
		if err := s.restoreRigidBodies(snap); err != nil {
			return err
		}
	}

	s.solver, err = solver.New(solver.Options{
		Grid:                  s.grid,
		Particles:             s.p,
		Kind:                  kind,
		BoundarySplines:       cfg.Shape.BoundarySplines,
		Material:              mat,
		Scene:                 s.scene,
		DT:                    cfg.Solver.DT,
		FlipRatio:             cfg.Solver.FlipRatio,
		HaltOnDomainViolation: cfg.Solver.HaltOnDomainViolation,
		Pool:                  s.pool,
		Perf:                  s.perfCollector,
	})
	if err != nil {
		return err
	}
	s.solver.SetStepCount(startStep)
	s.collector.StartAt(startStep)

	outputDir := cfg.Output.Dir
	if opts.OutputDir != "" {
		outputDir = opts.OutputDir
	}
	if s.outputManager, err = telemetry.NewOutputManager(outputDir); err != nil {
		return err
	}
	if err := s.outputManager.WriteConfig(cfg); err != nil {
		return err
	}
	return nil
}

// restoreRigidBodies moves every rigid body of the scene to its state in
// snap. Bodies the snapshot does not know keep their configured placement.
func (s *Sim) restoreRigidBodies(snap *telemetry.Snapshot) error {
	for _, rb := range s.scene.RigidBodies() {
		rigid, ok, err := snap.RestoreRigidBody(rb.Name)
		if err != nil {
			return err
		}
		if !ok {
			slog.Warn("rigid body not in snapshot, starting from scene placement", "name", rb.Name, "step", snap.Step)
			continue
		}
		if err := rb.SetParticles(rigid); err != nil {
			return fmt.Errorf("rigid body %q: %w", rb.Name, err)
		}
	}
	return nil
}

// snapshot captures the material and rigid-body state at the current step.
func (s *Sim) snapshot() *telemetry.Snapshot {
	snap := telemetry.TakeSnapshot(s.p, s.Step(), s.cfg.Solver.DT)
	for _, rb := range s.scene.RigidBodies() {
		snap.AddRigidBody(rb.Name, rb.Particles)
	}
	return snap
}

// seed fills the grid interior with Gauss-point particles.
func (s *Sim) seed(kind shapefn.Kind) error {
	cfg := s.cfg
	margin := domain.Margin{Low: cfg.Particles.MarginLow, High: cfg.Particles.MarginHigh}
	pos := domain.FillDomain(s.grid, margin)
	if len(pos) == 0 {
		return fmt.Errorf("no particles seeded: grid of %v nodes leaves no cells inside margin %+v", s.grid.Size, margin)
	}

	p, err := particles.New(cfg.Grid.Dim, pos)
	if err != nil {
		return err
	}
	p.TrackDeformation = cfg.Particles.TrackDeformation

	sf, err := shapefn.New(kind, p.Len(), cfg.Grid.Dim)
	if err != nil {
		return err
	}
	if err := domain.Discretize(p, s.grid, sf, cfg.Derived.PPC, cfg.Particles.Density); err != nil {
		return err
	}
	for i := range p.Velocities {
		p.Velocities[i] = cfg.Derived.Velocity
	}
	s.p = p
	return nil
}

func (s *Sim) Particles() *particles.Set { return s.p }

func (s *Sim) Grid() *grid.Grid { return s.grid }

func (s *Sim) Scene() *boundary.Scene { return s.scene }

// Step returns the number of completed steps.
func (s *Sim) Step() int { return s.solver.StepCount() }

// Run advances steps steps. Stats windows are flushed and particle
// snapshots written as configured.
func (s *Sim) Run(ctx context.Context, steps int) error {
	gr, bx, rb := s.scene.Counts()
	slog.Info("starting simulation",
		"dim", s.grid.Dim,
		"nodes", s.grid.NumNodes,
		"particles", s.p.Len(),
		"shape", s.cfg.Shape.Kind,
		"workers", s.pool.Slots(),
		"gravity", gr,
		"dirichlet_boxes", bx,
		"rigid_bodies", rb,
		"start_step", s.Step(),
		"steps", steps,
	)

	err := s.solver.Run(ctx, steps, 1, s.afterStep)

	// the final state is kept for resuming or, on failure, for inspection
	if path, serr := s.outputManager.WriteSnapshot(s.snapshot()); serr != nil {
		slog.Error("failed to write snapshot", "error", serr)
	} else if path != "" {
		slog.Info("snapshot written", "path", path)
	}
	if err != nil {
		return err
	}
	slog.Info("simulation finished", "step", s.Step())
	return nil
}

// Close releases the worker pool and output files.
func (s *Sim) Close() error {
	s.pool.Close()
	return s.outputManager.Close()
}
