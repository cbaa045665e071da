// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/mudokon/grid"
	"github.com/pthm-cable/mudokon/simerr"
	"github.com/pthm-cable/mudokon/tensor"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Shape     ShapeConfig     `yaml:"shape"`
	Particles ParticlesConfig `yaml:"particles"`
	Material  MaterialConfig  `yaml:"material"`
	Solver    SolverConfig    `yaml:"solver"`
	Gravity   []float64       `yaml:"gravity"`
	Walls     WallsConfig     `yaml:"walls"`
	Output    OutputConfig    `yaml:"output"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Scene is an optional INI file with extra boundary conditions.
	Scene string `yaml:"scene"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig describes the background grid.
type GridConfig struct {
	Dim     int       `yaml:"dim"`
	Origin  []float64 `yaml:"origin"` // Dim entries
	End     []float64 `yaml:"end"`    // Dim entries
	Spacing float64   `yaml:"spacing"`
}

// ShapeConfig selects the interpolation kernel.
type ShapeConfig struct {
	Kind            string `yaml:"kind"`             // linear | cubic
	BoundarySplines bool   `yaml:"boundary_splines"` // Classify node species for cubic
}

// ParticlesConfig controls how the material body is seeded.
type ParticlesConfig struct {
	PPC              int       `yaml:"ppc"`     // Particles per cell (0 = 2^dim Gauss points)
	Density          float64   `yaml:"density"` // Reference density
	MarginLow        int       `yaml:"margin_low"`
	MarginHigh       int       `yaml:"margin_high"`
	Velocity         []float64 `yaml:"velocity"` // Initial velocity
	TrackDeformation bool      `yaml:"track_deformation"`
}

// MaterialConfig holds constitutive parameters.
type MaterialConfig struct {
	Kind string  `yaml:"kind"`
	E    float64 `yaml:"e"`  // Young's modulus
	Nu   float64 `yaml:"nu"` // Poisson's ratio
}

// SolverConfig holds time stepping parameters.
type SolverConfig struct {
	DT                    float64 `yaml:"dt"`
	Steps                 int     `yaml:"steps"`
	FlipRatio             float64 `yaml:"flip_ratio"` // 0 = PIC, 1 = FLIP
	HaltOnDomainViolation bool    `yaml:"halt_on_domain_violation"`
	Workers               int     `yaml:"workers"` // 0 = GOMAXPROCS
}

// WallsConfig adds a Dirichlet box on the grid faces. Layers 0 disables it.
type WallsConfig struct {
	Layers int  `yaml:"layers"`
	Slip   bool `yaml:"slip"`
}

// OutputConfig holds experiment output settings.
type OutputConfig struct {
	Dir   string `yaml:"dir"`   // Empty disables output; -output-dir overrides
	Every int    `yaml:"every"` // Particle snapshot interval in steps (0 = never)
}

// TelemetryConfig holds logging and performance window settings.
type TelemetryConfig struct {
	StatsEvery int  `yaml:"stats_every"` // Steps between stats records
	PerfWindow int  `yaml:"perf_window"` // Steps averaged by the perf collector
	LogStats   bool `yaml:"log_stats"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	Origin   tensor.Vec3
	End      tensor.Vec3
	Gravity  tensor.Vec3
	Velocity tensor.Vec3
	PPC      int
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

// Validate checks ranges that would otherwise surface deep inside the solver.
func (c *Config) Validate() error {
	dim := c.Grid.Dim
	if dim < 1 || dim > 3 {
		return simerr.Config("grid.dim", dim, "must be 1, 2 or 3")
	}
	if len(c.Grid.Origin) != dim {
		return simerr.Config("grid.origin", c.Grid.Origin, fmt.Sprintf("needs %d entries", dim))
	}
	if len(c.Grid.End) != dim {
		return simerr.Config("grid.end", c.Grid.End, fmt.Sprintf("needs %d entries", dim))
	}
	if !(c.Grid.Spacing > 0) {
		return simerr.Config("grid.spacing", c.Grid.Spacing, "must be positive")
	}
	// non-finite bounds and oversized lattices
	if _, err := grid.Shape(dim, toVec(c.Grid.Origin), toVec(c.Grid.End), c.Grid.Spacing); err != nil {
		var ce *simerr.ConfigError
		if errors.As(err, &ce) {
			return simerr.Config("grid."+ce.Field, ce.Value, ce.Reason)
		}
		return err
	}
	if len(c.Gravity) > dim {
		return simerr.Config("gravity", c.Gravity, fmt.Sprintf("has more than %d entries", dim))
	}
	if len(c.Particles.Velocity) > dim {
		return simerr.Config("particles.velocity", c.Particles.Velocity, fmt.Sprintf("has more than %d entries", dim))
	}
	if c.Particles.PPC < 0 {
		return simerr.Config("particles.ppc", c.Particles.PPC, "must not be negative")
	}
	if c.Particles.MarginLow < 0 || c.Particles.MarginHigh < 0 {
		return simerr.Config("particles.margin", []int{c.Particles.MarginLow, c.Particles.MarginHigh}, "must not be negative")
	}
	if !(c.Solver.DT > 0) {
		return simerr.Config("solver.dt", c.Solver.DT, "must be positive")
	}
	if c.Solver.Steps < 0 {
		return simerr.Config("solver.steps", c.Solver.Steps, "must not be negative")
	}
	if c.Solver.FlipRatio < 0 || c.Solver.FlipRatio > 1 {
		return simerr.Config("solver.flip_ratio", c.Solver.FlipRatio, "must be in [0, 1]")
	}
	if c.Walls.Layers < 0 {
		return simerr.Config("walls.layers", c.Walls.Layers, "must not be negative")
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Origin = toVec(c.Grid.Origin)
	c.Derived.End = toVec(c.Grid.End)
	c.Derived.Gravity = toVec(c.Gravity)
	c.Derived.Velocity = toVec(c.Particles.Velocity)

	// Gauss seeding places 2^dim points per cell
	c.Derived.PPC = c.Particles.PPC
	if c.Derived.PPC == 0 {
		c.Derived.PPC = 1 << c.Grid.Dim
	}
	if c.Telemetry.StatsEvery < 1 {
		c.Telemetry.StatsEvery = 1
	}
}

func toVec(v []float64) tensor.Vec3 {
	var out tensor.Vec3
	copy(out[:], v)
	return out
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
