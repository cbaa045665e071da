package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/mudokon/config"
	"github.com/pthm-cable/mudokon/particles"
)

// ParticleRecord is one row of a particles_<step>.csv snapshot.
type ParticleRecord struct {
	ID       int     `csv:"id"`
	X        float64 `csv:"x"`
	Y        float64 `csv:"y"`
	Z        float64 `csv:"z"`
	VX       float64 `csv:"vx"`
	VY       float64 `csv:"vy"`
	VZ       float64 `csv:"vz"`
	Mass     float64 `csv:"mass"`
	Volume   float64 `csv:"volume"`
	StressXX float64 `csv:"stress_xx"`
	StressYY float64 `csv:"stress_yy"`
	StressZZ float64 `csv:"stress_zz"`
	StressXY float64 `csv:"stress_xy"`
	StressYZ float64 `csv:"stress_yz"`
	StressXZ float64 `csv:"stress_xz"`
}

// ParticleRecords flattens a particle set for CSV export.
func ParticleRecords(p *particles.Set) []ParticleRecord {
	out := make([]ParticleRecord, p.Len())
	for i := range out {
		x, v, s := p.Positions[i], p.Velocities[i], p.Stresses[i]
		out[i] = ParticleRecord{
			ID:       i,
			X:        x[0],
			Y:        x[1],
			Z:        x[2],
			VX:       v[0],
			VY:       v[1],
			VZ:       v[2],
			Mass:     p.Masses[i],
			Volume:   p.Volumes[i],
			StressXX: s[0][0],
			StressYY: s[1][1],
			StressZZ: s[2][2],
			StressXY: s[0][1],
			StressYZ: s[1][2],
			StressXZ: s[0][2],
		}
	}
	return out
}

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir       string
	stepsFile *os.File
	perfFile  *os.File

	// Track if headers have been written
	stepsHeaderWritten bool
	perfHeaderWritten  bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "steps.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating steps.csv: %w", err)
	}
	om.stepsFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.stepsFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteStats writes a step stats record to steps.csv.
func (om *OutputManager) WriteStats(stats StepStats) error {
	if om == nil {
		return nil
	}

	records := []StepStats{stats}

	if !om.stepsHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.stepsFile); err != nil {
			return fmt.Errorf("writing stats: %w", err)
		}
		om.stepsHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.stepsFile); err != nil {
			return fmt.Errorf("writing stats: %w", err)
		}
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}

	records := []PerfStatsCSV{stats.ToCSV(windowEnd)}

	if !om.perfHeaderWritten {
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
	}
	return nil
}

// WriteParticles writes particles_<step>.csv.
func (om *OutputManager) WriteParticles(p *particles.Set, step int) error {
	if om == nil {
		return nil
	}

	path := filepath.Join(om.dir, fmt.Sprintf("particles_%d.csv", step))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := gocsv.MarshalFile(ParticleRecords(p), f); err != nil {
		f.Close()
		return fmt.Errorf("writing particles: %w", err)
	}
	return f.Close()
}

// WriteSnapshot saves a restartable JSON snapshot.
func (om *OutputManager) WriteSnapshot(snap *Snapshot) (string, error) {
	if om == nil {
		return "", nil
	}
	return SaveSnapshot(snap, om.dir)
}

// ReadParticles loads a particles_<step>.csv file.
func ReadParticles(path string) ([]ParticleRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening particles: %w", err)
	}
	defer f.Close()

	var records []ParticleRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("parsing particles: %w", err)
	}
	return records, nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	if om.stepsFile != nil {
		if err := om.stepsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if om.perfFile != nil {
		if err := om.perfFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
