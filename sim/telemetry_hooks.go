package sim

import (
	"log/slog"
)

// afterStep records orphans, flushes the stats window and writes particle
// output on the configured intervals.
func (s *Sim) afterStep(step int) error {
	s.collector.RecordOrphans(len(s.solver.Orphans()))
	s.flushTelemetry(step)

	every := s.cfg.Output.Every
	if every > 0 && step%every == 0 {
		if err := s.outputManager.WriteParticles(s.p, step); err != nil {
			return err
		}
	}
	return nil
}

// flushTelemetry checks if the stats window should be flushed.
func (s *Sim) flushTelemetry(step int) {
	if !s.collector.ShouldFlush(step) {
		return
	}

	stats := s.collector.Flush(step, s.p, s.grid)
	perfStats := s.perfCollector.Stats(s.p.Len())

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// CSV write failures are logged, not fatal
	if err := s.outputManager.WriteStats(stats); err != nil {
		slog.Error("failed to write stats", "error", err)
	}
	if err := s.outputManager.WritePerf(perfStats, stats.Step); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}
