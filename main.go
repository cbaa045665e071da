package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pthm-cable/mudokon/config"
	"github.com/pthm-cable/mudokon/sim"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	scenePath := flag.String("scene", "", "Scene file with extra boundary conditions (overrides config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, snapshots and config (empty = use config)")
	steps := flag.Int("steps", 0, "Number of steps to run (0 = use config)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	exampleScene := flag.Bool("example-scene", false, "Print an example scene file and exit")
	workers := flag.Int("workers", 0, "Worker count (0 = use config)")
	restore := flag.String("restore", "", "Resume from a snapshot_<step>.json file")

	flag.Parse()

	if *exampleScene {
		fmt.Print(config.ExampleSceneFile)
		return
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	numSteps := cfg.Solver.Steps
	if *steps > 0 {
		numSteps = *steps
	}

	s, err := sim.New(cfg, sim.Options{
		LogStats:  *logStats || cfg.Telemetry.LogStats,
		OutputDir: *outputDir,
		ScenePath: *scenePath,
		Restore:   *restore,
		Workers:   *workers,
	})
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	runErr := s.Run(ctx, numSteps)
	stop()

	if err := s.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	if runErr != nil {
		slog.Error("simulation failed", "step", s.Step(), "error", runErr)
		os.Exit(1)
	}
}
