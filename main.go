package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/pthm-cable/collimation/beam"
	"github.com/pthm-cable/collimation/chargex"
	"github.com/pthm-cable/collimation/config"
	"github.com/pthm-cable/collimation/elements"
	"github.com/pthm-cable/collimation/lattice"
	"github.com/pthm-cable/collimation/telemetry"
	"github.com/pthm-cable/collimation/tracking"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	latticePath := flag.String("lattice", "", "Path to the sequence YAML (required)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = use config, then time-based)")
	turns := flag.Int("turns", 0, "Turns to track (0 = use config)")
	particles := flag.Int("particles", 0, "Beam size (0 = use config)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *latticePath == "" {
		slog.Error("missing -lattice")
		flag.Usage()
		os.Exit(2)
	}
	if *turns > 0 {
		cfg.Tracking.Turns = *turns
	}
	if *particles > 0 {
		cfg.Beam.Particles = *particles
	}
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.Beam.Seed
	}
	if rngSeed == 0 {
		rngSeed = uint64(time.Now().UnixNano())
	}
	cfg.Beam.Seed = rngSeed
	src := rand.NewPCG(rngSeed, rngSeed^0x9e3779b97f4a7c15)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	scatters := map[string]elements.Scatter{
		"black_hole":     elements.BlackHole{},
		"strip_electron": elements.StripElectron{},
		"charge_exchange": &elements.ChargeExchange{
			Exchanger: &chargex.Runner{
				Executable: cfg.ChargeX.Executable,
				WorkDir:    cfg.ChargeX.WorkDir,
				Timeout:    cfg.Derived.Timeout,
				Logger:     logger,
			},
			Src: src,
			Ctx: ctx,
		},
	}
	line, err := lattice.Load(*latticePath, lattice.Options{
		DriftThreshold:   cfg.Tracking.DriftThreshold,
		InstallApertures: cfg.Tracking.InstallApertures,
		Reference:        cfg.Derived.Reference,
		Prec:             cfg.Derived.Prec,
		Scatters:         scatters,
		DefaultScatter:   scatters[cfg.Tracking.Scatter],
	})
	if err != nil {
		slog.Error("failed to load lattice", "path", *latticePath, "error", err)
		os.Exit(1)
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	workers := cfg.Tracking.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if usesExternalScatter(line) {
		workers = 1
	}
	tr := tracking.New(line, cfg.Derived.Ref, tracking.Options{
		Workers:           workers,
		ParallelThreshold: cfg.Tracking.ParallelThreshold,
		StatsInterval:     cfg.Telemetry.StatsInterval,
		PerfWindow:        cfg.Telemetry.PerfCollectorWindow,
		RecordLosses:      cfg.Telemetry.RecordLosses,
		Output:            output,
		Logger:            logger,
	})

	species := beam.Species{Z: cfg.Beam.Z, KineticPerNucleon: cfg.Beam.KineticPerNucleon}
	b := beam.Uniform(cfg.Beam.Particles, cfg.Derived.Bounds, cfg.Derived.Ref, species, src)
	if err := tr.Spawn(b); err != nil {
		slog.Error("failed to spawn beam", "error", err)
		os.Exit(1)
	}

	slog.Info("starting tracking",
		"seed", rngSeed,
		"lattice", *latticePath,
		"elements", len(line),
		"particles", cfg.Beam.Particles,
		"turns", cfg.Tracking.Turns,
		"workers", workers,
		"reference", cfg.Derived.Reference.String(),
	)

	err = tr.Run(ctx, cfg.Tracking.Turns)
	switch {
	case errors.Is(err, tracking.ErrBeamLost):
		slog.Info("beam lost", "turn", tr.Turns())
	case errors.Is(err, context.Canceled):
		slog.Info("interrupted", "turn", tr.Turns())
	case err != nil:
		slog.Error("tracking failed", "error", err)
		output.Close()
		os.Exit(1)
	}
	slog.Info("lost by element", "counts", tr.Collector().LostByElement())
}

// usesExternalScatter reports whether a foil in line runs the charge-exchange
// code, which cannot be run from several goroutines.
func usesExternalScatter(line []lattice.Entry) bool {
	for _, e := range line {
		foil, ok := e.Element.(*elements.LimitFoil)
		if !ok {
			continue
		}
		if _, ok := foil.Scatter.(*elements.ChargeExchange); ok {
			return true
		}
	}
	return false
}
