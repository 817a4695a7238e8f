package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pthm-cable/lptgen/config"
	"github.com/pthm-cable/lptgen/cosmo"
	"github.com/pthm-cable/lptgen/lpt"
	"github.com/pthm-cable/lptgen/noise"
	"github.com/pthm-cable/lptgen/output"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory (overrides config)")
	seed := flag.Uint64("seed", 0, "Noise seed (0 = use config)")
	gridRes := flag.Int("grid-res", 0, "Points per axis (0 = use config)")
	lptOrder := flag.Int("lpt-order", 0, "Perturbation order 1-3 (0 = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI overrides
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *seed != 0 {
		cfg.Random.Seed = *seed
	}
	if *gridRes != 0 {
		cfg.Setup.GridRes = *gridRes
	}
	if *lptOrder != 0 {
		cfg.Setup.LPTOrder = *lptOrder
	}

	if err := run(cfg); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	calc, err := cosmo.New(cosmo.Params{
		OmegaM: cfg.Cosmology.OmegaM,
		OmegaB: cfg.Cosmology.OmegaB,
		OmegaL: cfg.Cosmology.OmegaL,
		H:      cfg.Cosmology.H,
		NS:     cfg.Cosmology.NS,
		Sigma8: cfg.Cosmology.Sigma8,
		TCMB:   cfg.Cosmology.TCMB,
	})
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	sink, err := output.NewDirSink(cfg.Output.Dir, format,
		cfg.Output.PositionUnit, cfg.Output.VelocityUnit)
	if err != nil {
		return err
	}

	species := make([]cosmo.Species, 0, len(cfg.Setup.Species))
	for _, name := range cfg.Setup.Species {
		sp, err := cosmo.ParseSpecies(name)
		if err != nil {
			return err
		}
		species = append(species, sp)
	}

	gen, err := lpt.New(lpt.Options{
		GridRes:      cfg.Setup.GridRes,
		BoxLength:    cfg.Setup.BoxLength,
		ZStart:       cfg.Setup.ZStart,
		Order:        cfg.Setup.LPTOrder,
		BCCLattice:   cfg.Setup.BCCLattice,
		SymplecticPT: cfg.Setup.SymplecticPT,
		DoFixing:     cfg.Setup.DoFixing,
		Species:      species,
	}, noise.NewGaussian(cfg.Random.Seed), calc, sink)
	if err != nil {
		return err
	}

	slog.Info("starting generation",
		"grid_res", cfg.Setup.GridRes,
		"box_length", cfg.Setup.BoxLength,
		"z_start", cfg.Setup.ZStart,
		"lpt_order", gen.EffectiveOrder(),
		"format", format.String(),
		"seed", cfg.Random.Seed,
	)

	// Snapshot the config and the input power spectrum alongside the output.
	if err := cfg.WriteYAML(filepath.Join(sink.Dir(), "config_used.yaml")); err != nil {
		return err
	}
	if err := writeInputSpectrum(calc, cfg.Derived.AStart, sink.Dir()); err != nil {
		return err
	}

	if err := gen.Run(); err != nil {
		return err
	}
	return gen.Timer().WriteSummaryCSV(sink.Dir())
}

func writeInputSpectrum(calc *cosmo.Calculator, astart float64, dir string) error {
	f, err := os.Create(filepath.Join(dir, "input_powerspec.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := calc.WritePowerSpectrum(astart, f); err != nil {
		return err
	}
	return f.Close()
}
