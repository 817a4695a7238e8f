package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading embedded defaults: %v", err)
	}
	if cfg.Setup.GridRes != 64 {
		t.Errorf("default grid_res: got %d, want 64", cfg.Setup.GridRes)
	}
	if cfg.Setup.BoxLength != 100 {
		t.Errorf("default box_length: got %g, want 100", cfg.Setup.BoxLength)
	}
	if cfg.Setup.LPTOrder != 3 {
		t.Errorf("default lpt_order: got %d, want 3", cfg.Setup.LPTOrder)
	}
	if cfg.Cosmology.Sigma8 != 0.81 {
		t.Errorf("default sigma8: got %g, want 0.81", cfg.Cosmology.Sigma8)
	}
	if cfg.Random.Seed != 9001 {
		t.Errorf("default seed: got %d, want 9001", cfg.Random.Seed)
	}
	if len(cfg.Setup.Species) != 2 {
		t.Errorf("default species: got %v, want [dm baryon]", cfg.Setup.Species)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("setup:\n  grid_res: 128\n  z_start: 24\nrandom:\n  seed: 7\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Setup.GridRes != 128 {
		t.Errorf("overridden grid_res: got %d, want 128", cfg.Setup.GridRes)
	}
	if cfg.Setup.ZStart != 24 {
		t.Errorf("overridden z_start: got %g, want 24", cfg.Setup.ZStart)
	}
	if cfg.Random.Seed != 7 {
		t.Errorf("overridden seed: got %d, want 7", cfg.Random.Seed)
	}
	// Untouched fields keep their defaults.
	if cfg.Setup.BoxLength != 100 {
		t.Errorf("box_length lost its default: got %g", cfg.Setup.BoxLength)
	}
}

func TestLoadValidation(t *testing.T) {
	for _, tc := range []struct {
		name string
		yaml string
	}{
		{"odd grid", "setup:\n  grid_res: 33\n"},
		{"bad order", "setup:\n  lpt_order: 4\n"},
		{"bad box", "setup:\n  box_length: -5\n"},
		{"bad format", "output:\n  format: hdf5\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tc.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestDerivedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("setup:\n  grid_res: 64\n  box_length: 100\n  z_start: 49\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(cfg.Derived.AStart-0.02) > 1e-12 {
		t.Errorf("a_start: got %g, want 0.02", cfg.Derived.AStart)
	}
	want := math.Pow(100.0/64.0/(2*math.Pi), 1.5)
	if math.Abs(cfg.Derived.VolFactor-want) > 1e-12 {
		t.Errorf("vol_factor: got %g, want %g", cfg.Derived.VolFactor, want)
	}
	if cfg.Output.PositionUnit != 1 || cfg.Output.VelocityUnit != 1 {
		t.Errorf("unit defaults: got %g/%g, want 1/1",
			cfg.Output.PositionUnit, cfg.Output.VelocityUnit)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("reloading snapshot: %v", err)
	}
	if back.Setup.GridRes != cfg.Setup.GridRes || back.Cosmology.Sigma8 != cfg.Cosmology.Sigma8 {
		t.Error("snapshot round trip changed values")
	}
}

func TestCfgPanicsBeforeInit(t *testing.T) {
	old := global
	global = nil
	defer func() {
		global = old
		if recover() == nil {
			t.Error("Cfg() before Init() did not panic")
		}
	}()
	Cfg()
}
