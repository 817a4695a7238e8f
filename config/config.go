// Package config provides configuration loading and access for the generator.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all run configuration parameters.
type Config struct {
	Setup     SetupConfig     `yaml:"setup"`
	Cosmology CosmologyConfig `yaml:"cosmology"`
	Random    RandomConfig    `yaml:"random"`
	Output    OutputConfig    `yaml:"output"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SetupConfig holds grid and perturbation-order parameters.
type SetupConfig struct {
	GridRes      int      `yaml:"grid_res"`      // Points per axis (must be even)
	BoxLength    float64  `yaml:"box_length"`    // Comoving box side in Mpc/h
	ZStart       float64  `yaml:"z_start"`       // Starting redshift
	LPTOrder     int      `yaml:"lpt_order"`     // 1, 2 or 3
	BCCLattice   bool     `yaml:"bcc_lattice"`   // Duplicate particles on a body-centered lattice
	SymplecticPT bool     `yaml:"symplectic_pt"` // 2nd-order symplectic branch
	DoFixing     bool     `yaml:"do_fixing"`     // Fix noise amplitudes to unit modulus
	Species      []string `yaml:"species"`       // dm, baryon, neutrino
}

// CosmologyConfig holds the background cosmology parameters.
type CosmologyConfig struct {
	OmegaM float64 `yaml:"omega_m"` // Total matter density
	OmegaB float64 `yaml:"omega_b"` // Baryon density
	OmegaL float64 `yaml:"omega_l"` // Cosmological constant
	H      float64 `yaml:"h"`       // Hubble parameter / 100 km/s/Mpc
	NS     float64 `yaml:"n_s"`     // Primordial spectral index
	Sigma8 float64 `yaml:"sigma8"`  // Power normalization at R = 8 Mpc/h
	TCMB   float64 `yaml:"t_cmb"`   // CMB temperature in K
}

// RandomConfig holds white-noise generation parameters.
type RandomConfig struct {
	Seed uint64 `yaml:"seed"`
}

// OutputConfig holds output routing parameters.
type OutputConfig struct {
	Dir          string  `yaml:"dir"`
	Format       string  `yaml:"format"` // particles | field_lagrangian | field_eulerian
	PositionUnit float64 `yaml:"position_unit"`
	VelocityUnit float64 `yaml:"velocity_unit"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	AStart    float64 // Starting scale factor 1/(1+z_start)
	VolFactor float64 // (L/N/2pi)^{3/2}, the noise-to-potential volume factor
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
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Setup.GridRes < 2 || c.Setup.GridRes%2 != 0 {
		return fmt.Errorf("config: grid_res must be even and >= 2, got %d", c.Setup.GridRes)
	}
	if c.Setup.BoxLength <= 0 {
		return fmt.Errorf("config: box_length must be positive, got %g", c.Setup.BoxLength)
	}
	if c.Setup.LPTOrder < 1 || c.Setup.LPTOrder > 3 {
		return fmt.Errorf("config: lpt_order must be 1, 2 or 3, got %d", c.Setup.LPTOrder)
	}
	switch c.Output.Format {
	case "particles", "field_lagrangian", "field_eulerian":
	default:
		return fmt.Errorf("config: unknown output format %q", c.Output.Format)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.AStart = 1.0 / (1.0 + c.Setup.ZStart)
	c.Derived.VolFactor = math.Pow(
		c.Setup.BoxLength/float64(c.Setup.GridRes)/(2.0*math.Pi), 1.5)

	if c.Output.PositionUnit == 0 {
		c.Output.PositionUnit = 1.0
	}
	if c.Output.VelocityUnit == 0 {
		c.Output.VelocityUnit = 1.0
	}
	if len(c.Setup.Species) == 0 {
		c.Setup.Species = []string{"dm", "baryon"}
	}
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
