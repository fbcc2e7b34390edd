// Package config provides configuration loading and access for aperture
// tracking runs.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/collimation/beam"
	"github.com/pthm-cable/collimation/geometry"
	"github.com/pthm-cable/collimation/numeric"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all run configuration.
type Config struct {
	Aperture  ApertureConfig  `yaml:"aperture"`
	Beam      BeamConfig      `yaml:"beam"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	ChargeX   ChargeXConfig   `yaml:"chargex"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ApertureConfig holds containment settings shared by polygon apertures.
type ApertureConfig struct {
	Reference       string `yaml:"reference"`        // "scaled" or "bbox"
	PrecisionDigits int    `yaml:"precision_digits"` // decimal digits for arbitrary-precision tracking
}

// BeamConfig describes the generated beam.
type BeamConfig struct {
	Particles int    `yaml:"particles"`
	Seed      uint64 `yaml:"seed"` // 0 = time-based

	Q0                float64 `yaml:"q0"`                  // reference charge [e]
	Mass0             float64 `yaml:"mass0"`               // rest mass [eV]; 0 derives it from A
	A                 float64 `yaml:"a"`                   // mass number
	Z                 int     `yaml:"z"`                   // atomic number, 0 for non-ions
	KineticPerNucleon float64 `yaml:"kinetic_per_nucleon"` // [eV/u]

	MinX float64 `yaml:"min_x"` // sampling box [m]
	MaxX float64 `yaml:"max_x"`
	MinY float64 `yaml:"min_y"`
	MaxY float64 `yaml:"max_y"`
}

// TrackingConfig holds tracker and lattice loader settings.
type TrackingConfig struct {
	Turns             int     `yaml:"turns"`
	DriftThreshold    float64 `yaml:"drift_threshold"`    // minimum gap [m] that gets an explicit drift
	InstallApertures  bool    `yaml:"install_apertures"`  // append aperture elements from the lattice
	Scatter           string  `yaml:"scatter"`            // foil scatter: black_hole, strip_electron, charge_exchange
	Workers           int     `yaml:"workers"`            // 0 = GOMAXPROCS
	ParallelThreshold int     `yaml:"parallel_threshold"` // below this, one worker tracks the whole beam
}

// ChargeXConfig configures the external charge-exchange code.
type ChargeXConfig struct {
	Executable string  `yaml:"executable"`
	WorkDir    string  `yaml:"work_dir"`
	TimeoutSec float64 `yaml:"timeout_sec"` // 0 = no timeout
}

// TelemetryConfig holds statistics output settings.
type TelemetryConfig struct {
	StatsInterval       int  `yaml:"stats_interval"` // turns between turn records
	PerfCollectorWindow int  `yaml:"perf_collector_window"`
	RecordLosses        bool `yaml:"record_losses"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Reference geometry.RefPolicy
	Prec      uint // big.Float mantissa bits for PrecisionDigits
	Ref       beam.Reference
	Bounds    beam.Bounds
	Timeout   time.Duration
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

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	ref, err := geometry.ParseRefPolicy(c.Aperture.Reference)
	if err != nil {
		return fmt.Errorf("aperture.reference: %w", err)
	}
	c.Derived.Reference = ref
	c.Derived.Prec = numeric.PrecisionForDigits(c.Aperture.PrecisionDigits)

	mass0 := c.Beam.Mass0
	if mass0 == 0 {
		mass0 = c.Beam.A * beam.AtomicMassUnitEV
	}
	c.Derived.Ref = beam.Reference{Q0: c.Beam.Q0, Mass0: mass0, A: c.Beam.A}
	c.Derived.Bounds = beam.Bounds{
		MinX: c.Beam.MinX, MaxX: c.Beam.MaxX,
		MinY: c.Beam.MinY, MaxY: c.Beam.MaxY,
	}
	c.Derived.Timeout = time.Duration(c.ChargeX.TimeoutSec * float64(time.Second))

	if c.Telemetry.StatsInterval < 1 {
		c.Telemetry.StatsInterval = 1
	}
	switch c.Tracking.Scatter {
	case "", "black_hole", "strip_electron", "charge_exchange":
	default:
		return fmt.Errorf("tracking.scatter: unknown scatter %q", c.Tracking.Scatter)
	}
	return nil
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
