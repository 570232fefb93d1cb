package config

import (
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/finsolve/internal/dispatch"
	"github.com/san-kum/finsolve/internal/rootfind"
)

const (
	DefaultDataDir     = ".finsolve"
	DefaultLogLevel    = "warn"
	DefaultLocale      = "en"
	DefaultPrecision   = dispatch.DefaultPrecision
	DefaultGuesses     = rootfind.DefaultGuesses
	DefaultMaxIter     = rootfind.DefaultMaxIter
	DefaultTolerance   = rootfind.DefaultTolerance
	DefaultResidualTol = rootfind.DefaultResidualTol
)

type Config struct {
	DataDir  string `yaml:"data_dir"`
	LogLevel string `yaml:"log_level"`
	// Locale is a BCP 47 tag selecting digit grouping for output.
	Locale    string     `yaml:"locale"`
	Round     bool       `yaml:"round"`
	Precision int        `yaml:"precision"`
	History   bool       `yaml:"history"`
	Scan      ScanConfig `yaml:"scan"`
	// Presets adds to or overrides the built-in presets.
	Presets map[string]map[string]map[string]float64 `yaml:"presets,omitempty"`
}

type ScanConfig struct {
	Guesses     int     `yaml:"guesses"`
	MaxIter     int     `yaml:"max_iter"`
	Tolerance   float64 `yaml:"tolerance"`
	ResidualTol float64 `yaml:"residual_tol"`
	// Workers of 0 means one per CPU.
	Workers int `yaml:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:   DefaultDataDir,
		LogLevel:  DefaultLogLevel,
		Locale:    DefaultLocale,
		Round:     true,
		Precision: DefaultPrecision,
		History:   true,
		Scan: ScanConfig{
			Guesses:     DefaultGuesses,
			MaxIter:     DefaultMaxIter,
			Tolerance:   DefaultTolerance,
			ResidualTol: DefaultResidualTol,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GetScanConfig maps the scan section onto the root finder. The interval is
// left at the default; each family supplies its own.
func (c *Config) GetScanConfig() rootfind.Config {
	sc := rootfind.DefaultConfig()
	if c.Scan.Guesses > 0 {
		sc.Guesses = c.Scan.Guesses
	}
	if c.Scan.MaxIter > 0 {
		sc.MaxIter = c.Scan.MaxIter
	}
	if c.Scan.Tolerance > 0 {
		sc.Tolerance = c.Scan.Tolerance
	}
	if c.Scan.ResidualTol > 0 {
		sc.ResidualTol = c.Scan.ResidualTol
	}
	sc.Workers = runtime.GOMAXPROCS(0)
	if c.Scan.Workers > 0 {
		sc.Workers = c.Scan.Workers
	}
	return sc
}

func (c *Config) GetDispatchOptions() []dispatch.Option {
	return []dispatch.Option{
		dispatch.WithRounding(c.Round),
		dispatch.WithPrecision(c.Precision),
		dispatch.WithScan(c.GetScanConfig()),
	}
}

// GetPreset looks a preset up in the config first, then the built-ins.
func (c *Config) GetPreset(family, preset string) map[string]float64 {
	if values, ok := c.Presets[family][preset]; ok {
		return values
	}
	return GetPreset(family, preset)
}

func (c *Config) ListPresets(family string) []string {
	names := ListPresets(family)
	for name := range c.Presets[family] {
		if _, ok := Presets[family][name]; !ok {
			names = append(names, name)
		}
	}
	return sortStrings(names)
}
