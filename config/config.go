package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/uyouii/lossopt/common"
	"github.com/uyouii/lossopt/model"
	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	Distribution DistributionConfig   `toml:"distribution" yaml:"distribution"`
	Loss         model.LossParameters `toml:"loss" yaml:"loss"`
	Grid         GridConfig           `toml:"grid" yaml:"grid"`
	Engine       EngineConfig         `toml:"engine" yaml:"engine"`
	Log          LogConfig            `toml:"log" yaml:"log"`
	TUI          TUIConfig            `toml:"tui" yaml:"tui"`
}

// DistributionConfig selects and describes the density source
type DistributionConfig struct {
	UseEmpirical bool     `toml:"use_empirical" yaml:"use_empirical"`
	Mean         float64  `toml:"mean" yaml:"mean"`
	Stdev        float64  `toml:"stdev" yaml:"stdev"`
	DataPath     string   `toml:"data_path" yaml:"data_path"`
	Column       string   `toml:"column" yaml:"column"`
	ClipLower    *float64 `toml:"clip_lower" yaml:"clip_lower"`
	ClipUpper    *float64 `toml:"clip_upper" yaml:"clip_upper"`
}

// GridConfig holds the discretization step and its allowed range
type GridConfig struct {
	Step          float64 `toml:"step" yaml:"step"`
	StepMin       float64 `toml:"step_min" yaml:"step_min"`
	StepMax       float64 `toml:"step_max" yaml:"step_max"`
	MaxGridPoints int     `toml:"max_grid_points" yaml:"max_grid_points"`
}

// EngineConfig holds display sample settings
type EngineConfig struct {
	SampleSize    int    `toml:"sample_size" yaml:"sample_size"`
	Seed          uint64 `toml:"seed" yaml:"seed"`
	HistogramBins int    `toml:"histogram_bins" yaml:"histogram_bins"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
	// only used by the terminal UI, empty disables logging there
	File string `toml:"file" yaml:"file"`
}

// TUIConfig holds terminal UI settings
type TUIConfig struct {
	Debounce Duration `toml:"debounce" yaml:"debounce"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// Format is the configuration file syntax
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Distribution: DistributionConfig{
			Mean:   0.2,
			Stdev:  0.03,
			Column: "value",
		},
		Loss: model.LossParameters{
			SlopeUnder: 0.1,
			PowerUnder: 2,
			SlopeOver:  0.1,
			PowerOver:  2,
		},
		Grid: GridConfig{
			Step:          0.001,
			StepMin:       1e-4,
			StepMax:       1e-1,
			MaxGridPoints: 200000,
		},
		Engine: EngineConfig{
			SampleSize:    10000,
			Seed:          1,
			HistogramBins: 50,
		},
		Log: LogConfig{
			Level: "info",
		},
		TUI: TUIConfig{
			Debounce: Duration{150 * time.Millisecond},
		},
	}
}

// Load reads a TOML or YAML file over the defaults
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(content, detectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes content over the defaults and validates the result
func Parse(content []byte, format Format) (*Config, error) {
	cfg := Default()

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml config: %w", err)
		}
	default:
		if _, err := toml.Decode(string(content), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse toml config: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func detectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// applyDefaults fills settings where zero is never meaningful
func (c *Config) applyDefaults() {
	def := Default()
	if c.Grid.StepMin == 0 {
		c.Grid.StepMin = def.Grid.StepMin
	}
	if c.Grid.StepMax == 0 {
		c.Grid.StepMax = def.Grid.StepMax
	}
	if c.Grid.MaxGridPoints == 0 {
		c.Grid.MaxGridPoints = def.Grid.MaxGridPoints
	}
	if c.Engine.SampleSize == 0 {
		c.Engine.SampleSize = def.Engine.SampleSize
	}
	if c.Engine.HistogramBins == 0 {
		c.Engine.HistogramBins = def.Engine.HistogramBins
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.TUI.Debounce.Duration == 0 {
		c.TUI.Debounce = def.TUI.Debounce
	}
}

func (c *Config) expandEnvVars() {
	c.Distribution.DataPath = os.ExpandEnv(c.Distribution.DataPath)
	c.Log.File = os.ExpandEnv(c.Log.File)
}

// Validate checks the settings that the engine does not check itself.
// Distribution and loss values are left to the engine so that the UI can
// start from them and report the error in place.
func (c *Config) Validate() error {
	g := c.Grid
	if !(g.StepMin > 0) || !(g.StepMax >= g.StepMin) || math.IsInf(g.StepMax, 0) {
		return fmt.Errorf("%w: step range [%v, %v] is invalid", common.ErrorInvalidParameter, g.StepMin, g.StepMax)
	}
	if g.MaxGridPoints < 0 {
		return fmt.Errorf("%w: max_grid_points %d must be > 0", common.ErrorInvalidParameter, g.MaxGridPoints)
	}
	if c.Engine.SampleSize < 0 || c.Engine.HistogramBins < 0 {
		return fmt.Errorf("%w: sample_size and histogram_bins must be > 0", common.ErrorInvalidParameter)
	}
	if c.TUI.Debounce.Duration < 0 {
		return fmt.Errorf("%w: debounce %v must not be negative", common.ErrorInvalidParameter, c.TUI.Debounce)
	}
	if c.Distribution.UseEmpirical && c.Distribution.DataPath == "" {
		return fmt.Errorf("%w: use_empirical requires data_path", common.ErrorInvalidParameter)
	}
	if c.Distribution.ClipLower != nil && c.Distribution.ClipUpper != nil &&
		*c.Distribution.ClipLower > *c.Distribution.ClipUpper {
		return fmt.Errorf("%w: clip_lower %v above clip_upper %v", common.ErrorInvalidParameter,
			*c.Distribution.ClipLower, *c.Distribution.ClipUpper)
	}
	return nil
}

// Clip returns the configured sample clip, open ends become infinite
func (c *Config) Clip() *model.Clip {
	d := c.Distribution
	if d.ClipLower == nil && d.ClipUpper == nil {
		return nil
	}
	clip := &model.Clip{Lower: math.Inf(-1), Upper: math.Inf(1)}
	if d.ClipLower != nil {
		clip.Lower = *d.ClipLower
	}
	if d.ClipUpper != nil {
		clip.Upper = *d.ClipUpper
	}
	return clip
}
