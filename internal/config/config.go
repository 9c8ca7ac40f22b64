// Package config handles bake configuration loading and management.
package config

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/aobake/pkg/aobake"
)

// Config holds all bake settings.
type Config struct {
	Bake    BakeConfig    `yaml:"bake" json:"bake" toml:"bake"`
	Run     RunConfig     `yaml:"run" json:"run" toml:"run"`
	Logging LoggingConfig `yaml:"logging" json:"logging" toml:"logging"`
}

// BakeConfig holds the occlusion parameters.
type BakeConfig struct {
	SampleRate float64 `yaml:"sample_rate" json:"sample_rate" toml:"sample_rate"`
	Gamma      float64 `yaml:"gamma" json:"gamma" toml:"gamma"`
	Exposure   float64 `yaml:"exposure" json:"exposure" toml:"exposure"`
	Distance   float64 `yaml:"distance" json:"distance" toml:"distance"`
	Epsilon    float64 `yaml:"epsilon" json:"epsilon" toml:"epsilon"`
}

// Params converts the section into baker parameters.
func (b BakeConfig) Params() aobake.Params {
	return aobake.Params{
		SampleRate: b.SampleRate,
		Gamma:      b.Gamma,
		Exposure:   b.Exposure,
		Distance:   b.Distance,
		Epsilon:    b.Epsilon,
	}
}

// RunConfig holds input/output and execution settings.
type RunConfig struct {
	Input  string `yaml:"input" json:"input" toml:"input"`    // Scene file
	Output string `yaml:"output" json:"output" toml:"output"` // Result file; empty derives from Input
	// Workers is the number of bake goroutines; 0 uses every CPU, 1 bakes
	// serially.
	Workers    int    `yaml:"workers" json:"workers" toml:"workers"`
	RGBA       bool   `yaml:"rgba" json:"rgba" toml:"rgba"`                      // Also write RGBA8 colors
	ProfileDir string `yaml:"profile_dir" json:"profile_dir" toml:"profile_dir"` // CPU profile directory; empty disables
	Watch      bool   `yaml:"watch" json:"watch" toml:"watch"`                   // Re-bake whenever Input changes
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level" toml:"level"`
	Format  string `yaml:"format" json:"format" toml:"format"`
	LogFile string `yaml:"log_file" json:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	p := aobake.DefaultParams()
	return &Config{
		Bake: BakeConfig{
			SampleRate: p.SampleRate,
			Gamma:      p.Gamma,
			Exposure:   p.Exposure,
			Distance:   p.Distance,
			Epsilon:    p.Epsilon,
		},
		Run: RunConfig{
			Workers: 0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "console",
			LogFile: "",
		},
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	err := c.Bake.Params().Validate()
	if c.Run.Workers < 0 {
		err = multierr.Append(err, fmt.Errorf("workers must be >= 0, got %d", c.Run.Workers))
	}
	if _, lerr := zapcore.ParseLevel(c.Logging.Level); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("logging level: %w", lerr))
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown logging format %q", c.Logging.Format))
	}
	return err
}
