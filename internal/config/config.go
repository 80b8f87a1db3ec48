// Package config loads dutree defaults from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/idelchi/dutree/internal/dutree"
)

// Outputs lists the supported output formats.
//
//nolint:gochecknoglobals // Config constant
var Outputs = []string{"tree", "json", "list"}

// ErrInvalid is returned by Validate for out-of-range values.
var ErrInvalid = errors.New("invalid configuration")

// Config holds scan and output defaults.
type Config struct {
	// Depth is the maximum tree depth.
	Depth int `yaml:"depth"`
	// Top is the number of children shown per directory.
	Top int `yaml:"top"`
	// Workers bounds concurrent directory listings.
	Workers int `yaml:"workers"`
	// Strategy is "recursive" or "walk".
	Strategy string `yaml:"strategy"`
	// Output is "tree", "json" or "list".
	Output string `yaml:"output"`
	// MinSize hides smaller directories from the rendered tree, e.g. "10MB".
	MinSize string `yaml:"min_size"`
	// ProgressInterval is the progress refresh period, e.g. "250ms".
	ProgressInterval string `yaml:"progress_interval"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Depth:            3,
		Top:              3,
		Workers:          runtime.NumCPU() * 2,
		Strategy:         string(dutree.StrategyRecursive),
		Output:           "tree",
		MinSize:          "0B",
		ProgressInterval: dutree.DefaultProgressInterval.String(),
	}
}

// DefaultPath returns the location of the user configuration file,
// or an empty string if no user configuration directory exists.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, "dutree", "config.yaml")
}

// Load reads the configuration at path on top of the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}

	return cfg, nil
}

// Validate reports the first invalid value.
func (c *Config) Validate() error {
	if c.Depth < 1 {
		return fmt.Errorf("%w: depth must be at least 1, got %d", ErrInvalid, c.Depth)
	}

	if c.Top < 1 {
		return fmt.Errorf("%w: top must be at least 1, got %d", ErrInvalid, c.Top)
	}

	if !slices.Contains(dutree.Strategies(), dutree.Strategy(c.Strategy)) {
		return fmt.Errorf("%w: unknown strategy %q, must be one of %v", ErrInvalid, c.Strategy, dutree.Strategies())
	}

	if !slices.Contains(Outputs, c.Output) {
		return fmt.Errorf("%w: unknown output %q, must be one of %v", ErrInvalid, c.Output, Outputs)
	}

	if _, err := c.MinSizeBytes(); err != nil {
		return err
	}

	if _, err := c.Interval(); err != nil {
		return err
	}

	return nil
}

// MinSizeBytes parses MinSize.
func (c *Config) MinSizeBytes() (int64, error) {
	if c.MinSize == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(c.MinSize)
	if err != nil {
		return 0, fmt.Errorf("%w: min_size: %w", ErrInvalid, err)
	}

	return int64(size), nil //nolint:gosec // Size conversion from humanize is safe
}

// Interval parses ProgressInterval.
func (c *Config) Interval() (time.Duration, error) {
	if c.ProgressInterval == "" {
		return 0, nil
	}

	interval, err := time.ParseDuration(c.ProgressInterval)
	if err != nil {
		return 0, fmt.Errorf("%w: progress_interval: %w", ErrInvalid, err)
	}

	return interval, nil
}
