// Package config loads Weather interpreter settings from TOML or YAML files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// SeedEnv names the environment variable that overrides the measurement seed.
const SeedEnv = "WEATHER_SEED"

// Limits enforced by Validate.
const (
	MinPrecision = 50
	MaxQubits    = 24
)

// Config holds the complete interpreter configuration.
type Config struct {
	Runtime RuntimeConfig `toml:"runtime" yaml:"runtime"`
	Log     LogConfig     `toml:"log" yaml:"log"`
	Modules ModulesConfig `toml:"modules" yaml:"modules"`

	// Source is the file the configuration was read from, empty for defaults.
	Source string `toml:"-" yaml:"-"`
}

// RuntimeConfig holds evaluator and simulator settings.
type RuntimeConfig struct {
	// Precision is the number of significant digits printed for non-terminating rationals.
	Precision int `toml:"precision" yaml:"precision"`
	// Seed makes quantum measurements reproducible; nil seeds from the clock.
	Seed         *uint64 `toml:"seed" yaml:"seed"`
	MaxCallDepth int     `toml:"max_call_depth" yaml:"max_call_depth"`
	MaxQubits    int     `toml:"max_qubits" yaml:"max_qubits"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// ModulesConfig holds the directories searched by import.
type ModulesConfig struct {
	Path []string `toml:"path" yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Runtime.Precision == 0 {
		c.Runtime.Precision = MinPrecision
	}
	if c.Runtime.MaxCallDepth == 0 {
		c.Runtime.MaxCallDepth = 1000
	}
	if c.Runtime.MaxQubits == 0 {
		c.Runtime.MaxQubits = 16
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Load reads a configuration file. Files ending in .yaml or .yml are read as
// YAML, anything else as TOML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.Source = path
	cfg.applyDefaults()
	return &cfg, nil
}

// Resolve finds and loads the configuration.
// Precedence: explicit path → project (weather.toml, weather.yaml) in
// projectDir → user (~/.config/weather/config.toml) → defaults.
// The WEATHER_SEED environment variable overrides the seed in every case.
func Resolve(explicit, projectDir string) (*Config, error) {
	cfg, err := find(explicit, projectDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func find(explicit, projectDir string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}

	for _, name := range []string{"weather.toml", "weather.yaml", "weather.yml"} {
		path := filepath.Join(projectDir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(homeDir, ".config", "weather", "config.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return Default(), nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	raw, ok := lookup(SeedEnv)
	if !ok || raw == "" {
		return nil
	}
	seed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", SeedEnv, err)
	}
	c.Runtime.Seed = &seed
	return nil
}

// Validate checks that every setting is in range.
func (c *Config) Validate() error {
	var errs []error
	if c.Runtime.Precision < MinPrecision {
		errs = append(errs, fmt.Errorf("runtime.precision must be at least %d, got %d", MinPrecision, c.Runtime.Precision))
	}
	if c.Runtime.MaxCallDepth <= 0 {
		errs = append(errs, fmt.Errorf("runtime.max_call_depth must be positive, got %d", c.Runtime.MaxCallDepth))
	}
	if c.Runtime.MaxQubits < 1 || c.Runtime.MaxQubits > MaxQubits {
		errs = append(errs, fmt.Errorf("runtime.max_qubits must be between 1 and %d, got %d", MaxQubits, c.Runtime.MaxQubits))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be \"text\" or \"json\", got %q", c.Log.Format))
	}
	if len(errs) > 0 {
		if c.Source != "" {
			return fmt.Errorf("invalid config %s: %w", c.Source, errors.Join(errs...))
		}
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ParseLevel maps a level name onto a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("log.level: unknown level %q", name)
	}
	return level, nil
}
