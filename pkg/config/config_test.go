package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zanderlewis/weather/pkg/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// isolate points HOME at an empty directory and clears the seed override.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.SeedEnv, "")
	return home
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if cfg.Runtime.Precision != 50 || cfg.Runtime.MaxCallDepth != 1000 || cfg.Runtime.MaxQubits != 16 {
		t.Errorf("runtime defaults = %+v", cfg.Runtime)
	}
	if cfg.Runtime.Seed != nil {
		t.Errorf("default seed = %d, want unset", *cfg.Runtime.Seed)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "text" {
		t.Errorf("log defaults = %+v", cfg.Log)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "weather.toml", `
[runtime]
precision = 80
seed = 42
max_qubits = 8

[log]
level = "debug"
format = "json"

[modules]
path = ["lib", "vendor/wx"]
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Runtime.Precision != 80 || cfg.Runtime.MaxQubits != 8 {
		t.Errorf("runtime = %+v", cfg.Runtime)
	}
	if cfg.Runtime.Seed == nil || *cfg.Runtime.Seed != 42 {
		t.Errorf("seed = %v, want 42", cfg.Runtime.Seed)
	}
	if cfg.Runtime.MaxCallDepth != 1000 {
		t.Errorf("missing max_call_depth did not default: %d", cfg.Runtime.MaxCallDepth)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if len(cfg.Modules.Path) != 2 || cfg.Modules.Path[1] != "vendor/wx" {
		t.Errorf("modules.path = %v", cfg.Modules.Path)
	}
	if cfg.Source != path {
		t.Errorf("source = %q, want %q", cfg.Source, path)
	}
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "weather.yaml", `
runtime:
  precision: 60
  max_call_depth: 200
log:
  level: info
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Runtime.Precision != 60 || cfg.Runtime.MaxCallDepth != 200 {
		t.Errorf("runtime = %+v", cfg.Runtime)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.toml", "[runtime\nprecision = ")
	if _, err := config.Load(path); err == nil {
		t.Error("malformed TOML accepted")
	}
	if _, err := config.Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestResolve_Precedence(t *testing.T) {
	home := isolate(t)
	project := t.TempDir()

	cfg, err := config.Resolve("", project)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source != "" {
		t.Errorf("no files: source = %q, want defaults", cfg.Source)
	}

	userPath := writeFile(t, home, ".config/weather/config.toml", "[runtime]\nprecision = 70\n")
	cfg, err = config.Resolve("", project)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source != userPath || cfg.Runtime.Precision != 70 {
		t.Errorf("user config not used: %+v", cfg)
	}

	projectPath := writeFile(t, project, "weather.yaml", "runtime:\n  precision: 90\n")
	cfg, err = config.Resolve("", project)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source != projectPath || cfg.Runtime.Precision != 90 {
		t.Errorf("project config not preferred: %+v", cfg)
	}

	explicit := writeFile(t, t.TempDir(), "custom.toml", "[runtime]\nprecision = 100\n")
	cfg, err = config.Resolve(explicit, project)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source != explicit || cfg.Runtime.Precision != 100 {
		t.Errorf("explicit config not preferred: %+v", cfg)
	}
}

func TestResolve_SeedEnv(t *testing.T) {
	isolate(t)
	t.Setenv(config.SeedEnv, "1234")
	cfg, err := config.Resolve("", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Runtime.Seed == nil || *cfg.Runtime.Seed != 1234 {
		t.Errorf("seed = %v, want 1234", cfg.Runtime.Seed)
	}

	t.Setenv(config.SeedEnv, "not-a-number")
	if _, err := config.Resolve("", t.TempDir()); err == nil {
		t.Error("invalid WEATHER_SEED accepted")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"low precision", func(c *config.Config) { c.Runtime.Precision = 10 }, "runtime.precision"},
		{"zero depth", func(c *config.Config) { c.Runtime.MaxCallDepth = -1 }, "runtime.max_call_depth"},
		{"too many qubits", func(c *config.Config) { c.Runtime.MaxQubits = 30 }, "runtime.max_qubits"},
		{"bad level", func(c *config.Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *config.Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %s", err, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := config.ParseLevel("debug")
	if err != nil || level != slog.LevelDebug {
		t.Errorf("ParseLevel(debug) = %v, %v", level, err)
	}
	if _, err := config.ParseLevel("chatty"); err == nil {
		t.Error("unknown level accepted")
	}
}
