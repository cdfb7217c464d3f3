// Package testutil provides shared test helpers for Weather Go tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ScenariosDir is the relative path from the module root to the scenario files.
const ScenariosDir = "testdata/scenarios"

// Scenario is one end-to-end case: a program, how to invoke it, and what it must produce.
type Scenario struct {
	Name string `yaml:"name"`
	// Cmd is "run" (default) or "check".
	Cmd    string `yaml:"cmd"`
	Source string `yaml:"source"`
	// Files are extra modules written next to the program, keyed by relative path.
	Files     map[string]string `yaml:"files"`
	Seed      *uint64           `yaml:"seed"`
	Precision int               `yaml:"precision"`
	Strict    bool              `yaml:"strict"`
	Tags      []string          `yaml:"tags"`
	Expect    Expect            `yaml:"expect"`
}

// Expect describes the expected outcome of a scenario. Empty fields are not checked.
type Expect struct {
	ExitCode       int      `yaml:"exit_code"`
	Stdout         *string  `yaml:"stdout"`
	StdoutContains []string `yaml:"stdout_contains"`
	// Value is compared against the JSON form of the program's last value.
	Value          any      `yaml:"value"`
	Codes          []string `yaml:"codes"`
	StderrContains string   `yaml:"stderr_contains"`
}

// LoadScenarios reads every scenario in a YAML file. The file holds a list of scenarios.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scenarios []Scenario
	if err := yaml.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for i := range scenarios {
		if scenarios[i].Name == "" {
			return nil, fmt.Errorf("%s: scenario %d has no name", path, i)
		}
		if scenarios[i].Cmd == "" {
			scenarios[i].Cmd = "run"
		}
	}
	return scenarios, nil
}

// ListScenarioFiles returns the YAML scenario files under root, sorted.
func ListScenarioFiles(root string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// WriteProgram lays out the scenario's program and extra modules in dir and
// returns the program's path.
func WriteProgram(dir string, s Scenario) (string, error) {
	for name, source := range s.Files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
			return "", err
		}
	}
	main := filepath.Join(dir, "main.wx")
	if err := os.WriteFile(main, []byte(s.Source), 0o644); err != nil {
		return "", err
	}
	return main, nil
}
