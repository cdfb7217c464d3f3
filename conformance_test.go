package weather_test

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zanderlewis/weather/internal/testutil"
	"github.com/zanderlewis/weather/pkg/config"
	"github.com/zanderlewis/weather/pkg/diagnostics"
	"github.com/zanderlewis/weather/pkg/evaluator"
	"github.com/zanderlewis/weather/pkg/runtime"
)

func TestConformance(t *testing.T) {
	files, err := testutil.ListScenarioFiles(testutil.ScenariosDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatalf("no scenario files under %s", testutil.ScenariosDir)
	}

	for _, file := range files {
		scenarios, err := testutil.LoadScenarios(file)
		if err != nil {
			t.Fatalf("failed to load scenarios: %v", err)
		}
		group := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		for _, sc := range scenarios {
			sc := sc
			t.Run(group+"/"+sc.Name, func(t *testing.T) {
				runScenario(t, sc)
			})
		}
	}
}

func runScenario(t *testing.T, sc testutil.Scenario) {
	t.Helper()

	path, err := testutil.WriteProgram(t.TempDir(), sc)
	if err != nil {
		t.Fatalf("failed to write program: %v", err)
	}

	cfg := config.Default()
	if sc.Precision > 0 {
		cfg.Runtime.Precision = sc.Precision
	}
	seed := uint64(1)
	if sc.Seed != nil {
		seed = *sc.Seed
	}
	var stdout bytes.Buffer
	opts := []runtime.Option{
		runtime.WithConfig(cfg),
		runtime.WithOutput(&stdout),
		runtime.WithSeed(seed),
	}
	if sc.Strict {
		opts = append(opts, runtime.WithStrictValidation())
	}
	rt := runtime.New(opts...)

	var (
		value  evaluator.WValue
		runErr error
	)
	switch sc.Cmd {
	case "check":
		if diags := rt.Check(sc.Source, path); len(diags) > 0 {
			runErr = &runtime.DiagnosticError{Diagnostics: diags}
		}
	case "run":
		var res *runtime.Result
		res, runErr = rt.Run(context.Background(), sc.Source, path)
		if runErr == nil {
			value = res.Value
		}
	default:
		t.Skipf("unsupported command: %s", sc.Cmd)
	}

	if got := runtime.ExitCode(runErr); got != sc.Expect.ExitCode {
		t.Errorf("exit code: got %d, want %d (error: %v)", got, sc.Expect.ExitCode, runErr)
	}
	checkDiagnostics(t, runErr, sc.Expect)
	checkStdout(t, stdout.String(), sc.Expect)
	if sc.Expect.Value != nil && runErr == nil {
		checkValue(t, value, sc.Expect.Value)
	}
}

func checkDiagnostics(t *testing.T, runErr error, expect testutil.Expect) {
	t.Helper()

	if runErr == nil {
		if len(expect.Codes) > 0 {
			t.Errorf("expected diagnostics %v, got none", expect.Codes)
		}
		return
	}
	diags := runtime.DiagnosticsOf(runErr)
	for _, code := range expect.Codes {
		if !diagnostics.HasCode(diags, code) {
			t.Errorf("missing diagnostic %s in %s", code, diagnostics.FormatDiagnostics(diags, false))
		}
	}
	if expect.StderrContains != "" {
		stderr := diagnostics.FormatDiagnostics(diags, false)
		if !strings.Contains(stderr, expect.StderrContains) {
			t.Errorf("stderr should contain %q, got: %s", expect.StderrContains, stderr)
		}
	}
}

func checkStdout(t *testing.T, stdout string, expect testutil.Expect) {
	t.Helper()

	if expect.Stdout != nil && stdout != *expect.Stdout {
		t.Errorf("stdout:\n  got:  %q\n  want: %q", stdout, *expect.Stdout)
	}
	for _, want := range expect.StdoutContains {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout should contain %q, got: %q", want, stdout)
		}
	}
}

func checkValue(t *testing.T, value evaluator.WValue, want any) {
	t.Helper()

	actualJSON, err := evaluator.ValueToJSON(value)
	if err != nil {
		t.Fatalf("failed to serialize result: %v", err)
	}
	wantJSON, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("failed to serialize expected value: %v", err)
	}
	if got, exp := normalizeJSON(t, actualJSON), normalizeJSON(t, wantJSON); got != exp {
		t.Errorf("value JSON:\n  got:  %s\n  want: %s", got, exp)
	}
}

func normalizeJSON(t *testing.T, raw []byte) string {
	t.Helper()
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("failed to parse JSON: %v (raw: %s)", err, string(raw))
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to re-marshal JSON: %v", err)
	}
	return string(b)
}
