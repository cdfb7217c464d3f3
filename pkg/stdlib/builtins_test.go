package stdlib_test

import (
	"context"
	"errors"
	"testing"

	"github.com/zanderlewis/weather/pkg/diagnostics"
	"github.com/zanderlewis/weather/pkg/evaluator"
	"github.com/zanderlewis/weather/pkg/numeric"
	"github.com/zanderlewis/weather/pkg/quantum"
	"github.com/zanderlewis/weather/pkg/stdlib"
)

func call(t *testing.T, sim *quantum.Simulator, name string, args ...evaluator.WValue) (evaluator.WValue, error) {
	t.Helper()
	fn := stdlib.Default().Get(name)
	if fn == nil {
		t.Fatalf("builtin %s not registered", name)
	}
	if len(args) != fn.Arity() {
		t.Fatalf("%s takes %d args, test passed %d", name, fn.Arity(), len(args))
	}
	return fn.Execute(&evaluator.Call{Ctx: context.Background(), Name: name, Sim: sim}, args)
}

func dec(s string) evaluator.WValue {
	return evaluator.NewNumber(numeric.MustDecimal(s))
}

func formatted(v evaluator.WValue) string {
	return evaluator.FormatValue(v, numeric.DefaultPrecision)
}

func TestRegisterDefaults_Names(t *testing.T) {
	reg := stdlib.Default()
	want := []string{
		"abs", "ceil", "cnot", "ctof", "ctok", "denominator", "dewpoint", "discard",
		"floor", "fredkin", "ftoc", "ftok", "hadamard", "ktoc", "ktof", "max", "measure",
		"min", "numerator", "pauli_x", "paulix", "pauliy", "pauliz", "phase", "probability", "qubit",
		"qubit_at", "reset", "sgate", "str", "swap", "tgate", "toffoli", "type",
	}
	got := reg.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	for _, name := range got {
		if reg.Get(name).Doc == "" {
			t.Errorf("%s has no doc", name)
		}
	}
}

func TestConstants(t *testing.T) {
	reg := stdlib.Default()
	tests := map[string]string{
		"_kelvin_":    "273.15",
		"_rd_":        "287.05",
		"_cp_":        "1005",
		"_p0_":        "101325",
		"_lv_":        "2260000",
		"_cw_":        "4184",
		"_rho_air_":   "1200",
		"_rho_water_": "1000",
		"_g_":         "9.81",
	}
	for name, want := range tests {
		v, ok := reg.Constants()[name]
		if !ok {
			t.Errorf("constant %s missing", name)
			continue
		}
		if got := formatted(v); got != want {
			t.Errorf("%s = %s, want %s", name, got, want)
		}
		if _, ok := stdlib.ConstantDoc(name); !ok {
			t.Errorf("%s has no doc", name)
		}
	}
	pi := formatted(reg.Constants()["_pi_"])
	if len(pi) != 102 || pi[:10] != "3.14159265" {
		t.Errorf("_pi_ = %s, want 100 decimal places", pi)
	}
	if len(reg.ConstantNames()) != 10 {
		t.Errorf("ConstantNames() = %v, want 10", reg.ConstantNames())
	}
}

func TestConversions(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"ftoc", "98.6", "37"},
		{"ftoc", "-40", "-40"},
		{"ctof", "37", "98.6"},
		{"ctok", "-273.15", "0"},
		{"ktoc", "300", "26.85"},
		{"ftok", "212", "373.15"},
		{"ktof", "0", "-459.67"},
	}
	for _, tt := range tests {
		t.Run(tt.name+"("+tt.arg+")", func(t *testing.T) {
			got, err := call(t, nil, tt.name, dec(tt.arg))
			if err != nil {
				t.Fatal(err)
			}
			if formatted(got) != tt.want {
				t.Errorf("%s(%s) = %s, want %s", tt.name, tt.arg, formatted(got), tt.want)
			}
		})
	}
}

func TestConversions_RoundTrip(t *testing.T) {
	for _, x := range []string{"0", "1", "-17.5", "100.125", "451"} {
		c, err := call(t, nil, "ftoc", dec(x))
		if err != nil {
			t.Fatal(err)
		}
		f, err := call(t, nil, "ctof", c)
		if err != nil {
			t.Fatal(err)
		}
		if !evaluator.Equal(f, dec(x)) {
			t.Errorf("ctof(ftoc(%s)) = %s", x, formatted(f))
		}
		k, _ := call(t, nil, "ctok", dec(x))
		back, _ := call(t, nil, "ktoc", k)
		if !evaluator.Equal(back, dec(x)) {
			t.Errorf("ktoc(ctok(%s)) = %s", x, formatted(back))
		}
	}
}

func TestDewpoint(t *testing.T) {
	got, err := call(t, nil, "dewpoint", dec("0"), dec("7"))
	if err != nil {
		t.Fatal(err)
	}
	if formatted(got) != "-18.6" {
		t.Errorf("dewpoint(0, 7) = %s, want -18.6", formatted(got))
	}
	got, _ = call(t, nil, "dewpoint", dec("25"), dec("60"))
	if formatted(got) != "17" {
		t.Errorf("dewpoint(25, 60) = %s, want 17", formatted(got))
	}
}

func TestMath(t *testing.T) {
	tests := []struct {
		name string
		args []evaluator.WValue
		want string
	}{
		{"abs", []evaluator.WValue{dec("-2.5")}, "2.5"},
		{"abs", []evaluator.WValue{evaluator.NewInt(3)}, "3"},
		{"min", []evaluator.WValue{evaluator.NewInt(3), dec("2.5")}, "2.5"},
		{"max", []evaluator.WValue{evaluator.NewInt(3), dec("2.5")}, "3"},
		{"floor", []evaluator.WValue{dec("-2.5")}, "-3"},
		{"ceil", []evaluator.WValue{dec("-2.5")}, "-2"},
		{"floor", []evaluator.WValue{dec("2.5")}, "2"},
		{"ceil", []evaluator.WValue{dec("2.5")}, "3"},
		{"numerator", []evaluator.WValue{dec("0.75")}, "3"},
		{"denominator", []evaluator.WValue{dec("0.75")}, "4"},
		{"denominator", []evaluator.WValue{evaluator.NewInt(9)}, "1"},
		{"str", []evaluator.WValue{dec("0.5")}, "0.5"},
		{"type", []evaluator.WValue{evaluator.NewString("x")}, "String"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(t, nil, tt.name, tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			if formatted(got) != tt.want {
				t.Errorf("%s = %s, want %s", tt.name, formatted(got), tt.want)
			}
		})
	}
}

func TestMath_TypeError(t *testing.T) {
	_, err := call(t, nil, "abs", evaluator.NewString("x"))
	var rtErr *evaluator.RuntimeError
	if !errors.As(err, &rtErr) || rtErr.Code != diagnostics.EType {
		t.Fatalf("err = %v, want E_TYPE", err)
	}
}

func TestQuantumBuiltins(t *testing.T) {
	sim := quantum.NewSeeded(1, 4)

	q, err := call(t, sim, "qubit", evaluator.NewInt(2), evaluator.NewInt(2))
	if err != nil {
		t.Fatal(err)
	}
	q1, err := call(t, sim, "qubit_at", q, evaluator.NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	// Basis 2 = 0b10: qubit 0 is |0>, qubit 1 is |1>.
	if m, _ := call(t, sim, "measure", q); formatted(m) != "0" {
		t.Errorf("measure(q0) = %s, want 0", formatted(m))
	}
	if m, _ := call(t, sim, "measure", q1); formatted(m) != "1" {
		t.Errorf("measure(q1) = %s, want 1", formatted(m))
	}

	if _, err := call(t, sim, "reset", q1); err != nil {
		t.Fatal(err)
	}
	if m, _ := call(t, sim, "measure", q1); formatted(m) != "0" {
		t.Errorf("measure after reset = %s, want 0", formatted(m))
	}

	if _, err := call(t, sim, "discard", q); err != nil {
		t.Fatal(err)
	}
	_, err = call(t, sim, "measure", q1)
	var rtErr *evaluator.RuntimeError
	if !errors.As(err, &rtErr) || rtErr.Code != diagnostics.EInvalidQubit {
		t.Fatalf("measure after discard: err = %v, want E_INVALID_QUBIT", err)
	}
}

func TestQuantumBuiltins_Errors(t *testing.T) {
	sim := quantum.NewSeeded(1, 4)
	tests := []struct {
		name string
		args []evaluator.WValue
		code string
	}{
		{"qubit", []evaluator.WValue{evaluator.NewInt(0), evaluator.NewInt(5)}, diagnostics.EArgument},
		{"qubit", []evaluator.WValue{evaluator.NewInt(4), evaluator.NewInt(2)}, diagnostics.EArgument},
		{"qubit", []evaluator.WValue{dec("0.5"), evaluator.NewInt(1)}, diagnostics.EType},
		{"hadamard", []evaluator.WValue{evaluator.NewString("q")}, diagnostics.EType},
		{"measure", []evaluator.WValue{evaluator.NewQubit(quantum.Handle{ID: 99})}, diagnostics.EInvalidQubit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := call(t, sim, tt.name, tt.args...)
			var rtErr *evaluator.RuntimeError
			if !errors.As(err, &rtErr) {
				t.Fatalf("err = %v, want RuntimeError", err)
			}
			if rtErr.Code != tt.code {
				t.Errorf("code = %s, want %s (%s)", rtErr.Code, tt.code, rtErr.Message)
			}
		})
	}
}

func TestGatesReturnTheirQubit(t *testing.T) {
	sim := quantum.NewSeeded(3, 4)
	q, _ := call(t, sim, "qubit", evaluator.NewInt(0), evaluator.NewInt(1))
	for _, g := range []string{"hadamard", "pauli_x", "paulix", "pauliy", "pauliz", "sgate", "tgate"} {
		got, err := call(t, sim, g, q)
		if err != nil {
			t.Fatalf("%s: %v", g, err)
		}
		if !evaluator.Equal(got, q) {
			t.Errorf("%s returned %s, want its argument", g, formatted(got))
		}
	}
	if _, err := call(t, sim, "phase", q, dec("0.25")); err != nil {
		t.Fatal(err)
	}
}

func TestProbability(t *testing.T) {
	sim := quantum.NewSeeded(5, 4)
	q, _ := call(t, sim, "qubit", evaluator.NewInt(0), evaluator.NewInt(1))
	if _, err := call(t, sim, "hadamard", q); err != nil {
		t.Fatal(err)
	}
	p, err := call(t, sim, "probability", q, evaluator.NewInt(0))
	if err != nil {
		t.Fatal(err)
	}
	if formatted(p) != "0.5" {
		t.Errorf("probability = %s, want 0.5", formatted(p))
	}
	if _, err := call(t, sim, "probability", q, evaluator.NewInt(2)); err == nil {
		t.Error("outcome 2 accepted")
	}
}

func TestTwoQubitGates(t *testing.T) {
	sim := quantum.NewSeeded(9, 4)
	one := func() evaluator.WValue {
		q, _ := call(t, sim, "qubit", evaluator.NewInt(1), evaluator.NewInt(1))
		return q
	}
	zero := func() evaluator.WValue {
		q, _ := call(t, sim, "qubit", evaluator.NewInt(0), evaluator.NewInt(1))
		return q
	}

	c, tq := one(), zero()
	if _, err := call(t, sim, "cnot", c, tq); err != nil {
		t.Fatal(err)
	}
	if m, _ := call(t, sim, "measure", tq); formatted(m) != "1" {
		t.Errorf("cnot target = %s, want 1", formatted(m))
	}

	a, b := one(), zero()
	if _, err := call(t, sim, "swap", a, b); err != nil {
		t.Fatal(err)
	}
	if m, _ := call(t, sim, "measure", b); formatted(m) != "1" {
		t.Errorf("swapped qubit = %s, want 1", formatted(m))
	}

	c1, c2, target := one(), one(), zero()
	if _, err := call(t, sim, "toffoli", c1, c2, target); err != nil {
		t.Fatal(err)
	}
	if m, _ := call(t, sim, "measure", target); formatted(m) != "1" {
		t.Errorf("toffoli target = %s, want 1", formatted(m))
	}

	ctl, x, y := zero(), one(), zero()
	if _, err := call(t, sim, "fredkin", ctl, x, y); err != nil {
		t.Fatal(err)
	}
	if m, _ := call(t, sim, "measure", x); formatted(m) != "1" {
		t.Errorf("fredkin with control 0 moved a qubit")
	}
}
