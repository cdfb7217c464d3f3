package validator_test

import (
	"strings"
	"testing"

	"github.com/zanderlewis/weather/pkg/diagnostics"
	"github.com/zanderlewis/weather/pkg/parser"
	"github.com/zanderlewis/weather/pkg/validator"
)

var testTables = validator.Tables{
	Arity: map[string]int{
		"ftoc":     1,
		"dewpoint": 2,
		"abs":      1,
		"qubit":    2,
		"measure":  1,
	},
	Constants: map[string]bool{
		"_pi_":     true,
		"_kelvin_": true,
	},
}

// helper parses source and validates, returning diagnostics from validation only.
// It fatals on parse errors so test cases focus on validator behavior.
func mustParseAndValidate(t *testing.T, source string) []diagnostics.Diagnostic {
	t.Helper()
	prog, parseErrs := parser.Parse(source, "test.wx")
	if len(parseErrs) > 0 {
		t.Fatalf("unexpected parse error: %s", parseErrs[0].Message)
	}
	return validator.Validate(prog, testTables)
}

// assertNoDiags asserts zero diagnostics were produced.
func assertNoDiags(t *testing.T, diags []diagnostics.Diagnostic) {
	t.Helper()
	if len(diags) != 0 {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.Code+": "+d.Message)
		}
		t.Errorf("expected no diagnostics, got %d:\n  %s", len(diags), strings.Join(msgs, "\n  "))
	}
}

// assertDiagCount asserts the expected number of diagnostics.
func assertDiagCount(t *testing.T, diags []diagnostics.Diagnostic, expected int) {
	t.Helper()
	if len(diags) != expected {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.Code+": "+d.Message)
		}
		t.Errorf("expected %d diagnostics, got %d:\n  %s", expected, len(diags), strings.Join(msgs, "\n  "))
	}
}

// assertHasCode asserts that at least one diagnostic with the given code exists.
func assertHasCode(t *testing.T, diags []diagnostics.Diagnostic, code string) {
	t.Helper()
	for _, d := range diags {
		if d.Code == code {
			return
		}
	}
	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	t.Errorf("expected diagnostic code %s, got codes: %v", code, codes)
}

// ===== Valid Programs (zero diagnostics) =====

func TestValid_Programs(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"print literal", `print(42)`},
		{"assignment then use", "x = 1\nprint(x + 1)"},
		{"builtin call", `print(dewpoint(20, 80))`},
		{"constant use", `print(_pi_ * 2)`},
		{"recursion", "function f(n) {\n  if n <= 1 { 1 } else { n * f(n - 1) }\n}\nprint(f(5))"},
		{"function used before declaration", "print(g(1))\nfunction g(x) {\n  x\n}"},
		{"global visible in function", "rate = 2\nfunction s(x) {\n  x * rate\n}"},
		{"user function shadows builtin", "function abs(a, b) {\n  a - b\n}\nprint(abs(3, 1))"},
		{"variable holding function", "function f(x) {\n  x\n}\ng = f\nprint(g(1, 2, 3))"},
		{"if branch binding", "if true {\n  y = 1\n}\nprint(y)"},
		{"nested function", "function outer(a) {\n  function inner(b) {\n    a + b\n  }\n  inner(1)\n}"},
		{"legacy call", "function hi() {\n  print(\"hi\")\n}\ncall(hi())"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertNoDiags(t, mustParseAndValidate(t, tt.src))
		})
	}
}

// ===== Unbound names =====

func TestUndefinedVariable(t *testing.T) {
	diags := mustParseAndValidate(t, `print(nope)`)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EUndefinedVariable)
	if diags[0].Span == nil || diags[0].Span.StartCol != 7 {
		t.Errorf("span = %+v, want column 7", diags[0].Span)
	}
}

func TestUndefinedVariable_FunctionLocalNotGlobal(t *testing.T) {
	src := "function f() {\n  local = 1\n  local\n}\nprint(local)"
	diags := mustParseAndValidate(t, src)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EUndefinedVariable)
}

func TestUndefinedVariable_BuiltinHint(t *testing.T) {
	diags := mustParseAndValidate(t, `x = ftoc`)
	assertHasCode(t, diags, diagnostics.EUndefinedVariable)
	if len(diags) > 0 && !strings.Contains(diags[0].Hint, "builtin") {
		t.Errorf("hint = %q, want a builtin hint", diags[0].Hint)
	}
}

func TestUndefinedFunction(t *testing.T) {
	diags := mustParseAndValidate(t, `print(frobnicate(1))`)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EUndefinedFunction)
	if !strings.Contains(diags[0].Message, "frobnicate") {
		t.Errorf("message %q does not name the function", diags[0].Message)
	}
}

func TestImportsDisableUnboundChecks(t *testing.T) {
	diags := mustParseAndValidate(t, "import \"units\"\nprint(double(half))")
	assertNoDiags(t, diags)
}

// ===== Arity =====

func TestBuiltinArity(t *testing.T) {
	diags := mustParseAndValidate(t, `print(ftoc())`)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EArgument)

	diags = mustParseAndValidate(t, `print(dewpoint(1, 2, 3))`)
	assertHasCode(t, diags, diagnostics.EArgument)
}

func TestUserFunctionArity(t *testing.T) {
	diags := mustParseAndValidate(t, "function add(a, b) {\n  a + b\n}\nprint(add(1))")
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EArgument)
}

func TestUserFunctionArity_RedeclaredSkipsCheck(t *testing.T) {
	src := "function f(a) {\n  a\n}\nfunction f(a, b) {\n  a\n}\nprint(f(1))"
	assertNoDiags(t, mustParseAndValidate(t, src))
}

// ===== Declarations =====

func TestDuplicateParam(t *testing.T) {
	diags := mustParseAndValidate(t, "function f(a, a) {\n  a\n}")
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EDupParam)
}

func TestConstantAssignment(t *testing.T) {
	diags := mustParseAndValidate(t, `_pi_ = 3`)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EConstantAssignment)

	diags = mustParseAndValidate(t, "function _kelvin_() {\n  0\n}")
	assertHasCode(t, diags, diagnostics.EConstantAssignment)
}

func TestCallingConstant(t *testing.T) {
	diags := mustParseAndValidate(t, `print(_pi_(2))`)
	assertDiagCount(t, diags, 1)
	assertHasCode(t, diags, diagnostics.EType)
}

func TestMultipleDiagnostics(t *testing.T) {
	src := "_pi_ = 1\nprint(missing)\nnosuch()"
	diags := mustParseAndValidate(t, src)
	assertDiagCount(t, diags, 3)
	assertHasCode(t, diags, diagnostics.EConstantAssignment)
	assertHasCode(t, diags, diagnostics.EUndefinedVariable)
	assertHasCode(t, diags, diagnostics.EUndefinedFunction)
}
