package parser_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/zanderlewis/weather/pkg/ast"
	"github.com/zanderlewis/weather/pkg/diagnostics"
	"github.com/zanderlewis/weather/pkg/parser"
)

// helper: parse source and assert no diagnostics
func mustParse(t *testing.T, source string) *ast.Program {
	t.Helper()
	prog, diags := parser.Parse(source, "test.wx")
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if prog == nil {
		t.Fatal("expected non-nil program")
	}
	return prog
}

// helper: parse source and return the diagnostics it must produce
func mustFail(t *testing.T, source string) []diagnostics.Diagnostic {
	t.Helper()
	prog, diags := parser.Parse(source, "test.wx")
	if len(diags) == 0 || prog != nil {
		t.Fatalf("expected parse of %q to fail, but it succeeded", source)
	}
	return diags
}

// helper: extract the single statement from a program, assert it is an ExprStmt, return its Expr
func singleExpr(t *testing.T, source string) ast.Expr {
	t.Helper()
	prog := mustParse(t, source)
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
	es, ok := prog.Statements[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected ExprStmt, got %T", prog.Statements[0])
	}
	return es.Expr
}

// render prints an expression fully parenthesized so tests can check grouping.
func render(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.IntLiteral:
		return n.Text
	case *ast.RatLiteral:
		return n.Text
	case *ast.StrLiteral:
		return fmt.Sprintf("%q", n.Value)
	case *ast.BoolLiteral:
		return fmt.Sprint(n.Value)
	case *ast.Ident:
		return n.Name
	case *ast.UnaryExpr:
		return fmt.Sprintf("(%s %s)", n.Op, render(n.Operand))
	case *ast.BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", render(n.Left), n.Op, render(n.Right))
	case *ast.CallExpr:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = render(a)
		}
		return fmt.Sprintf("%s(%s)", n.Callee.Name, strings.Join(args, ", "))
	default:
		return fmt.Sprintf("<%T>", e)
	}
}

// ---- Literals ----

func TestLiterals(t *testing.T) {
	tests := []struct {
		source string
		kind   string
	}{
		{"42", "IntLiteral"},
		{"3.14", "RatLiteral"},
		{`"hi"`, "StrLiteral"},
		{"true", "BoolLiteral"},
		{"false", "BoolLiteral"},
		{"x", "Ident"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := singleExpr(t, tt.source).Kind(); got != tt.kind {
				t.Errorf("got %s, want %s", got, tt.kind)
			}
		})
	}
}

func TestBigIntegerLiteralKeepsDigits(t *testing.T) {
	e := singleExpr(t, "123456789012345678901234567890")
	if lit := e.(*ast.IntLiteral); lit.Text != "123456789012345678901234567890" {
		t.Errorf("got %q", lit.Text)
	}
}

// ---- Precedence ----

func TestPrecedence(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"8 / 4 / 2", "((8 / 4) / 2)"},
		{"7 % 3 * 2", "((7 % 3) * 2)"},
		{"-x + 1", "((- x) + 1)"},
		{"- - x", "(- (- x))"},
		{"2 ** 3 ** 2", "(2 ** (3 ** 2))"},
		{"-2 ** 2", "(- (2 ** 2))"},
		{"2 ** -1", "(2 ** (- 1))"},
		{"2 * 3 ** 2", "(2 * (3 ** 2))"},
		{"1 + 2 < 4", "((1 + 2) < 4)"},
		{"a == b and c != d", "((a == b) and (c != d))"},
		{"a or b and c", "(a or (b and c))"},
		{"not a and b", "((not a) and b)"},
		{"!a or b", "((not a) or b)"},
		{"x >= 1 or x <= -1", "((x >= 1) or (x <= (- 1)))"},
		{"f(1 + 2, g(x)) * 2", "(f((1 + 2), g(x)) * 2)"},
		{"ftoc()", "ftoc()"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := render(singleExpr(t, tt.source)); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

// ---- Statements ----

func TestAssignment(t *testing.T) {
	prog := mustParse(t, "x = 1 + 2")
	as, ok := prog.Statements[0].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("expected AssignStmt, got %T", prog.Statements[0])
	}
	if as.Target.Name != "x" {
		t.Errorf("target = %q", as.Target.Name)
	}
	if got := render(as.Value); got != "(1 + 2)" {
		t.Errorf("value = %s", got)
	}
}

func TestPrintStatement(t *testing.T) {
	prog := mustParse(t, `print("a" + "b")`)
	ps, ok := prog.Statements[0].(*ast.PrintStmt)
	if !ok {
		t.Fatalf("expected PrintStmt, got %T", prog.Statements[0])
	}
	if got := render(ps.Value); got != `("a" + "b")` {
		t.Errorf("value = %s", got)
	}
}

func TestFunctionDecl(t *testing.T) {
	prog := mustParse(t, `function add(a, b) {
    s = a + b
    s
}`)
	fn, ok := prog.Statements[0].(*ast.FnDecl)
	if !ok {
		t.Fatalf("expected FnDecl, got %T", prog.Statements[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 || fn.Params[0] != "a" || fn.Params[1] != "b" {
		t.Errorf("unexpected decl: %+v", fn)
	}
	if len(fn.Body.Statements) != 2 {
		t.Fatalf("expected 2 body statements, got %d", len(fn.Body.Statements))
	}
	if _, ok := fn.Body.Statements[1].(*ast.ExprStmt); !ok {
		t.Errorf("expected trailing ExprStmt, got %T", fn.Body.Statements[1])
	}
}

func TestFunctionNoParams(t *testing.T) {
	prog := mustParse(t, "function f() { 1 }")
	if fn := prog.Statements[0].(*ast.FnDecl); len(fn.Params) != 0 {
		t.Errorf("expected no params, got %v", fn.Params)
	}
}

func TestIfElseChain(t *testing.T) {
	prog := mustParse(t, `if (x > 0) {
    print("pos")
} else if (x < 0) {
    print("neg")
} else {
    print("zero")
}`)
	ifs, ok := prog.Statements[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected IfStmt, got %T", prog.Statements[0])
	}
	nested, ok := ifs.Else.(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected nested IfStmt in else, got %T", ifs.Else)
	}
	if _, ok := nested.Else.(*ast.Block); !ok {
		t.Fatalf("expected final else Block, got %T", nested.Else)
	}
	if ifs.Span.StartLine != 1 || ifs.Span.EndLine != 7 {
		t.Errorf("if span = %+v", ifs.Span)
	}
}

func TestIfWithoutElse(t *testing.T) {
	prog := mustParse(t, "if (true) { x = 1 }")
	if ifs := prog.Statements[0].(*ast.IfStmt); ifs.Else != nil {
		t.Errorf("expected nil else, got %T", ifs.Else)
	}
}

func TestBlockStatement(t *testing.T) {
	prog := mustParse(t, "{\n  a = 1\n  b = 2\n}")
	blk, ok := prog.Statements[0].(*ast.Block)
	if !ok {
		t.Fatalf("expected Block, got %T", prog.Statements[0])
	}
	if len(blk.Statements) != 2 {
		t.Errorf("expected 2 statements, got %d", len(blk.Statements))
	}
}

func TestImport(t *testing.T) {
	prog := mustParse(t, `import "thermo"`)
	imp, ok := prog.Statements[0].(*ast.ImportStmt)
	if !ok || imp.Path != "thermo" {
		t.Fatalf("unexpected import: %#v", prog.Statements[0])
	}
}

func TestLegacyCall(t *testing.T) {
	e := singleExpr(t, "call(hadamard(q))")
	if got := render(e); got != "hadamard(q)" {
		t.Errorf("got %s", got)
	}
	d := mustFail(t, "call(1 + 2)")
	if !strings.Contains(d[0].Message, "expected function call") {
		t.Errorf("unexpected message: %s", d[0].Message)
	}
}

// ---- Line breaks ----

func TestStatementsSeparatedByLineBreaks(t *testing.T) {
	prog := mustParse(t, "x = 1\ny = 2\nprint(x + y)")
	if len(prog.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(prog.Statements))
	}
}

func TestOperatorOnNextLineStartsNewStatement(t *testing.T) {
	prog := mustParse(t, "x = a\n-b")
	if len(prog.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Statements))
	}
	if got := render(prog.Statements[1].(*ast.ExprStmt).Expr); got != "(- b)" {
		t.Errorf("second statement = %s", got)
	}
}

func TestTrailingOperatorContinuesLine(t *testing.T) {
	prog := mustParse(t, "x = 1 +\n  2")
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
}

func TestLineBreaksInsideParens(t *testing.T) {
	e := singleExpr(t, "f(1,\n  2\n  + 3)")
	if got := render(e); got != "f(1, (2 + 3))" {
		t.Errorf("got %s", got)
	}
}

func TestTwoStatementsOnOneLine(t *testing.T) {
	d := mustFail(t, "x = 1 y = 2")
	if !strings.Contains(d[0].Message, "line break") {
		t.Errorf("unexpected message: %s", d[0].Message)
	}
}

// ---- Errors ----

func TestParseErrors(t *testing.T) {
	tests := []struct {
		source   string
		code     string
		fragment string
	}{
		{"x = ", diagnostics.EUnexpectedEOF, "expected expression"},
		{"f(1, 2", diagnostics.EUnexpectedEOF, "')'"},
		{"if (x) {", diagnostics.EUnexpectedEOF, "'}'"},
		{"function (a) {}", diagnostics.EParse, "function name"},
		{"function f(a b) {}", diagnostics.EParse, "')'"},
		{"x = )", diagnostics.EParse, "got ')'"},
		{"if true print(1)", diagnostics.EParse, "'{'"},
		{"y = print(1)", diagnostics.EParse, "print is a statement"},
		{`import thermo`, diagnostics.EParse, "module name"},
		{"x = @", diagnostics.ELex, "unexpected character"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			d := mustFail(t, tt.source)
			if d[0].Code != tt.code {
				t.Errorf("code = %s, want %s", d[0].Code, tt.code)
			}
			if !strings.Contains(d[0].Message, tt.fragment) {
				t.Errorf("message %q does not contain %q", d[0].Message, tt.fragment)
			}
			if d[0].Span == nil {
				t.Error("expected a span")
			}
		})
	}
}

func TestIsIncomplete(t *testing.T) {
	_, diags := parser.Parse("function f(x) {\n  x + 1\n", "repl")
	if !parser.IsIncomplete(diags) {
		t.Errorf("expected incomplete, got %v", diags)
	}
	_, diags = parser.Parse("x = )", "repl")
	if parser.IsIncomplete(diags) {
		t.Errorf("expected complete error, got %v", diags)
	}
	if parser.IsIncomplete(nil) {
		t.Error("nil diagnostics are not incomplete")
	}
}

func TestEmptyProgram(t *testing.T) {
	prog := mustParse(t, "# only a comment\n")
	if len(prog.Statements) != 0 {
		t.Errorf("expected no statements, got %d", len(prog.Statements))
	}
}

func TestSpans(t *testing.T) {
	prog := mustParse(t, "\nx = ftoc(212)")
	as := prog.Statements[0].(*ast.AssignStmt)
	want := ast.Span{File: "test.wx", StartLine: 2, StartCol: 1, EndLine: 2, EndCol: 14}
	if as.Span != want {
		t.Errorf("span = %+v, want %+v", as.Span, want)
	}
}
