// Package formatter implements the Weather source code formatter.
package formatter

import (
	"strings"

	"github.com/zanderlewis/weather/pkg/ast"
)

const indent = "  "

// Precedence table for binary operators (higher = tighter binding)
var precedence = map[ast.BinaryOp]int{
	ast.OpOr:  1,
	ast.OpAnd: 2,
	ast.OpEqEq: 3, ast.OpNeq: 3,
	ast.OpGt: 3, ast.OpLt: 3, ast.OpGtEq: 3, ast.OpLtEq: 3,
	ast.OpAdd: 4, ast.OpSub: 4,
	ast.OpMul: 5, ast.OpDiv: 5, ast.OpMod: 5,
	ast.OpPow: 7,
}

// unaryPrec sits between multiplicative operators and **.
const unaryPrec = 6

func needsParens(child ast.Expr, parentOp ast.BinaryOp, isRight bool) bool {
	parentPrec := precedence[parentOp]
	switch c := child.(type) {
	case *ast.UnaryExpr:
		// The left operand of ** is a primary.
		return parentOp == ast.OpPow && !isRight
	case *ast.BinaryExpr:
		childPrec := precedence[c.Op]
		if childPrec < parentPrec {
			return true
		}
		if childPrec == parentPrec {
			// ** associates to the right, everything else to the left.
			if parentOp == ast.OpPow {
				return !isRight
			}
			return isRight
		}
	}
	return false
}

// Format pretty-prints a Weather AST back to source code.
func Format(program *ast.Program) string {
	var lines []string
	for i, s := range program.Statements {
		// Top-level functions are set off by blank lines.
		_, isFn := s.(*ast.FnDecl)
		if i > 0 && (isFn || isFnDecl(program.Statements[i-1])) {
			lines = append(lines, "")
		}
		lines = append(lines, formatStmt(s, 0))
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func isFnDecl(s ast.Stmt) bool {
	_, ok := s.(*ast.FnDecl)
	return ok
}

// HasComments checks if a source string contains comments (# prefix).
func HasComments(source string) bool {
	lines := strings.Split(source, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return true
		}
		// Check for inline comments (# after code)
		// Be careful not to flag # inside strings
		inString := false
		for i := 0; i < len(trimmed); i++ {
			if trimmed[i] == '\\' && inString {
				i++
				continue
			}
			if trimmed[i] == '"' {
				inString = !inString
			}
			if !inString && trimmed[i] == '#' {
				return true
			}
		}
	}
	return false
}

func formatStmt(s ast.Stmt, depth int) string {
	prefix := strings.Repeat(indent, depth)
	switch stmt := s.(type) {
	case *ast.AssignStmt:
		return prefix + stmt.Target.Name + " = " + formatExpr(stmt.Value)
	case *ast.ExprStmt:
		return prefix + formatExpr(stmt.Expr)
	case *ast.PrintStmt:
		return prefix + "print(" + formatExpr(stmt.Value) + ")"
	case *ast.Block:
		return prefix + formatBlock(stmt, depth)
	case *ast.IfStmt:
		return prefix + formatIf(stmt, depth)
	case *ast.FnDecl:
		params := strings.Join(stmt.Params, ", ")
		return prefix + "function " + stmt.Name + "(" + params + ") " + formatBlock(stmt.Body, depth)
	case *ast.ImportStmt:
		return prefix + "import " + quote(stmt.Path)
	}
	return ""
}

// formatBlock renders a brace block whose opening brace continues the current line.
func formatBlock(b *ast.Block, depth int) string {
	if len(b.Statements) == 0 {
		return "{\n" + strings.Repeat(indent, depth) + "}"
	}
	lines := make([]string, len(b.Statements))
	for i, s := range b.Statements {
		lines[i] = formatStmt(s, depth+1)
	}
	return "{\n" + strings.Join(lines, "\n") + "\n" + strings.Repeat(indent, depth) + "}"
}

func formatIf(s *ast.IfStmt, depth int) string {
	out := "if (" + formatExpr(s.Cond) + ") " + formatBlock(s.Then, depth)
	switch e := s.Else.(type) {
	case *ast.IfStmt:
		out += " else " + formatIf(e, depth)
	case *ast.Block:
		out += " else " + formatBlock(e, depth)
	}
	return out
}

func formatExpr(e ast.Expr) string {
	switch expr := e.(type) {
	case *ast.IntLiteral:
		return expr.Text
	case *ast.RatLiteral:
		return expr.Text
	case *ast.BoolLiteral:
		if expr.Value {
			return "true"
		}
		return "false"
	case *ast.StrLiteral:
		return quote(expr.Value)
	case *ast.Ident:
		return expr.Name
	case *ast.CallExpr:
		args := make([]string, len(expr.Args))
		for i, a := range expr.Args {
			args[i] = formatExpr(a)
		}
		return expr.Callee.Name + "(" + strings.Join(args, ", ") + ")"
	case *ast.UnaryExpr:
		operand := formatExpr(expr.Operand)
		if bin, ok := expr.Operand.(*ast.BinaryExpr); ok && precedence[bin.Op] < unaryPrec {
			operand = "(" + operand + ")"
		}
		if expr.Op == ast.OpNot {
			return "not " + operand
		}
		return "-" + operand
	case *ast.BinaryExpr:
		left := formatExpr(expr.Left)
		if needsParens(expr.Left, expr.Op, false) {
			left = "(" + left + ")"
		}
		right := formatExpr(expr.Right)
		if needsParens(expr.Right, expr.Op, true) {
			right = "(" + right + ")"
		}
		return left + " " + string(expr.Op) + " " + right
	}
	return ""
}

// quote renders s as a string literal using only the escapes the lexer reads.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
