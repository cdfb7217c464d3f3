// Package validator implements semantic validation of Weather AST programs.
//
// Validation is static and flow-insensitive: a name counts as bound in a scope
// if any statement of that scope binds it. Programs that import modules skip
// the unbound-name checks, since imported modules bind globals at run time.
package validator

import (
	"fmt"

	"github.com/zanderlewis/weather/pkg/ast"
	"github.com/zanderlewis/weather/pkg/diagnostics"
)

// Tables describes the builtin functions and constants a program may use.
type Tables struct {
	// Arity maps each builtin name to its required argument count.
	Arity     map[string]int
	Constants map[string]bool
}

type scope struct {
	bindings map[string]bool
	parent   *scope
}

func newScope(parent *scope) *scope {
	return &scope{bindings: make(map[string]bool), parent: parent}
}

func (s *scope) has(name string) bool {
	if s.bindings[name] {
		return true
	}
	if s.parent != nil {
		return s.parent.has(name)
	}
	return false
}

func (s *scope) add(name string) {
	s.bindings[name] = true
}

type validator struct {
	diags      []diagnostics.Diagnostic
	tables     Tables
	hasImports bool
	// fnArity records the parameter counts declared for each function name.
	fnArity map[string]map[int]bool
	// assigned holds names that are bound by assignment or as a parameter somewhere.
	assigned map[string]bool
}

// Validate performs semantic analysis on a program and returns diagnostics.
func Validate(program *ast.Program, tables Tables) []diagnostics.Diagnostic {
	v := &validator{
		tables:   tables,
		fnArity:  make(map[string]map[int]bool),
		assigned: make(map[string]bool),
	}
	v.survey(program.Statements)

	global := newScope(nil)
	v.collect(program.Statements, global)
	v.validateStatements(program.Statements, global)
	return v.diags
}

func (v *validator) addDiag(code, msg string, span ast.Span, hint string) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, &span, hint))
}

// survey walks the whole program once, recording imports, function arities
// and every name bound by assignment or as a parameter.
func (v *validator) survey(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.ImportStmt:
			v.hasImports = true
		case *ast.AssignStmt:
			v.assigned[s.Target.Name] = true
		case *ast.FnDecl:
			if v.fnArity[s.Name] == nil {
				v.fnArity[s.Name] = make(map[int]bool)
			}
			v.fnArity[s.Name][len(s.Params)] = true
			for _, p := range s.Params {
				v.assigned[p] = true
			}
			v.survey(s.Body.Statements)
		case *ast.Block:
			v.survey(s.Statements)
		case *ast.IfStmt:
			v.surveyIf(s)
		}
	}
}

func (v *validator) surveyIf(s *ast.IfStmt) {
	v.survey(s.Then.Statements)
	if s.Else != nil {
		v.survey([]ast.Stmt{s.Else})
	}
}

// collect adds the names bound by stmts to sc. Blocks and if branches share
// the enclosing scope; function bodies get their own.
func (v *validator) collect(stmts []ast.Stmt, sc *scope) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.AssignStmt:
			sc.add(s.Target.Name)
		case *ast.FnDecl:
			sc.add(s.Name)
		case *ast.Block:
			v.collect(s.Statements, sc)
		case *ast.IfStmt:
			v.collect(s.Then.Statements, sc)
			if s.Else != nil {
				v.collect([]ast.Stmt{s.Else}, sc)
			}
		}
	}
}

func (v *validator) validateStatements(stmts []ast.Stmt, sc *scope) {
	for _, stmt := range stmts {
		v.validateStmt(stmt, sc)
	}
}

func (v *validator) validateStmt(stmt ast.Stmt, sc *scope) {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		if v.tables.Constants[s.Target.Name] {
			v.addDiag(diagnostics.EConstantAssignment,
				fmt.Sprintf("cannot assign to constant '%s'", s.Target.Name), s.Target.Span, "")
		}
		v.validateExpr(s.Value, sc)

	case *ast.ExprStmt:
		v.validateExpr(s.Expr, sc)

	case *ast.PrintStmt:
		v.validateExpr(s.Value, sc)

	case *ast.Block:
		v.validateStatements(s.Statements, sc)

	case *ast.IfStmt:
		v.validateExpr(s.Cond, sc)
		v.validateStatements(s.Then.Statements, sc)
		if s.Else != nil {
			v.validateStmt(s.Else, sc)
		}

	case *ast.FnDecl:
		if v.tables.Constants[s.Name] {
			v.addDiag(diagnostics.EConstantAssignment,
				fmt.Sprintf("function '%s' redefines a constant", s.Name), s.Span, "")
		}
		child := newScope(sc)
		seen := make(map[string]bool, len(s.Params))
		for _, p := range s.Params {
			if seen[p] {
				v.addDiag(diagnostics.EDupParam,
					fmt.Sprintf("duplicate parameter '%s' in function '%s'", p, s.Name), s.Span, "")
			}
			seen[p] = true
			child.add(p)
		}
		v.collect(s.Body.Statements, child)
		v.validateStatements(s.Body.Statements, child)

	case *ast.ImportStmt:
		// resolved at run time
	}
}

func (v *validator) validateExpr(expr ast.Expr, sc *scope) {
	if expr == nil {
		return
	}

	switch e := expr.(type) {
	case *ast.IntLiteral, *ast.RatLiteral, *ast.BoolLiteral, *ast.StrLiteral:
		// literals are always valid

	case *ast.Ident:
		if !v.hasImports && !sc.has(e.Name) && !v.tables.Constants[e.Name] {
			hint := ""
			if _, ok := v.tables.Arity[e.Name]; ok {
				hint = fmt.Sprintf("'%s' is a builtin function; call it as %s(...)", e.Name, e.Name)
			}
			v.addDiag(diagnostics.EUndefinedVariable, fmt.Sprintf("undefined variable '%s'", e.Name), e.Span, hint)
		}

	case *ast.BinaryExpr:
		v.validateExpr(e.Left, sc)
		v.validateExpr(e.Right, sc)

	case *ast.UnaryExpr:
		v.validateExpr(e.Operand, sc)

	case *ast.CallExpr:
		v.validateCall(e, sc)
		for _, a := range e.Args {
			v.validateExpr(a, sc)
		}
	}
}

func (v *validator) validateCall(e *ast.CallExpr, sc *scope) {
	name := e.Callee.Name
	if sc.has(name) {
		// Only a name bound purely by declarations with one arity can be checked.
		arities := v.fnArity[name]
		if len(arities) == 1 && !v.assigned[name] {
			for n := range arities {
				if n != len(e.Args) {
					v.addDiag(diagnostics.EArgument,
						fmt.Sprintf("function '%s' expects %d argument(s), got %d", name, n, len(e.Args)), e.Span, "")
				}
			}
		}
		return
	}
	if n, ok := v.tables.Arity[name]; ok {
		if n != len(e.Args) {
			v.addDiag(diagnostics.EArgument,
				fmt.Sprintf("%s expects %d argument(s), got %d", name, n, len(e.Args)), e.Span, "")
		}
		return
	}
	if v.tables.Constants[name] {
		v.addDiag(diagnostics.EType, fmt.Sprintf("'%s' is a constant, not a function", name), e.Callee.Span, "")
		return
	}
	if !v.hasImports {
		v.addDiag(diagnostics.EUndefinedFunction, fmt.Sprintf("undefined function '%s'", name), e.Callee.Span, "")
	}
}
