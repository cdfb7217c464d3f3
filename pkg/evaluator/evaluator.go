package evaluator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/zanderlewis/weather/pkg/ast"
	"github.com/zanderlewis/weather/pkg/diagnostics"
	"github.com/zanderlewis/weather/pkg/numeric"
	"github.com/zanderlewis/weather/pkg/parser"
	"github.com/zanderlewis/weather/pkg/quantum"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart     TraceEventType = "run_start"
	TraceRunEnd       TraceEventType = "run_end"
	TraceStmtStart    TraceEventType = "stmt_start"
	TraceStmtEnd      TraceEventType = "stmt_end"
	TraceFnCallStart  TraceEventType = "fn_call_start"
	TraceFnCallEnd    TraceEventType = "fn_call_end"
	TraceBuiltinCall  TraceEventType = "builtin_call"
	TracePrint        TraceEventType = "print"
	TraceImport       TraceEventType = "import"
	TraceRuntimeError TraceEventType = "runtime_error"
)

// TraceEvent represents a single trace event emitted during execution.
type TraceEvent struct {
	Timestamp string            `json:"ts"`
	RunID     string            `json:"runId"`
	Event     TraceEventType    `json:"event"`
	Span      *ast.Span         `json:"span,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// Call carries the context a builtin runs in.
type Call struct {
	Ctx       context.Context
	Name      string
	Span      ast.Span
	Sim       *quantum.Simulator
	Precision int
}

// Builtin is a natively implemented function with a fixed parameter list.
type Builtin struct {
	Name    string
	Params  []string
	Doc     string
	Execute func(c *Call, args []WValue) (WValue, error)
}

// Arity returns the number of arguments the builtin requires.
func (b *Builtin) Arity() int { return len(b.Params) }

// Module is the source of an imported script.
type Module struct {
	Name     string
	Filename string
	Source   string
	// Digest identifies the module contents; modules with equal digests run once.
	Digest string
}

// Importer resolves the name in an import statement to module source.
type Importer interface {
	Import(ctx context.Context, name string) (*Module, error)
}

// ExecOptions configures program execution.
type ExecOptions struct {
	Builtins  map[string]*Builtin
	Constants map[string]WValue
	Sim       *quantum.Simulator
	Stdout    io.Writer
	Importer  Importer
	Precision int
	Budget    Budget
	Trace     func(event TraceEvent)
	RunID     string
}

// ExecResult holds the result of a program execution.
type ExecResult struct {
	// Value is the value of the last top-level statement.
	Value WValue
}

// RuntimeError represents an error raised while executing a program.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
	// Trace lists the active function calls when the error was raised, innermost first.
	Trace []string
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Diagnostic converts the error into a diagnostic for display.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	hint := ""
	if len(e.Trace) > 0 {
		hint = strings.Join(e.Trace, "; ")
	}
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, hint)
}

func rtErr(code string, span ast.Span, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...), Span: &span}
}

// Machine executes programs against a persistent global environment. The REPL
// keeps one Machine so bindings survive between inputs.
type Machine struct {
	opts      ExecOptions
	globals   *Env
	stack     *callStack
	// imported holds modules that ran to completion; importing holds those
	// still running, so an import cycle ends instead of recursing.
	imported  map[string]bool
	importing map[string]bool
}

// NewMachine creates a Machine with an empty global scope.
func NewMachine(opts ExecOptions) *Machine {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Sim == nil {
		opts.Sim = quantum.New(nil, quantum.DefaultMaxQubits)
	}
	if opts.Precision <= 0 {
		opts.Precision = numeric.DefaultPrecision
	}
	return &Machine{
		opts:      opts,
		globals:   NewEnv(nil),
		stack:     newCallStack(opts.Budget.MaxCallDepth),
		imported:  make(map[string]bool),
		importing: make(map[string]bool),
	}
}

// Globals returns the global scope.
func (m *Machine) Globals() *Env { return m.globals }

// Simulator returns the quantum simulator used by this machine.
func (m *Machine) Simulator() *quantum.Simulator { return m.opts.Sim }

// Exec runs program in the global scope and returns the value of its last
// statement. On error, bindings and output produced before the failing
// statement are kept.
func (m *Machine) Exec(ctx context.Context, program *ast.Program) (WValue, error) {
	ev := &evaluator{ctx: ctx, m: m}
	val, err := ev.executeStmts(program.Statements, m.globals)
	if err != nil {
		m.stack.reset()
		var re *RuntimeError
		if errors.As(err, &re) {
			ev.emitWithData(TraceRuntimeError, re.Span, map[string]string{"code": re.Code, "message": re.Message})
		}
		return nil, err
	}
	return val, nil
}

// Execute runs a program in a fresh global scope and returns the result.
func Execute(ctx context.Context, program *ast.Program, opts ExecOptions) (*ExecResult, error) {
	m := NewMachine(opts)
	ev := &evaluator{ctx: ctx, m: m}
	span := program.Span
	ev.emit(TraceRunStart, &span)
	val, err := m.Exec(ctx, program)
	ev.emit(TraceRunEnd, &span)
	if err != nil {
		return nil, err
	}
	return &ExecResult{Value: val}, nil
}

type evaluator struct {
	ctx context.Context
	m   *Machine
}

func (ev *evaluator) emit(event TraceEventType, span *ast.Span) {
	ev.emitWithData(event, span, nil)
}

func (ev *evaluator) emitWithData(event TraceEventType, span *ast.Span, data map[string]string) {
	if ev.m.opts.Trace != nil {
		ev.m.opts.Trace(TraceEvent{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			RunID:     ev.m.opts.RunID,
			Event:     event,
			Span:      span,
			Data:      data,
		})
	}
}

// executeStmts runs statements in env and returns the value of the last one.
// Blocks do not open a scope; only function calls do.
func (ev *evaluator) executeStmts(stmts []ast.Stmt, env *Env) (WValue, error) {
	var result = Unit
	for _, stmt := range stmts {
		if err := ev.ctx.Err(); err != nil {
			return nil, err
		}
		span := stmt.NodeSpan()
		ev.emit(TraceStmtStart, &span)
		val, err := ev.executeStmt(stmt, env)
		if err != nil {
			return nil, err
		}
		ev.emit(TraceStmtEnd, &span)
		result = val
	}
	return result, nil
}

func (ev *evaluator) executeStmt(stmt ast.Stmt, env *Env) (WValue, error) {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		name := s.Target.Name
		if _, isConst := ev.m.opts.Constants[name]; isConst {
			return nil, rtErr(diagnostics.EType, s.Target.Span, "cannot assign to constant '%s'", name)
		}
		val, err := ev.evalExpr(s.Value, env)
		if err != nil {
			return nil, err
		}
		env.Set(name, val)
		return Unit, nil

	case *ast.ExprStmt:
		return ev.evalExpr(s.Expr, env)

	case *ast.PrintStmt:
		val, err := ev.evalExpr(s.Value, env)
		if err != nil {
			return nil, err
		}
		text := FormatValue(val, ev.m.opts.Precision)
		if _, err := fmt.Fprintln(ev.m.opts.Stdout, text); err != nil {
			return nil, rtErr(diagnostics.EIO, s.Span, "print failed: %s", err)
		}
		ev.emitWithData(TracePrint, &s.Span, map[string]string{"text": text})
		return Unit, nil

	case *ast.IfStmt:
		return ev.executeIf(s, env)

	case *ast.Block:
		return ev.executeStmts(s.Statements, env)

	case *ast.FnDecl:
		if _, isConst := ev.m.opts.Constants[s.Name]; isConst {
			return nil, rtErr(diagnostics.EType, s.Span, "cannot redefine constant '%s' as a function", s.Name)
		}
		env.Set(s.Name, &WFunc{Name: s.Name, Params: s.Params, Body: s.Body, Closure: env})
		return Unit, nil

	case *ast.ImportStmt:
		return Unit, ev.executeImport(s)
	}
	span := stmt.NodeSpan()
	return nil, rtErr(diagnostics.EType, span, "unsupported statement %s", stmt.Kind())
}

func (ev *evaluator) executeIf(s *ast.IfStmt, env *Env) (WValue, error) {
	cond, err := ev.evalExpr(s.Cond, env)
	if err != nil {
		return nil, err
	}
	b, ok := cond.(WBool)
	if !ok {
		return nil, rtErr(diagnostics.EType, s.Cond.NodeSpan(), "if condition must be Bool, got %s", TypeName(cond))
	}
	if b.Value {
		return ev.executeStmts(s.Then.Statements, env)
	}
	if s.Else != nil {
		return ev.executeStmt(s.Else, env)
	}
	return Unit, nil
}

func (ev *evaluator) executeImport(s *ast.ImportStmt) error {
	if ev.m.opts.Importer == nil {
		return rtErr(diagnostics.EImport, s.Span, "cannot import '%s': imports are not available", s.Path)
	}
	mod, err := ev.m.opts.Importer.Import(ev.ctx, s.Path)
	if err != nil {
		return rtErr(diagnostics.EImport, s.Span, "cannot import '%s': %s", s.Path, err)
	}
	key := mod.Digest
	if key == "" {
		key = mod.Filename
	}
	if ev.m.imported[key] || ev.m.importing[key] {
		return nil
	}

	prog, diags := parser.Parse(mod.Source, mod.Filename)
	if len(diags) > 0 {
		return rtErr(diagnostics.EImport, s.Span, "cannot import '%s': %s", s.Path, diags[0].Error())
	}
	ev.emitWithData(TraceImport, &s.Span, map[string]string{"module": mod.Name, "digest": mod.Digest})

	ev.m.importing[key] = true
	defer delete(ev.m.importing, key)
	// Modules run in the global scope so their functions and values are visible everywhere.
	if _, err := ev.executeStmts(prog.Statements, ev.m.globals); err != nil {
		return err
	}
	ev.m.imported[key] = true
	return nil
}

func (ev *evaluator) evalExpr(expr ast.Expr, env *Env) (WValue, error) {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		n, err := numeric.ParseInt(e.Text)
		if err != nil {
			return nil, rtErr(diagnostics.EType, e.Span, "%s", err)
		}
		return WInt{Value: n}, nil

	case *ast.RatLiteral:
		r, err := numeric.ParseDecimal(e.Text)
		if err != nil {
			return nil, rtErr(diagnostics.EType, e.Span, "%s", err)
		}
		return WRat{Value: r}, nil

	case *ast.StrLiteral:
		return NewString(e.Value), nil

	case *ast.BoolLiteral:
		return NewBool(e.Value), nil

	case *ast.Ident:
		return ev.lookup(e, env)

	case *ast.UnaryExpr:
		return ev.evalUnary(e, env)

	case *ast.BinaryExpr:
		return ev.evalBinaryOp(e, env)

	case *ast.CallExpr:
		return ev.evalCall(e, env)
	}
	span := expr.NodeSpan()
	return nil, rtErr(diagnostics.EType, span, "unsupported expression %s", expr.Kind())
}

func (ev *evaluator) lookup(e *ast.Ident, env *Env) (WValue, error) {
	if v, ok := env.Get(e.Name); ok {
		return v, nil
	}
	if c, ok := ev.m.opts.Constants[e.Name]; ok {
		return c, nil
	}
	return nil, rtErr(diagnostics.EUndefinedVariable, e.Span, "undefined variable '%s'", e.Name)
}

func (ev *evaluator) evalUnary(e *ast.UnaryExpr, env *Env) (WValue, error) {
	val, err := ev.evalExpr(e.Operand, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case ast.OpNeg:
		if n, ok := AsNumber(val); ok {
			return NewNumber(numeric.Neg(n)), nil
		}
	case ast.OpNot:
		if b, ok := val.(WBool); ok {
			return NewBool(!b.Value), nil
		}
	}
	return nil, rtErr(diagnostics.EType, e.Span, "cannot apply '%s' to %s", e.Op, TypeName(val))
}

func (ev *evaluator) evalBinaryOp(e *ast.BinaryExpr, env *Env) (WValue, error) {
	if e.Op == ast.OpAnd || e.Op == ast.OpOr {
		return ev.evalLogical(e, env)
	}

	left, err := ev.evalExpr(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := ev.evalExpr(e.Right, env)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case ast.OpEqEq:
		return NewBool(Equal(left, right)), nil
	case ast.OpNeq:
		return NewBool(!Equal(left, right)), nil
	}

	ln, lok := AsNumber(left)
	rn, rok := AsNumber(right)
	if lok && rok {
		return evalArithmetic(e, ln, rn)
	}

	ls, lsok := left.(WString)
	rs, rsok := right.(WString)
	if lsok && rsok {
		switch e.Op {
		case ast.OpAdd:
			return NewString(ls.Value + rs.Value), nil
		case ast.OpLt:
			return NewBool(ls.Value < rs.Value), nil
		case ast.OpGt:
			return NewBool(ls.Value > rs.Value), nil
		case ast.OpLtEq:
			return NewBool(ls.Value <= rs.Value), nil
		case ast.OpGtEq:
			return NewBool(ls.Value >= rs.Value), nil
		}
	}

	return nil, rtErr(diagnostics.EType, e.Span, "cannot apply '%s' to %s and %s", e.Op, TypeName(left), TypeName(right))
}

func evalArithmetic(e *ast.BinaryExpr, a, b numeric.Number) (WValue, error) {
	switch e.Op {
	case ast.OpAdd:
		return NewNumber(numeric.Add(a, b)), nil
	case ast.OpSub:
		return NewNumber(numeric.Sub(a, b)), nil
	case ast.OpMul:
		return NewNumber(numeric.Mul(a, b)), nil
	case ast.OpDiv:
		q, err := numeric.Div(a, b)
		if err != nil {
			return nil, numericError(e.Span, err)
		}
		return WRat{Value: q}, nil
	case ast.OpMod:
		r, err := numeric.Mod(a, b)
		if err != nil {
			return nil, numericError(e.Span, err)
		}
		return NewNumber(r), nil
	case ast.OpPow:
		p, err := numeric.Pow(a, b)
		if err != nil {
			return nil, numericError(e.Span, err)
		}
		return NewNumber(p), nil
	case ast.OpLt:
		return NewBool(numeric.Cmp(a, b) < 0), nil
	case ast.OpGt:
		return NewBool(numeric.Cmp(a, b) > 0), nil
	case ast.OpLtEq:
		return NewBool(numeric.Cmp(a, b) <= 0), nil
	case ast.OpGtEq:
		return NewBool(numeric.Cmp(a, b) >= 0), nil
	}
	return nil, rtErr(diagnostics.EType, e.Span, "unknown operator '%s'", e.Op)
}

// numericError maps numeric tower errors onto runtime error codes.
func numericError(span ast.Span, err error) *RuntimeError {
	switch {
	case errors.Is(err, numeric.ErrDivisionByZero):
		return rtErr(diagnostics.EDivisionByZero, span, "division by zero")
	case errors.Is(err, numeric.ErrNonIntegerExponent):
		return rtErr(diagnostics.EType, span, "%s", err)
	default:
		return rtErr(diagnostics.EArgument, span, "%s", err)
	}
}

func (ev *evaluator) evalLogical(e *ast.BinaryExpr, env *Env) (WValue, error) {
	left, err := ev.evalExpr(e.Left, env)
	if err != nil {
		return nil, err
	}
	lb, ok := left.(WBool)
	if !ok {
		return nil, rtErr(diagnostics.EType, e.Left.NodeSpan(), "'%s' requires Bool operands, got %s", e.Op, TypeName(left))
	}
	if e.Op == ast.OpAnd && !lb.Value {
		return NewBool(false), nil
	}
	if e.Op == ast.OpOr && lb.Value {
		return NewBool(true), nil
	}
	right, err := ev.evalExpr(e.Right, env)
	if err != nil {
		return nil, err
	}
	rb, ok := right.(WBool)
	if !ok {
		return nil, rtErr(diagnostics.EType, e.Right.NodeSpan(), "'%s' requires Bool operands, got %s", e.Op, TypeName(right))
	}
	return rb, nil
}

func (ev *evaluator) evalArgs(args []ast.Expr, env *Env) ([]WValue, error) {
	vals := make([]WValue, len(args))
	for i, a := range args {
		v, err := ev.evalExpr(a, env)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// evalCall resolves the callee in scope first, then in the builtin table.
func (ev *evaluator) evalCall(e *ast.CallExpr, env *Env) (WValue, error) {
	name := e.Callee.Name

	if bound, ok := env.Get(name); ok {
		fn, isFn := bound.(*WFunc)
		if !isFn {
			return nil, rtErr(diagnostics.EType, e.Callee.Span, "'%s' is a %s, not a function", name, TypeName(bound))
		}
		args, err := ev.evalArgs(e.Args, env)
		if err != nil {
			return nil, err
		}
		return ev.callUser(fn, args, e.Span)
	}

	if b, ok := ev.m.opts.Builtins[name]; ok {
		args, err := ev.evalArgs(e.Args, env)
		if err != nil {
			return nil, err
		}
		return ev.callBuiltin(b, args, e.Span)
	}

	if c, ok := ev.m.opts.Constants[name]; ok {
		return nil, rtErr(diagnostics.EType, e.Callee.Span, "'%s' is a %s constant, not a function", name, TypeName(c))
	}
	return nil, rtErr(diagnostics.EUndefinedFunction, e.Callee.Span, "undefined function '%s'", name)
}

func (ev *evaluator) callUser(fn *WFunc, args []WValue, span ast.Span) (WValue, error) {
	if len(args) != len(fn.Params) {
		return nil, rtErr(diagnostics.EArgument, span, "function '%s' expects %d argument(s), got %d", fn.Name, len(fn.Params), len(args))
	}
	if err := ev.m.stack.push(fn.Name, span); err != nil {
		return nil, err
	}
	defer ev.m.stack.pop()

	ev.emitWithData(TraceFnCallStart, &span, map[string]string{"fn": fn.Name})
	callEnv := fn.Closure.Child()
	for i, p := range fn.Params {
		callEnv.Set(p, args[i])
	}
	result, err := ev.executeStmts(fn.Body.Statements, callEnv)
	ev.emitWithData(TraceFnCallEnd, &span, map[string]string{"fn": fn.Name})
	if err != nil {
		var re *RuntimeError
		if errors.As(err, &re) && re.Trace == nil {
			re.Trace = ev.m.stack.traceback()
		}
		return nil, err
	}
	return result, nil
}

func (ev *evaluator) callBuiltin(b *Builtin, args []WValue, span ast.Span) (WValue, error) {
	if len(args) != b.Arity() {
		return nil, rtErr(diagnostics.EArgument, span, "%s expects %d argument(s) (%s), got %d",
			b.Name, b.Arity(), strings.Join(b.Params, ", "), len(args))
	}
	ev.emitWithData(TraceBuiltinCall, &span, map[string]string{"fn": b.Name})
	result, err := b.Execute(&Call{
		Ctx:       ev.ctx,
		Name:      b.Name,
		Span:      span,
		Sim:       ev.m.opts.Sim,
		Precision: ev.m.opts.Precision,
	}, args)
	if err != nil {
		var re *RuntimeError
		if errors.As(err, &re) {
			if re.Span == nil {
				re.Span = &span
			}
			return nil, re
		}
		return nil, rtErr(diagnostics.EArgument, span, "%s: %s", b.Name, err)
	}
	if result == nil {
		result = Unit
	}
	return result, nil
}
