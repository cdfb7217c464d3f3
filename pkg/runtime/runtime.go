// Package runtime provides the top-level Weather runtime orchestrator.
package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/zanderlewis/weather/pkg/ast"
	"github.com/zanderlewis/weather/pkg/config"
	"github.com/zanderlewis/weather/pkg/diagnostics"
	"github.com/zanderlewis/weather/pkg/evaluator"
	"github.com/zanderlewis/weather/pkg/formatter"
	"github.com/zanderlewis/weather/pkg/lexer"
	"github.com/zanderlewis/weather/pkg/modules"
	"github.com/zanderlewis/weather/pkg/parser"
	"github.com/zanderlewis/weather/pkg/quantum"
	"github.com/zanderlewis/weather/pkg/stdlib"
	"github.com/zanderlewis/weather/pkg/validator"
)

// Result holds the outcome of a program execution.
type Result struct {
	Value evaluator.WValue
	RunID string
	// Digest is the BLAKE3 digest of the program source.
	Digest string
}

// Runtime wires together all Weather components for program execution.
type Runtime struct {
	registry *stdlib.Registry
	cfg      *config.Config
	logger   *slog.Logger
	stdout   io.Writer
	seed     *uint64
	trace    func(event evaluator.TraceEvent)
	importer evaluator.Importer
	strict   bool
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithRegistry sets the builtin and constant registry.
func WithRegistry(r *stdlib.Registry) Option {
	return func(rt *Runtime) {
		rt.registry = r
	}
}

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(rt *Runtime) {
		rt.cfg = cfg
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithOutput sets where print writes.
func WithOutput(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithSeed fixes the measurement seed, overriding the configuration.
func WithSeed(seed uint64) Option {
	return func(rt *Runtime) {
		rt.seed = &seed
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// WithImporter replaces the file-based module importer.
func WithImporter(imp evaluator.Importer) Option {
	return func(rt *Runtime) {
		rt.importer = imp
	}
}

// WithStrictValidation makes static validation diagnostics fatal: Run
// reports them without executing the program.
func WithStrictValidation() Option {
	return func(rt *Runtime) {
		rt.strict = true
	}
}

// New creates a new Runtime with the given options.
// By default the standard builtins are registered, the configuration is the
// built-in default and nothing is logged.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		registry: stdlib.Default(),
		cfg:      config.Default(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		stdout:   os.Stdout,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Config returns the configuration in use.
func (rt *Runtime) Config() *config.Config { return rt.cfg }

// Registry returns the builtin registry in use.
func (rt *Runtime) Registry() *stdlib.Registry { return rt.registry }

// Tables describes the registry for the validator.
func (rt *Runtime) Tables() validator.Tables {
	t := validator.Tables{
		Arity:     make(map[string]int),
		Constants: make(map[string]bool),
	}
	for name, fn := range rt.registry.All() {
		t.Arity[name] = fn.Arity()
	}
	for name := range rt.registry.Constants() {
		t.Constants[name] = true
	}
	return t
}

// Run parses and executes a program. Only lex and parse errors stop a run
// before it starts. Validation diagnostics are logged as warnings, since
// undefined names are errors only when evaluation reaches them, unless the
// runtime is strict.
func (rt *Runtime) Run(ctx context.Context, source, filename string) (*Result, error) {
	program, err := rt.parse(source, filename)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.New().String(), Digest: modules.Digest(source)}
	log := rt.logger.With("run", res.RunID, "file", filename)
	log.Debug("parsed", "statements", len(program.Statements), "digest", res.Digest)

	if vDiags := validator.Validate(program, rt.Tables()); len(vDiags) > 0 {
		if rt.strict {
			log.Debug("validation failed", "diagnostics", len(vDiags))
			return nil, &DiagnosticError{Diagnostics: vDiags}
		}
		for _, d := range vDiags {
			attrs := []any{"code", d.Code, "message", d.Message}
			if d.Span != nil {
				attrs = append(attrs, "line", d.Span.StartLine)
			}
			log.Warn("validation", attrs...)
		}
	}

	opts := rt.buildExecOptions(filename, res.RunID)
	opts.Trace = withDigest(opts.Trace, res.Digest)
	result, err := evaluator.Execute(ctx, program, opts)
	if err != nil {
		log.Debug("execution failed", "error", err)
		return res, err
	}
	res.Value = result.Value
	log.Debug("execution finished", "value", evaluator.TypeName(res.Value))
	return res, nil
}

// Check parses and validates a program without executing it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return diags
	}
	return validator.Validate(program, rt.Tables())
}

// Format parses and formats a program.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, err := rt.parse(source, filename)
	if err != nil {
		return "", err
	}
	return formatter.Format(program), nil
}

// Tokens lexes a program.
func (rt *Runtime) Tokens(source, filename string) ([]lexer.Token, error) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		if lexErr, ok := err.(*lexer.LexError); ok {
			return nil, &DiagnosticError{Diagnostics: []diagnostics.Diagnostic{lexErr.Diag}}
		}
		return nil, err
	}
	return tokens, nil
}

func (rt *Runtime) parse(source, filename string) (*ast.Program, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}
	return program, nil
}

// newSimulator builds the run's simulator, seeded when a seed is configured.
func (rt *Runtime) newSimulator() *quantum.Simulator {
	seed := rt.seed
	if seed == nil {
		seed = rt.cfg.Runtime.Seed
	}
	if seed != nil {
		return quantum.NewSeeded(*seed, rt.cfg.Runtime.MaxQubits)
	}
	return quantum.New(nil, rt.cfg.Runtime.MaxQubits)
}

// moduleImporter searches the script's directory first, then the configured module path.
func (rt *Runtime) moduleImporter(filename string) evaluator.Importer {
	if rt.importer != nil {
		return rt.importer
	}
	dir := "."
	if filename != "" && filename != "-" && filename != "<stdin>" && filename != "<repl>" {
		dir = filepath.Dir(filename)
	}
	return modules.NewFileImporter(append([]string{dir}, rt.cfg.Modules.Path...)...)
}

// buildExecOptions constructs evaluator options from the runtime's configuration.
func (rt *Runtime) buildExecOptions(filename, runID string) evaluator.ExecOptions {
	return evaluator.ExecOptions{
		Builtins:  rt.registry.All(),
		Constants: rt.registry.Constants(),
		Sim:       rt.newSimulator(),
		Stdout:    rt.stdout,
		Importer:  rt.moduleImporter(filename),
		Precision: rt.cfg.Runtime.Precision,
		Budget:    evaluator.Budget{MaxCallDepth: rt.cfg.Runtime.MaxCallDepth},
		Trace:     rt.trace,
		RunID:     runID,
	}
}

// withDigest stamps the source digest onto the run_start event.
func withDigest(trace func(evaluator.TraceEvent), digest string) func(evaluator.TraceEvent) {
	if trace == nil {
		return nil
	}
	return func(event evaluator.TraceEvent) {
		if event.Event == evaluator.TraceRunStart {
			if event.Data == nil {
				event.Data = make(map[string]string)
			}
			event.Data["digest"] = digest
		}
		trace(event)
	}
}

// NDJSONTrace returns a trace callback writing one JSON object per line to w.
func NDJSONTrace(w io.Writer) func(event evaluator.TraceEvent) {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	return func(event evaluator.TraceEvent) {
		mu.Lock()
		defer mu.Unlock()
		_ = enc.Encode(event)
	}
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}
