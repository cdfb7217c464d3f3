package runtime

import (
	"context"

	"github.com/google/uuid"

	"github.com/zanderlewis/weather/pkg/evaluator"
	"github.com/zanderlewis/weather/pkg/parser"
)

// ReplFile is the filename used in spans of interactively entered code.
const ReplFile = "<repl>"

// Session keeps globals and qubits alive across successive inputs.
// Inputs are not statically validated, since names bound by earlier inputs
// are unknown to the validator.
type Session struct {
	rt      *Runtime
	machine *evaluator.Machine
	runID   string
}

// NewSession starts an interactive session.
func (rt *Runtime) NewSession() *Session {
	runID := uuid.New().String()
	rt.logger.Debug("session started", "run", runID)
	return &Session{
		rt:      rt,
		machine: evaluator.NewMachine(rt.buildExecOptions(ReplFile, runID)),
		runID:   runID,
	}
}

// RunID identifies the session in trace events.
func (s *Session) RunID() string { return s.runID }

// Precision is the significant-digit count used to display non-terminating rationals.
func (s *Session) Precision() int { return s.rt.cfg.Runtime.Precision }

// Machine exposes the underlying evaluator state.
func (s *Session) Machine() *evaluator.Machine { return s.machine }

// Eval parses and executes one input. A parse failure is returned as a
// *DiagnosticError; bindings made before a runtime error are kept.
func (s *Session) Eval(ctx context.Context, source string) (evaluator.WValue, error) {
	program, diags := parser.Parse(source, ReplFile)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}
	return s.machine.Exec(ctx, program)
}

// Incomplete reports whether source is a prefix of a valid input, so the
// caller should read another line before evaluating.
func Incomplete(source string) bool {
	_, diags := parser.Parse(source, ReplFile)
	return parser.IsIncomplete(diags)
}
