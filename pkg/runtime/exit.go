package runtime

import (
	"errors"

	"github.com/zanderlewis/weather/pkg/diagnostics"
	"github.com/zanderlewis/weather/pkg/evaluator"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitIO          = 1
	ExitDiagnostics = 2
	ExitRuntime     = 4
)

// ExitCode maps an error returned by Run, Check or Format onto a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var de *DiagnosticError
	if errors.As(err, &de) {
		return ExitDiagnostics
	}
	var re *evaluator.RuntimeError
	if errors.As(err, &re) {
		return ExitRuntime
	}
	return ExitIO
}

// DiagnosticsOf converts an error into diagnostics for display.
func DiagnosticsOf(err error) []diagnostics.Diagnostic {
	var de *DiagnosticError
	if errors.As(err, &de) {
		return de.Diagnostics
	}
	var re *evaluator.RuntimeError
	if errors.As(err, &re) {
		return []diagnostics.Diagnostic{re.Diagnostic()}
	}
	return []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, "")}
}
