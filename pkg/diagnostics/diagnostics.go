// Package diagnostics defines Weather diagnostic types for lex, parse, validation and runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/zanderlewis/weather/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex                = "E_LEX"
	EParse              = "E_PARSE"
	EUnexpectedEOF      = "E_UNEXPECTED_EOF"
	EUndefinedVariable  = "E_UNDEFINED_VARIABLE"
	EUndefinedFunction  = "E_UNDEFINED_FUNCTION"
	EType               = "E_TYPE"
	EArgument           = "E_ARGUMENT"
	EDivisionByZero     = "E_DIVISION_BY_ZERO"
	EInvalidQubit       = "E_INVALID_QUBIT"
	ERecursion          = "E_RECURSION"
	EImport             = "E_IMPORT"
	EDupParam           = "E_DUP_PARAM"
	EConstantAssignment = "E_CONSTANT_ASSIGNMENT"
	EIO                 = "E_IO"
	EConfig             = "E_CONFIG"
)

var (
	errorLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	arrowLabel = color.New(color.FgBlue).SprintFunc()
	hintLabel  = color.New(color.FgCyan).SprintFunc()
)

// Diagnostic represents a lex, parse, validation, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// Error lets a Diagnostic travel as an error value.
func (d Diagnostic) Error() string {
	if d.Span == nil {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.Span.File, d.Span.StartLine, d.Span.StartCol, d.Code, d.Message)
}

// FormatDiagnostic formats a single diagnostic for display. The pretty form is
// colored when the output is a terminal.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = fmt.Sprintf("%s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
	}
	out := fmt.Sprintf("%s: %s\n  %s %s", errorLabel("error["+d.Code+"]"), d.Message, arrowLabel("-->"), loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  %s %s", hintLabel("hint:"), d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}

// HasCode reports whether any diagnostic carries the given code.
func HasCode(diags []Diagnostic, code string) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}
