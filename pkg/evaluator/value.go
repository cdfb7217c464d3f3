// Package evaluator implements the Weather tree-walking evaluator.
package evaluator

import (
	"github.com/zanderlewis/weather/pkg/ast"
	"github.com/zanderlewis/weather/pkg/numeric"
	"github.com/zanderlewis/weather/pkg/quantum"
)

// WValue is the interface for all Weather runtime values.
// Use the sealed marker method to restrict implementations to this package.
type WValue interface {
	wvalue() // sealed marker
}

// WInt is an arbitrary-precision integer.
type WInt struct {
	Value numeric.Int
}

func (WInt) wvalue() {}

// WRat is an exact rational in lowest terms.
type WRat struct {
	Value numeric.Rat
}

func (WRat) wvalue() {}

// WString represents a string value.
type WString struct {
	Value string
}

func (WString) wvalue() {}

// WBool represents a boolean value.
type WBool struct {
	Value bool
}

func (WBool) wvalue() {}

// WQubit is a non-owning handle to one qubit held by the simulator.
type WQubit struct {
	Handle quantum.Handle
}

func (WQubit) wvalue() {}

// WFunc is a user-defined function together with the environment it was declared in.
type WFunc struct {
	Name    string
	Params  []string
	Body    *ast.Block
	Closure *Env
}

func (*WFunc) wvalue() {}

// WUnit is the value of statements that produce nothing.
type WUnit struct{}

func (WUnit) wvalue() {}

// NewNumber wraps a numeric.Number in the matching value type.
func NewNumber(n numeric.Number) WValue {
	switch x := n.(type) {
	case numeric.Int:
		return WInt{Value: x}
	case numeric.Rat:
		return WRat{Value: x}
	}
	return nil
}

// NewInt creates an integer value.
func NewInt(x int64) WValue {
	return WInt{Value: numeric.NewInt(x)}
}

// NewString creates a string value.
func NewString(s string) WValue {
	return WString{Value: s}
}

// NewBool creates a boolean value.
func NewBool(b bool) WValue {
	return WBool{Value: b}
}

// NewQubit creates a qubit handle value.
func NewQubit(h quantum.Handle) WValue {
	return WQubit{Handle: h}
}

// Unit is the shared unit value.
var Unit WValue = WUnit{}

// AsNumber extracts the number held by an integer or rational value.
func AsNumber(v WValue) (numeric.Number, bool) {
	switch x := v.(type) {
	case WInt:
		return x.Value, true
	case WRat:
		return x.Value, true
	}
	return nil, false
}

// TypeName returns the user-facing name of a value's type.
func TypeName(v WValue) string {
	switch v.(type) {
	case WInt:
		return "Int"
	case WRat:
		return "Rational"
	case WString:
		return "String"
	case WBool:
		return "Bool"
	case WQubit:
		return "Qubit"
	case *WFunc:
		return "Function"
	case WUnit:
		return "Unit"
	}
	return "unknown"
}

// Equal compares two values. Numbers compare exactly across Int and Rational,
// qubits by handle and functions by identity. Values of different types are unequal.
func Equal(a, b WValue) bool {
	if na, ok := AsNumber(a); ok {
		nb, ok := AsNumber(b)
		return ok && numeric.Equal(na, nb)
	}
	switch x := a.(type) {
	case WString:
		y, ok := b.(WString)
		return ok && x.Value == y.Value
	case WBool:
		y, ok := b.(WBool)
		return ok && x.Value == y.Value
	case WQubit:
		y, ok := b.(WQubit)
		return ok && x.Handle == y.Handle
	case *WFunc:
		y, ok := b.(*WFunc)
		return ok && x == y
	case WUnit:
		_, ok := b.(WUnit)
		return ok
	}
	return false
}
