package stdlib

import (
	"fmt"
	"math"
	"strings"

	"github.com/zanderlewis/weather/pkg/diagnostics"
	"github.com/zanderlewis/weather/pkg/evaluator"
	"github.com/zanderlewis/weather/pkg/numeric"
)

// RegisterDefaults adds all builtins and constants.
func RegisterDefaults(r *Registry) {
	// Temperature conversions
	r.Register(evaluator.Builtin{Name: "ftoc", Params: []string{"f"}, Doc: "Fahrenheit to Celsius", Execute: stdlibFtoC})
	r.Register(evaluator.Builtin{Name: "ctof", Params: []string{"c"}, Doc: "Celsius to Fahrenheit", Execute: stdlibCtoF})
	r.Register(evaluator.Builtin{Name: "ctok", Params: []string{"c"}, Doc: "Celsius to Kelvin", Execute: stdlibCtoK})
	r.Register(evaluator.Builtin{Name: "ktoc", Params: []string{"k"}, Doc: "Kelvin to Celsius", Execute: stdlibKtoC})
	r.Register(evaluator.Builtin{Name: "ftok", Params: []string{"f"}, Doc: "Fahrenheit to Kelvin", Execute: stdlibFtoK})
	r.Register(evaluator.Builtin{Name: "ktof", Params: []string{"k"}, Doc: "Kelvin to Fahrenheit", Execute: stdlibKtoF})
	r.Register(evaluator.Builtin{Name: "dewpoint", Params: []string{"temp", "humidity"}, Doc: "dew point in Celsius from temperature and relative humidity", Execute: stdlibDewpoint})

	// Math
	r.Register(evaluator.Builtin{Name: "abs", Params: []string{"x"}, Doc: "absolute value", Execute: stdlibAbs})
	r.Register(evaluator.Builtin{Name: "min", Params: []string{"a", "b"}, Doc: "smaller of two numbers", Execute: stdlibMin})
	r.Register(evaluator.Builtin{Name: "max", Params: []string{"a", "b"}, Doc: "larger of two numbers", Execute: stdlibMax})
	r.Register(evaluator.Builtin{Name: "floor", Params: []string{"x"}, Doc: "largest integer not above x", Execute: stdlibFloor})
	r.Register(evaluator.Builtin{Name: "ceil", Params: []string{"x"}, Doc: "smallest integer not below x", Execute: stdlibCeil})
	r.Register(evaluator.Builtin{Name: "numerator", Params: []string{"x"}, Doc: "numerator in lowest terms", Execute: stdlibNumerator})
	r.Register(evaluator.Builtin{Name: "denominator", Params: []string{"x"}, Doc: "positive denominator in lowest terms", Execute: stdlibDenominator})

	// Strings and types
	r.Register(evaluator.Builtin{Name: "str", Params: []string{"x"}, Doc: "value formatted as print writes it", Execute: stdlibStr})
	r.Register(evaluator.Builtin{Name: "type", Params: []string{"x"}, Doc: "name of the value's type", Execute: stdlibType})

	// Quantum
	r.Register(evaluator.Builtin{Name: "qubit", Params: []string{"basis", "size"}, Doc: "allocate a register in a basis state; returns qubit 0", Execute: stdlibQubit})
	r.Register(evaluator.Builtin{Name: "qubit_at", Params: []string{"q", "i"}, Doc: "qubit i of q's register", Execute: stdlibQubitAt})
	r.Register(evaluator.Builtin{Name: "hadamard", Params: []string{"q"}, Doc: "apply the Hadamard gate", Execute: gate1(simH)})
	r.Register(evaluator.Builtin{Name: "pauli_x", Params: []string{"q"}, Doc: "apply the Pauli-X gate", Execute: gate1(simX)})
	r.Register(evaluator.Builtin{Name: "paulix", Params: []string{"q"}, Doc: "alias of pauli_x", Execute: gate1(simX)})
	r.Register(evaluator.Builtin{Name: "pauliy", Params: []string{"q"}, Doc: "apply the Pauli-Y gate", Execute: gate1(simY)})
	r.Register(evaluator.Builtin{Name: "pauliz", Params: []string{"q"}, Doc: "apply the Pauli-Z gate", Execute: gate1(simZ)})
	r.Register(evaluator.Builtin{Name: "sgate", Params: []string{"q"}, Doc: "apply the S phase gate", Execute: gate1(simS)})
	r.Register(evaluator.Builtin{Name: "tgate", Params: []string{"q"}, Doc: "apply the T phase gate", Execute: gate1(simT)})
	r.Register(evaluator.Builtin{Name: "phase", Params: []string{"q", "theta"}, Doc: "apply a phase shift of theta radians", Execute: stdlibPhase})
	r.Register(evaluator.Builtin{Name: "cnot", Params: []string{"control", "target"}, Doc: "controlled NOT", Execute: stdlibCNOT})
	r.Register(evaluator.Builtin{Name: "swap", Params: []string{"a", "b"}, Doc: "exchange two qubits", Execute: stdlibSwap})
	r.Register(evaluator.Builtin{Name: "toffoli", Params: []string{"c1", "c2", "target"}, Doc: "doubly controlled NOT", Execute: stdlibToffoli})
	r.Register(evaluator.Builtin{Name: "fredkin", Params: []string{"control", "a", "b"}, Doc: "controlled swap", Execute: stdlibFredkin})
	r.Register(evaluator.Builtin{Name: "measure", Params: []string{"q"}, Doc: "measure q, collapsing its register; returns 0 or 1", Execute: stdlibMeasure})
	r.Register(evaluator.Builtin{Name: "reset", Params: []string{"q"}, Doc: "measure q and return it to |0>", Execute: stdlibReset})
	r.Register(evaluator.Builtin{Name: "discard", Params: []string{"q"}, Doc: "free q's register; its handles become invalid", Execute: stdlibDiscard})
	r.Register(evaluator.Builtin{Name: "probability", Params: []string{"q", "outcome"}, Doc: "probability that measuring q yields outcome", Execute: stdlibProbability})

	registerConstants(r)
}

// --- argument helpers ---

func typeError(c *evaluator.Call, args []evaluator.WValue, want string) error {
	types := make([]string, len(args))
	for i, a := range args {
		types[i] = evaluator.TypeName(a)
	}
	return &evaluator.RuntimeError{
		Code:    diagnostics.EType,
		Message: fmt.Sprintf("%s expects %s, got (%s)", c.Name, want, strings.Join(types, ", ")),
		Span:    &c.Span,
	}
}

func argumentError(c *evaluator.Call, format string, a ...any) error {
	return &evaluator.RuntimeError{
		Code:    diagnostics.EArgument,
		Message: c.Name + ": " + fmt.Sprintf(format, a...),
		Span:    &c.Span,
	}
}

// numbers extracts every argument as a number.
func numbers(c *evaluator.Call, args []evaluator.WValue) ([]numeric.Number, error) {
	out := make([]numeric.Number, len(args))
	for i, a := range args {
		n, ok := evaluator.AsNumber(a)
		if !ok {
			return nil, typeError(c, args, "numbers")
		}
		out[i] = n
	}
	return out, nil
}

// smallInt extracts an argument as an integer that fits in an int.
func smallInt(c *evaluator.Call, args []evaluator.WValue, i int, what string) (int, error) {
	var n numeric.Int
	switch x := args[i].(type) {
	case evaluator.WInt:
		n = x.Value
	case evaluator.WRat:
		if !x.Value.IsInt() {
			return 0, typeError(c, args, what+" as an integer")
		}
		n = x.Value.Num()
	default:
		return 0, typeError(c, args, what+" as an integer")
	}
	v, ok := n.Int64()
	if !ok || v > math.MaxInt32 || v < math.MinInt32 {
		return 0, argumentError(c, "%s %s is out of range", what, n)
	}
	return int(v), nil
}

// ratio builds the exact fraction a/b for a non-zero b.
func ratio(a, b int64) numeric.Rat {
	r, err := numeric.NewRat(a, b)
	if err != nil {
		panic(err)
	}
	return r
}
